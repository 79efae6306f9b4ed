// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package invoice

import "errors"

var errInvalidHashLength = errors.New("invoice: hash must be 32 bytes")
