// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package subaddress

import "errors"

// ErrAddressSpaceExhausted is returned by Allocator.Next when no unused
// sub-index was found after the bounded retry budget (spec §4.4, §7).
var ErrAddressSpaceExhausted = errors.New("subaddress: address space exhausted")
