// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package scanner

import "errors"

// ErrTickSkipped wraps whichever scan_blocks/scan_txpool failure caused a
// tick to be abandoned before any invoice was folded or written back.
var ErrTickSkipped = errors.New("scanner: tick skipped")
