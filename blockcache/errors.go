// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package blockcache

import "errors"

// ErrDaemonRegressed is returned when the daemon's reported tip is lower
// than the cache's stored tip by more than the cache's window, meaning the
// cache cannot be reconciled incrementally. The cache is left untouched;
// callers retry next tick (spec §4.2, §7).
var ErrDaemonRegressed = errors.New("blockcache: daemon tip regressed past cache window")

// ErrUnrecoverableReorg is returned when a reorg's mismatch point falls
// below the bottom of the cache window, meaning the cache cannot locate the
// chain's common ancestor within its retained history (spec §7).
var ErrUnrecoverableReorg = errors.New("blockcache: reorg exceeds cache window")
