// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package txpool

import "errors"

// ErrCryptoUnblind wraps a failure deriving or checking an output's
// one-time key during a mempool scan. Per spec §7 this is per-transaction:
// the offending transaction is skipped and scanning continues.
var ErrCryptoUnblind = errors.New("txpool: failed to check transaction outputs")
