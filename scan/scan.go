// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scan applies a xmrcrypto.SubKeyChecker to a decoded transaction,
// bridging the RPC client's wire types and the crypto package's key-recovery
// primitives into the (SubIndex, Transfer) pairs the scanner folds into
// invoices. It exists as its own package because rpcclient depends on
// xmrcrypto for key types, so the reverse dependency xmrcrypto -> rpcclient
// would cycle; scan sits above both.
package scan

import (
	"fmt"

	"github.com/moneroacceptor/gateway/rpcclient"
	"github.com/moneroacceptor/gateway/xmrcrypto"
)

// Found is a single output recognised as belonging to a tracked subaddress.
type Found struct {
	Index       xmrcrypto.SubIndex
	Amount      uint64
	TxID        rpcclient.Hash
	OutputIndex uint32
}

// Transaction checks every output of tx against checker and returns the
// ones that belong to a tracked subaddress. A transaction with no
// transaction public key (malformed tx_extra) yields no matches rather than
// an error: per spec §7 (Crypto.Unblind), per-output/per-tx decode failures
// are skipped and logged by the caller, not propagated.
func Transaction(tx rpcclient.Transaction, checker *xmrcrypto.SubKeyChecker) ([]Found, error) {
	var zero xmrcrypto.PublicKey
	if tx.TxPub == zero {
		return nil, nil
	}

	shared, err := checker.SharedSecret(tx.TxPub)
	if err != nil {
		return nil, fmt.Errorf("scan: tx %s: %w", tx.Hash, err)
	}

	var found []Found
	for _, out := range tx.Outputs {
		idx, owned, err := checker.CheckOutput(out.Key, shared, out.Index)
		if err != nil {
			return nil, fmt.Errorf("scan: tx %s output %d: %w", tx.Hash, out.Index, err)
		}
		if !owned {
			continue
		}

		amount := out.PlainAmount
		if out.RingCT {
			amount = xmrcrypto.DecryptAmount(shared, out.Index, out.EncryptedAmount)
		}

		found = append(found, Found{Index: idx, Amount: amount, TxID: tx.Hash, OutputIndex: out.Index})
	}
	return found, nil
}
