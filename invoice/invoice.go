// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package invoice

import "sort"

// Invoice tracks a single request for payment to a subaddress. Every field
// except Transfers is either fixed at creation or written by the scanner;
// the amount/confirmation/expiry fields are never stored — they are always
// recomputed from Transfers by Recompute.
type Invoice struct {
	ID                     ID
	Index                  SubIndex
	AmountRequested        uint64
	ConfirmationsRequired  uint32
	ExpirationHeight       uint64
	CreationHeight         uint64
	CurrentHeight          uint64
	Transfers              []Transfer

	// Derived fields, recomputed by Recompute after every mutation of
	// Transfers or CurrentHeight. Exported so callers (and the wire
	// encoding used by Subscriber) can read them without recomputing.
	AmountPaid   uint64
	PaidAtHeight *uint64
	Confirmations *uint32
	IsConfirmed  bool
	IsExpired    bool
}

// New creates a pending invoice with no transfers.
func New(id ID, amountRequested uint64, confirmationsRequired uint32, timeoutBlocks uint64) Invoice {
	inv := Invoice{
		ID:                    id,
		Index:                 id.Index,
		AmountRequested:       amountRequested,
		ConfirmationsRequired: confirmationsRequired,
		CreationHeight:        id.CreationHeight,
		CurrentHeight:         id.CreationHeight,
		ExpirationHeight:      id.CreationHeight + timeoutBlocks,
	}
	inv.Recompute()
	return inv
}

// Clone returns a deep copy, so the scanner can mutate a working copy
// without aliasing a value a subscriber or the store still holds (§9,
// "no aliased mutable references").
func (inv Invoice) Clone() Invoice {
	out := inv
	out.Transfers = append([]Transfer(nil), inv.Transfers...)
	if inv.PaidAtHeight != nil {
		h := *inv.PaidAtHeight
		out.PaidAtHeight = &h
	}
	if inv.Confirmations != nil {
		c := *inv.Confirmations
		out.Confirmations = &c
	}
	return out
}

// AddTransfers appends new transfers, deduplicating by (txid, output index)
// against what is already present.
func (inv *Invoice) AddTransfers(ts ...Transfer) {
	inv.Transfers = dedupeTransfers(append(inv.Transfers, ts...))
}

// RetainOlderThan drops any transfer that is not confirmed at a height
// strictly below h — the scanner calls this with deepest_update before
// folding in the tick's fresh transfers, so stale or reorged-away
// observations don't survive (spec §4.5 step 5a).
func (inv *Invoice) RetainOlderThan(h uint64) {
	kept := inv.Transfers[:0]
	for _, t := range inv.Transfers {
		if t.OlderThan(h) {
			kept = append(kept, t)
		}
	}
	inv.Transfers = kept
}

// Recompute derives AmountPaid, PaidAtHeight, Confirmations, IsConfirmed,
// and IsExpired from Transfers and CurrentHeight (spec §3).
func (inv *Invoice) Recompute() {
	var amountPaid uint64
	for _, t := range inv.Transfers {
		amountPaid += t.AmountPiconero
	}
	inv.AmountPaid = amountPaid

	inv.PaidAtHeight = paidAtHeight(inv.Transfers, inv.AmountRequested)

	mempoolFree := true
	for _, t := range inv.Transfers {
		if t.InMempool() {
			mempoolFree = false
			break
		}
	}

	inv.Confirmations = nil
	if inv.PaidAtHeight != nil && mempoolFree {
		confs := inv.CurrentHeight - *inv.PaidAtHeight + 1
		c := uint32(confs)
		if confs > uint64(^uint32(0)) {
			c = ^uint32(0)
		}
		inv.Confirmations = &c
	}

	inv.IsConfirmed = inv.Confirmations != nil && *inv.Confirmations >= inv.ConfirmationsRequired
	inv.IsExpired = inv.CurrentHeight >= inv.ExpirationHeight && !inv.IsConfirmed
}

// paidAtHeight finds the height at which cumulative transfer amounts first
// reached amountRequested, walking transfers ordered by height ascending
// with mempool transfers (height == nil) sorted last. If the threshold is
// first crossed by a mempool transfer, the result is nil: there is no
// confirmed height to measure confirmations from yet.
func paidAtHeight(transfers []Transfer, amountRequested uint64) *uint64 {
	ordered := append([]Transfer(nil), transfers...)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i].Height, ordered[j].Height
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})

	var sum uint64
	for _, t := range ordered {
		sum += t.AmountPiconero
		if sum >= amountRequested {
			return t.Height
		}
	}
	return nil
}
