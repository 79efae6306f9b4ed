// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package scanner

import (
	"github.com/moneroacceptor/gateway/invoice"
)

// foldEntry is one recognized output, ready to be matched against invoices
// by sub-index (spec §4.5 step 3, "Combine into transfers: Vec<(SubIndex,
// Transfer)>").
type foldEntry struct {
	Index    invoice.SubIndex
	Transfer invoice.Transfer
}

// deepestUpdate resolves spec §4.5 step 4: the lowest height scan_blocks
// re-examined this tick, or currentHeight+1 if block_cache.update was a
// no-op. It is the lowest block-cache update, not the lowest transfer
// height — a reorg that removes a payment with no replacement output still
// must invalidate that height, even though it yields no transfer of its
// own this tick.
func deepestUpdate(lowestUpdatedHeight *uint64, currentHeight uint64) uint64 {
	if lowestUpdatedHeight == nil {
		return currentHeight + 1
	}
	return *lowestUpdatedHeight
}

// foldInvoice applies spec §4.5 step 5 to a single invoice: drop stale
// transfers, append newly observed ones for this invoice's sub-index, set
// the current height, and recompute derived state. It mutates a copy and
// returns it; the caller decides whether the result differs from the input
// and is worth writing back.
func foldInvoice(inv invoice.Invoice, entries []foldEntry, deepest, height uint64) invoice.Invoice {
	out := inv.Clone()
	out.RetainOlderThan(deepest)

	var fresh []invoice.Transfer
	for _, e := range entries {
		if e.Index != out.Index {
			continue
		}
		if !e.Transfer.NewerThan(out.CreationHeight) {
			continue
		}
		fresh = append(fresh, e.Transfer)
	}
	out.AddTransfers(fresh...)

	out.CurrentHeight = height
	out.Recompute()
	return out
}
