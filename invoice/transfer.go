// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package invoice

// Transfer is a single output recognized as belonging to one of the
// gateway's tracked subaddresses.
type Transfer struct {
	AmountPiconero uint64
	// Height is nil while the transfer is only seen in the mempool.
	Height            *uint64
	TxID              Hash
	OutputIndexInTx   uint32
}

// transferKey identifies a transfer for deduplication purposes, per spec
// §3: two transfers are the same iff (txid, output_index) match.
type transferKey struct {
	txID        Hash
	outputIndex uint32
}

func (t Transfer) key() transferKey {
	return transferKey{txID: t.TxID, outputIndex: t.OutputIndexInTx}
}

// InMempool reports whether the transfer has not yet been included in a
// block.
func (t Transfer) InMempool() bool {
	return t.Height == nil
}

// OlderThan reports whether the transfer is confirmed at a height strictly
// below h. A mempool transfer is never older than any height.
func (t Transfer) OlderThan(h uint64) bool {
	return t.Height != nil && *t.Height < h
}

// NewerThan reports whether the transfer is confirmed at or above h, or is
// still unconfirmed (and therefore logically newer than any past height).
func (t Transfer) NewerThan(h uint64) bool {
	return t.Height == nil || *t.Height >= h
}

// WithHeight returns a copy of the transfer confirmed at height h.
func (t Transfer) WithHeight(h uint64) Transfer {
	t.Height = &h
	return t
}

// dedupeTransfers removes transfers with a duplicate (txid, output_index)
// key, keeping the first occurrence encountered.
func dedupeTransfers(in []Transfer) []Transfer {
	seen := make(map[transferKey]struct{}, len(in))
	out := make([]Transfer, 0, len(in))
	for _, t := range in {
		k := t.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t)
	}
	return out
}
