// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"encoding/binary"
	"fmt"
	"hash"
	"hash/fnv"
	"sync"

	"github.com/google/btree"
	"github.com/hashicorp/go-bexpr"
	"github.com/holiman/bloomfilter/v2"

	"github.com/moneroacceptor/gateway/invoice"
)

// bloomEstimatedIndices sizes the sub-index membership filter; it is a
// soft cap on expected subaddresses per gateway lifetime, not a hard limit
// (the authoritative btree is always consulted on a positive match).
const bloomEstimatedIndices = 1 << 20

// MemStore is an in-memory InvoiceStore backed by a B-tree ordered on
// invoice.ID, giving the (idx,0)..(idx+1,0) range scan named in spec §3 a
// single AscendRange call.
type MemStore struct {
	mu   sync.RWMutex
	tree *btree.BTreeG[invoice.Invoice]

	subIndexSeen *bloomfilter.Filter
	subIndexSet  map[invoice.SubIndex]struct{}

	idSubs  map[invoice.ID][]*channelSubscriber
	allSubs []*allSubscription
}

type allSubscription struct {
	sub    *channelSubscriber
	filter *bexpr.Evaluator
}

// NewMemStore builds an empty store.
func NewMemStore() *MemStore {
	bloom, err := bloomfilter.New(bloomEstimatedIndices, 7)
	if err != nil {
		// Fixed, valid construction parameters; cannot fail in practice.
		panic(fmt.Sprintf("store: building bloom filter: %v", err))
	}

	return &MemStore{
		tree:         btree.NewG(32, func(a, b invoice.Invoice) bool { return a.ID.Less(b.ID) }),
		subIndexSeen: bloom,
		subIndexSet:  make(map[invoice.SubIndex]struct{}),
		idSubs:       make(map[invoice.ID][]*channelSubscriber),
	}
}

// subIndexHash returns a fresh hash.Hash64 over idx's bytes, suitable for
// bloomfilter.Filter.Add/Contains, which derive their k bit positions from
// the hasher's Sum64 rather than expecting a raw uint64.
func subIndexHash(idx invoice.SubIndex) hash.Hash64 {
	h := fnv.New64a()
	var buf [8]byte
	binary.LittleEndian.PutUint32(buf[0:4], idx.Major)
	binary.LittleEndian.PutUint32(buf[4:8], idx.Minor)
	_, _ = h.Write(buf[:])
	return h
}

// Insert implements InvoiceStore.
func (s *MemStore) Insert(inv invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tree.Get(inv); ok {
		return ErrDuplicateEntry
	}
	s.tree.ReplaceOrInsert(inv)
	s.subIndexSeen.Add(subIndexHash(inv.Index))
	s.subIndexSet[inv.Index] = struct{}{}
	s.publishLocked(inv)
	return nil
}

// Remove implements InvoiceStore.
func (s *MemStore) Remove(id invoice.ID) (invoice.Invoice, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.tree.Delete(invoice.Invoice{ID: id})
	if !ok {
		return invoice.Invoice{}, false, nil
	}
	for _, sub := range s.idSubs[id] {
		sub.Close()
	}
	delete(s.idSubs, id)
	return old, true, nil
}

// Update implements InvoiceStore.
func (s *MemStore) Update(inv invoice.Invoice) (invoice.Invoice, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, existed := s.tree.Get(invoice.Invoice{ID: inv.ID})
	if !existed {
		return invoice.Invoice{}, false, nil
	}
	s.tree.ReplaceOrInsert(inv)
	s.publishLocked(inv)
	return old, true, nil
}

// Get implements InvoiceStore.
func (s *MemStore) Get(id invoice.ID) (invoice.Invoice, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.tree.Get(invoice.Invoice{ID: id})
	return inv, ok, nil
}

// ContainsSubIndex implements InvoiceStore.
func (s *MemStore) ContainsSubIndex(idx invoice.SubIndex) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.subIndexSeen.Contains(subIndexHash(idx)) {
		return false
	}
	_, ok := s.subIndexSet[idx]
	return ok
}

// Iter implements InvoiceStore, returning a consistent point-in-time
// snapshot.
func (s *MemStore) Iter() ([]invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]invoice.Invoice, 0, s.tree.Len())
	s.tree.Ascend(func(inv invoice.Invoice) bool {
		out = append(out, inv)
		return true
	})
	return out, nil
}

// RangeForSubIndex returns every invoice issued against idx, using the
// (idx,0)..(idx+1,0) range scan named in spec §3.
func (s *MemStore) RangeForSubIndex(idx invoice.SubIndex) []invoice.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := invoice.Invoice{ID: invoice.RangeStart(idx)}
	end := invoice.Invoice{ID: invoice.RangeEnd(idx)}

	var out []invoice.Invoice
	s.tree.AscendRange(start, end, func(inv invoice.Invoice) bool {
		out = append(out, inv)
		return true
	})
	return out
}

// Subscribe implements InvoiceStore.
func (s *MemStore) Subscribe(id invoice.ID) (Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := newChannelSubscriber()
	s.idSubs[id] = append(s.idSubs[id], sub)
	return sub, nil
}

// SubscribeAll implements InvoiceStore.
func (s *MemStore) SubscribeAll(filter string) (Subscriber, error) {
	var eval *bexpr.Evaluator
	if filter != "" {
		var err error
		eval, err = bexpr.CreateEvaluator(filter)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid filter: %w", ErrStorageError, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub := newChannelSubscriber()
	s.allSubs = append(s.allSubs, &allSubscription{sub: sub, filter: eval})
	return sub, nil
}

// LowestHeight implements InvoiceStore.
func (s *MemStore) LowestHeight() (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lowest uint64
	found := false
	s.tree.Ascend(func(inv invoice.Invoice) bool {
		if !found || inv.CreationHeight < lowest {
			lowest = inv.CreationHeight
			found = true
		}
		return true
	})
	return lowest, found, nil
}

// Flush implements InvoiceStore. In-memory storage has nothing to
// durably persist, so this is a no-op barrier.
func (s *MemStore) Flush() error { return nil }

// filterView is the shape go-bexpr evaluates a SubscribeAll filter
// expression against, e.g. "IsConfirmed == true" or "Major == 1".
type filterView struct {
	Major                 uint32 `bexpr:"Major"`
	Minor                 uint32 `bexpr:"Minor"`
	AmountRequested       uint64 `bexpr:"AmountRequested"`
	AmountPaid            uint64 `bexpr:"AmountPaid"`
	ConfirmationsRequired uint32 `bexpr:"ConfirmationsRequired"`
	IsConfirmed           bool   `bexpr:"IsConfirmed"`
	IsExpired             bool   `bexpr:"IsExpired"`
}

func toFilterView(inv invoice.Invoice) filterView {
	return filterView{
		Major:                 inv.Index.Major,
		Minor:                 inv.Index.Minor,
		AmountRequested:       inv.AmountRequested,
		AmountPaid:            inv.AmountPaid,
		ConfirmationsRequired: inv.ConfirmationsRequired,
		IsConfirmed:           inv.IsConfirmed,
		IsExpired:             inv.IsExpired,
	}
}

// publishLocked delivers inv to every matching subscriber. Must be called
// with s.mu held for writing.
func (s *MemStore) publishLocked(inv invoice.Invoice) {
	for _, sub := range s.idSubs[inv.ID] {
		sub.publish(inv.Clone())
	}
	for _, as := range s.allSubs {
		if as.filter != nil {
			matched, err := as.filter.Evaluate(toFilterView(inv))
			if err != nil || !matched {
				continue
			}
		}
		as.sub.publish(inv.Clone())
	}
}
