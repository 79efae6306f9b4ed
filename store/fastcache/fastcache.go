// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build fastcache

// Package fastcache is a second InvoiceStore implementation, backed by
// github.com/VictoriaMetrics/fastcache's process-local byte-oriented cache
// instead of the default package store's B-tree. It demonstrates the
// abstract InvoiceStore contract (spec §4.6) is not tied to one storage
// shape; an operator who wants a bounded-memory, GC-pressure-free cache in
// front of a slower durable tier can swap this in without touching the
// scanner or gateway.
//
// fastcache has no key-enumeration API, so this package keeps a small
// in-memory index (live IDs plus the sub-index membership set) alongside
// the byte cache purely to support Iter, RangeForSubIndex, LowestHeight,
// and ContainsSubIndex; the invoice payloads themselves always live in the
// fastcache instance, never duplicated in the index.
package fastcache

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sync"

	fc "github.com/VictoriaMetrics/fastcache"
	"github.com/hashicorp/go-bexpr"

	"github.com/moneroacceptor/gateway/invoice"
	"github.com/moneroacceptor/gateway/store"
)

// Store is a fastcache-backed store.InvoiceStore.
type Store struct {
	cache *fc.Cache

	mu      sync.RWMutex
	live    map[invoice.ID]struct{}
	subSeen map[invoice.SubIndex]struct{}

	idSubs  map[invoice.ID][]*subscriber
	allSubs []*allSubscription
}

type allSubscription struct {
	sub    *subscriber
	filter *bexpr.Evaluator
}

// New builds a Store backed by a fastcache instance sized to maxBytes.
func New(maxBytes int) *Store {
	return &Store{
		cache:   fc.New(maxBytes),
		live:    make(map[invoice.ID]struct{}),
		subSeen: make(map[invoice.SubIndex]struct{}),
		idSubs:  make(map[invoice.ID][]*subscriber),
	}
}

// encodeKey produces fastcache's lookup key for id: Major, Minor,
// CreationHeight, each fixed-width big-endian, preserving the (Index,
// CreationHeight) lexicographic order the package store's B-tree gives for
// free, in case a future iteration wants ordered enumeration over the raw
// cache rather than the side index.
func encodeKey(id invoice.ID) []byte {
	var buf [16]byte
	binary.BigEndian.PutUint32(buf[0:4], id.Index.Major)
	binary.BigEndian.PutUint32(buf[4:8], id.Index.Minor)
	binary.BigEndian.PutUint64(buf[8:16], id.CreationHeight)
	return buf[:]
}

func (s *Store) getLocked(id invoice.ID) (invoice.Invoice, bool) {
	raw, ok := s.cache.HasGet(nil, encodeKey(id))
	if !ok {
		return invoice.Invoice{}, false
	}
	var inv invoice.Invoice
	if err := json.Unmarshal(raw, &inv); err != nil {
		return invoice.Invoice{}, false
	}
	return inv, true
}

func (s *Store) setLocked(inv invoice.Invoice) error {
	raw, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("%w: encoding invoice: %w", store.ErrStorageError, err)
	}
	s.cache.Set(encodeKey(inv.ID), raw)
	return nil
}

// Insert implements store.InvoiceStore.
func (s *Store) Insert(inv invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.live[inv.ID]; ok {
		return store.ErrDuplicateEntry
	}
	if err := s.setLocked(inv); err != nil {
		return err
	}
	s.live[inv.ID] = struct{}{}
	s.subSeen[inv.Index] = struct{}{}
	s.publishLocked(inv)
	return nil
}

// Remove implements store.InvoiceStore.
func (s *Store) Remove(id invoice.ID) (invoice.Invoice, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.getLocked(id)
	if !ok {
		return invoice.Invoice{}, false, nil
	}
	s.cache.Del(encodeKey(id))
	delete(s.live, id)
	for _, sub := range s.idSubs[id] {
		sub.Close()
	}
	delete(s.idSubs, id)
	return old, true, nil
}

// Update implements store.InvoiceStore.
func (s *Store) Update(inv invoice.Invoice) (invoice.Invoice, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, existed := s.getLocked(inv.ID)
	if !existed {
		return invoice.Invoice{}, false, nil
	}
	if err := s.setLocked(inv); err != nil {
		return invoice.Invoice{}, false, err
	}
	s.publishLocked(inv)
	return old, true, nil
}

// Get implements store.InvoiceStore.
func (s *Store) Get(id invoice.ID) (invoice.Invoice, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.getLocked(id)
	return inv, ok, nil
}

// ContainsSubIndex implements store.InvoiceStore.
func (s *Store) ContainsSubIndex(idx invoice.SubIndex) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.subSeen[idx]
	return ok
}

// Iter implements store.InvoiceStore.
func (s *Store) Iter() ([]invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]invoice.Invoice, 0, len(s.live))
	for id := range s.live {
		if inv, ok := s.getLocked(id); ok {
			out = append(out, inv)
		}
	}
	return out, nil
}

// RangeForSubIndex returns every invoice issued against idx.
func (s *Store) RangeForSubIndex(idx invoice.SubIndex) []invoice.Invoice {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []invoice.Invoice
	for id := range s.live {
		if id.Index != idx {
			continue
		}
		if inv, ok := s.getLocked(id); ok {
			out = append(out, inv)
		}
	}
	return out
}

// Subscribe implements store.InvoiceStore.
func (s *Store) Subscribe(id invoice.ID) (store.Subscriber, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub := newSubscriber()
	s.idSubs[id] = append(s.idSubs[id], sub)
	return sub, nil
}

// SubscribeAll implements store.InvoiceStore.
func (s *Store) SubscribeAll(filter string) (store.Subscriber, error) {
	var eval *bexpr.Evaluator
	if filter != "" {
		var err error
		eval, err = bexpr.CreateEvaluator(filter)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid filter: %w", store.ErrStorageError, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub := newSubscriber()
	s.allSubs = append(s.allSubs, &allSubscription{sub: sub, filter: eval})
	return sub, nil
}

// LowestHeight implements store.InvoiceStore.
func (s *Store) LowestHeight() (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var lowest uint64
	found := false
	for id := range s.live {
		if !found || id.CreationHeight < lowest {
			lowest = id.CreationHeight
			found = true
		}
	}
	return lowest, found, nil
}

// Flush implements store.InvoiceStore. fastcache has no durable tier of its
// own; this is a no-op barrier, matching the package store's MemStore.
func (s *Store) Flush() error { return nil }

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

func (s *Store) publishLocked(inv invoice.Invoice) {
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
