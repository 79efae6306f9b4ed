// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store defines the abstract invoice store contract (spec §4.6)
// and ships an in-memory, B-tree-backed implementation. Storage backends
// are pluggable: the scanner and gateway depend only on the InvoiceStore
// interface.
package store

import (
	"github.com/moneroacceptor/gateway/invoice"
)

// InvoiceStore is a keyed CRUD store with change-subscription semantics.
// Every operation may fail with ErrStorageError (wrapped); Insert may
// additionally fail with ErrDuplicateEntry.
type InvoiceStore interface {
	Insert(inv invoice.Invoice) error
	// Remove deletes the invoice with id, returning it if it was present.
	Remove(id invoice.ID) (invoice.Invoice, bool, error)
	// Update replaces the invoice with the same ID as inv, returning the
	// prior value. A no-op (returns false, nil) if absent.
	Update(inv invoice.Invoice) (invoice.Invoice, bool, error)
	Get(id invoice.ID) (invoice.Invoice, bool, error)
	// ContainsSubIndex reports whether any invoice, live or not, was ever
	// issued against idx — used by the allocator to avoid reissuing it.
	ContainsSubIndex(idx invoice.SubIndex) bool
	// Iter returns a point-in-time snapshot of every stored invoice.
	Iter() ([]invoice.Invoice, error)
	// Subscribe returns a cursor that receives every update written for id.
	Subscribe(id invoice.ID) (Subscriber, error)
	// SubscribeAll returns a cursor receiving every update matching filter,
	// a go-bexpr boolean expression evaluated against invoice fields
	// (e.g. "IsConfirmed == true"). An empty filter matches everything.
	SubscribeAll(filter string) (Subscriber, error)
	// LowestHeight returns the minimum CreationHeight across live
	// invoices. The scanner does not call it; the block cache's initial
	// window is anchored at the daemon's tip.
	LowestHeight() (uint64, bool, error)
	// Flush is a durability barrier; once it returns, all prior writes are
	// persisted for backends that buffer.
	Flush() error
}
