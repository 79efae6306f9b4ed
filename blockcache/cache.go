// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package blockcache maintains a bounded, contiguous window of recent
// blocks and their transactions, detecting and repairing chain
// reorganisations as the daemon's tip advances (spec §4.2).
package blockcache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/moneroacceptor/gateway/rpcclient"
)

// DaemonClient is the subset of rpcclient.Client the block cache needs.
// Scanners wire a *rpcclient.Client in; tests wire a fake.
type DaemonClient interface {
	Height(ctx context.Context) (uint64, error)
	Block(ctx context.Context, height uint64) (rpcclient.Block, error)
	Transactions(ctx context.Context, hashes []rpcclient.Hash) ([]rpcclient.Transaction, error)
}

// Entry is one cached block: its header fields plus fully-decoded
// transactions.
type Entry struct {
	Height   uint64
	Hash     rpcclient.Hash
	PrevHash rpcclient.Hash
	Txs      []rpcclient.Transaction
}

// Cache holds the most recent Capacity blocks, keyed by height.
type Cache struct {
	client   DaemonClient
	capacity uint64

	mu          sync.RWMutex
	entries     map[uint64]Entry
	initialized bool

	height atomic.Uint64
}

// New builds a Cache that retains capacity blocks, fetched through client.
func New(client DaemonClient, capacity uint64) *Cache {
	if capacity == 0 {
		capacity = 1
	}
	return &Cache{
		client:   client,
		capacity: capacity,
		entries:  make(map[uint64]Entry, capacity),
	}
}

// Height returns the cache's observed chain tip, published atomically and
// safe to read without locking (spec §5's "atomic height" requirement).
func (c *Cache) Height() uint64 {
	return c.height.Load()
}

// Initialized reports whether Update has ever completed successfully. The
// scanner treats every cached block as freshly updated on the first
// successful tick (spec §4.5, scan_blocks: "if first_scan, treat every block
// as updated").
func (c *Cache) Initialized() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialized
}

// EntryAt returns the cached entry for height h, if present in the window.
func (c *Cache) EntryAt(h uint64) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[h]
	return e, ok
}

// Entries returns every cached entry, ascending by height.
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Height < out[j].Height })
	return out
}

func windowStart(tip, capacity uint64) uint64 {
	if tip+1 <= capacity {
		return 0
	}
	return tip + 1 - capacity
}

// Update reconciles the cache against the daemon's current tip, following
// the six-step algorithm in spec §4.2: no-op if the tip is unchanged,
// detect and repair reorgs by walking down from the new tip until an
// unchanged ancestor is found, and publish the new height atomically on
// success. It returns the number of heights whose contents changed.
func (c *Cache) Update(ctx context.Context) (uint32, error) {
	tip, err := c.client.Height(ctx)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.initialized {
		top, ok := c.entries[c.height.Load()]
		if ok && tip == top.Height {
			fresh, err := c.fetchEntry(ctx, tip)
			if err != nil {
				return 0, err
			}
			if fresh.Hash == top.Hash {
				return 0, nil
			}
		}
		if stored := c.height.Load(); stored > tip && stored-tip > c.capacity {
			return 0, ErrDaemonRegressed
		}
	}

	start := windowStart(tip, c.capacity)
	var changed uint32
	sawDivergence := false

	for h := tip; ; h-- {
		fresh, err := c.fetchEntry(ctx, h)
		if err != nil {
			return 0, err
		}

		existing, existed := c.entries[h]
		if c.initialized && existed && existing.Hash == fresh.Hash {
			// This height and everything below it (already validated on a
			// prior tick) is unchanged; the walk need not continue.
			break
		}
		if c.initialized && existed {
			sawDivergence = true
		}

		c.entries[h] = fresh
		changed++

		if h == start {
			if c.initialized && sawDivergence {
				return 0, fmt.Errorf("%w: no common ancestor within %d blocks of tip %d", ErrUnrecoverableReorg, c.capacity, tip)
			}
			break
		}
	}

	for h := range c.entries {
		if h < start {
			delete(c.entries, h)
		}
	}

	c.initialized = true
	c.height.Store(tip)
	return changed, nil
}

func (c *Cache) fetchEntry(ctx context.Context, h uint64) (Entry, error) {
	blk, err := c.client.Block(ctx, h)
	if err != nil {
		return Entry{}, err
	}
	txs, err := c.client.Transactions(ctx, blk.TxIDs)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Height:   blk.Header.Height,
		Hash:     blk.Header.Hash,
		PrevHash: blk.Header.PrevHash,
		Txs:      txs,
	}, nil
}
