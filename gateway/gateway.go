// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gateway is the facade spec §4.8 describes: it owns the scanner,
// invoice store, subaddress allocator, and tick loop, and exposes the small
// public surface a payment-accepting caller needs (new_invoice,
// remove_invoice, get_invoice, subscribe_all).
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/moneroacceptor/gateway/blockcache"
	"github.com/moneroacceptor/gateway/invoice"
	"github.com/moneroacceptor/gateway/log"
	"github.com/moneroacceptor/gateway/metrics"
	"github.com/moneroacceptor/gateway/scanner"
	"github.com/moneroacceptor/gateway/store"
	"github.com/moneroacceptor/gateway/subaddress"
)

// defaultTickInterval matches spec §4.8's default of one second between
// reconcile ticks.
const defaultTickInterval = time.Second

// Gateway holds every long-lived component of the payment-acceptance
// engine and drives its tick loop.
type Gateway struct {
	scanner   *scanner.Scanner
	store     store.InvoiceStore
	allocator *subaddress.Allocator

	tickInterval time.Duration
	log          log.Logger
	metrics      *metrics.Registry

	mu      sync.Mutex
	running bool
	wg      sync.WaitGroup
	loopErr error
}

// New builds a Gateway. tickInterval <= 0 falls back to the spec default of
// one second.
func New(sc *scanner.Scanner, st store.InvoiceStore, alloc *subaddress.Allocator, tickInterval time.Duration, reg *metrics.Registry, logger log.Logger) *Gateway {
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	if logger == nil {
		logger = log.Root()
	}
	if reg == nil {
		reg = metrics.New("xmracceptord")
	}
	return &Gateway{
		scanner:      sc,
		store:        st,
		allocator:    alloc,
		tickInterval: tickInterval,
		log:          logger,
		metrics:      reg,
	}
}

// Height returns the scanner's current chain tip.
func (g *Gateway) Height() uint64 {
	return g.scanner.Height()
}

// Run performs one synchronous tick, then spawns the background tick loop.
// A fatal error from that first tick is returned and no loop is started; a
// transient one is logged and the loop starts anyway. The loop runs until
// ctx is cancelled or a fatal error halts it; inspect Wait's return value
// to find out which.
func (g *Gateway) Run(ctx context.Context) error {
	g.mu.Lock()
	if g.running {
		g.mu.Unlock()
		return ErrAlreadyRunning
	}
	g.running = true
	g.mu.Unlock()

	if err := g.tick(ctx); err != nil && !isTransient(err) {
		g.mu.Lock()
		g.running = false
		g.mu.Unlock()
		return fmt.Errorf("gateway: initial tick failed: %w", err)
	}

	g.wg.Add(1)
	go g.loop(ctx)
	return nil
}

// Wait blocks until the tick loop exits (ctx cancellation or a fatal
// error) and returns whatever error halted it, or nil on clean shutdown.
func (g *Gateway) Wait() error {
	g.wg.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loopErr
}

func (g *Gateway) loop(ctx context.Context) {
	defer g.wg.Done()
	ticker := time.NewTicker(g.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := g.tick(ctx); err != nil && !isTransient(err) {
				g.log.Crit("fatal scanner error, halting tick loop", "err", err)
				g.mu.Lock()
				g.loopErr = err
				g.running = false
				g.mu.Unlock()
				return
			}
		}
	}
}

func (g *Gateway) tick(ctx context.Context) error {
	start := time.Now()
	err := g.scanner.Tick(ctx)
	g.metrics.TickDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		g.log.Warn("tick did not complete", "err", err)
	}
	return err
}

// isTransient reports whether err is the kind of failure a tick is retried
// after (daemon unreachability, a skipped tick, a daemon that has regressed
// past the cache window) as opposed to one that halts the gateway (an
// unrecoverable reorg).
func isTransient(err error) bool {
	return !errors.Is(err, blockcache.ErrUnrecoverableReorg)
}

// NewInvoice allocates a fresh sub-index, creates a pending invoice anchored
// at the scanner's current height, inserts it, and returns a subscriber for
// it (spec §4.8).
func (g *Gateway) NewInvoice(amountRequested uint64, confirmationsRequired uint32, timeoutBlocks uint64) (invoice.Invoice, store.Subscriber, error) {
	idx, err := g.allocator.Next(g.store)
	if err != nil {
		return invoice.Invoice{}, nil, fmt.Errorf("gateway: allocating sub-index: %w", err)
	}

	id := invoice.ID{Index: idx, CreationHeight: g.scanner.Height()}
	inv := invoice.New(id, amountRequested, confirmationsRequired, timeoutBlocks)

	if err := g.store.Insert(inv); err != nil {
		return invoice.Invoice{}, nil, fmt.Errorf("gateway: inserting invoice: %w", err)
	}
	sub, err := g.store.Subscribe(id)
	if err != nil {
		return invoice.Invoice{}, nil, fmt.Errorf("gateway: subscribing to invoice: %w", err)
	}
	return inv, sub, nil
}

// RemoveInvoice is a thin passthrough to the store (spec §4.8). The
// gateway never calls this on its own behalf — see DESIGN.md's
// removal-on-confirmation decision.
func (g *Gateway) RemoveInvoice(id invoice.ID) (invoice.Invoice, bool, error) {
	return g.store.Remove(id)
}

// GetInvoice is a thin passthrough to the store.
func (g *Gateway) GetInvoice(id invoice.ID) (invoice.Invoice, bool, error) {
	return g.store.Get(id)
}

// Subscribe is a thin passthrough to the store.
func (g *Gateway) Subscribe(id invoice.ID) (store.Subscriber, error) {
	return g.store.Subscribe(id)
}

// SubscribeAll is a thin passthrough to the store.
func (g *Gateway) SubscribeAll(filter string) (store.Subscriber, error) {
	return g.store.SubscribeAll(filter)
}
