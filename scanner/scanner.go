// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package scanner runs the per-tick reconcile loop (spec §4.5): scan the
// block cache and the txpool cache concurrently, fold the transfers they
// surface into every tracked invoice, and write back whatever changed.
package scanner

import (
	"context"
	"fmt"
	"reflect"

	"golang.org/x/sync/errgroup"

	"github.com/moneroacceptor/gateway/blockcache"
	"github.com/moneroacceptor/gateway/invoice"
	"github.com/moneroacceptor/gateway/log"
	"github.com/moneroacceptor/gateway/metrics"
	"github.com/moneroacceptor/gateway/scan"
	"github.com/moneroacceptor/gateway/store"
	"github.com/moneroacceptor/gateway/txpool"
	"github.com/moneroacceptor/gateway/xmrcrypto"
)

// Scanner owns the block cache, txpool cache, and invoice store, and drives
// one reconcile tick at a time. It holds no network connection of its own —
// blocks and pool already wrap whatever rpcclient.Client they need.
type Scanner struct {
	blocks *blockcache.Cache
	pool   *txpool.Cache
	store  store.InvoiceStore

	spendPub xmrcrypto.PublicKey
	viewKey  xmrcrypto.PrivateKey

	log     log.Logger
	metrics *metrics.Registry
}

// New builds a Scanner. spendPub/viewKey identify the account whose
// subaddresses are tracked; the store determines which sub-indices are
// currently of interest.
func New(blocks *blockcache.Cache, pool *txpool.Cache, st store.InvoiceStore, spendPub xmrcrypto.PublicKey, viewKey xmrcrypto.PrivateKey, reg *metrics.Registry, logger log.Logger) *Scanner {
	if logger == nil {
		logger = log.Root()
	}
	if reg == nil {
		reg = metrics.New("xmracceptord")
	}
	return &Scanner{
		blocks:   blocks,
		pool:     pool,
		store:    st,
		spendPub: spendPub,
		viewKey:  viewKey,
		log:      logger,
		metrics:  reg,
	}
}

// Height returns the block cache's last observed chain tip.
func (s *Scanner) Height() uint64 {
	return s.blocks.Height()
}

// Tick runs one full reconcile cycle: precompute the key checker, scan
// blocks and the mempool concurrently, fold the results into every tracked
// invoice, and flush the store. A scan failure skips the whole tick — no
// invoice is written back — per spec §4.5's failure semantics.
func (s *Scanner) Tick(ctx context.Context) error {
	invoices, err := s.store.Iter()
	if err != nil {
		s.metrics.TicksSkippedTotal.WithLabelValues("store_iter").Inc()
		return fmt.Errorf("scanner: listing invoices: %w", err)
	}

	checker, err := s.buildChecker(invoices)
	if err != nil {
		s.metrics.TicksSkippedTotal.WithLabelValues("checker_build").Inc()
		return fmt.Errorf("scanner: building key checker: %w", err)
	}

	var blockEntries, poolEntries []foldEntry
	var lowestUpdated *uint64
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		blockEntries, lowestUpdated, err = s.scanBlocks(gctx, checker)
		return err
	})
	g.Go(func() error {
		var err error
		poolEntries, err = s.scanTxpool(gctx, checker)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.TicksSkippedTotal.WithLabelValues("scan_failed").Inc()
		return fmt.Errorf("%w: %w", ErrTickSkipped, err)
	}

	height := s.blocks.Height()
	entries := append(blockEntries, poolEntries...)
	deepest := deepestUpdate(lowestUpdated, height)

	for _, before := range invoices {
		after := foldInvoice(before, entries, deepest, height)
		if reflect.DeepEqual(before, after) {
			continue
		}

		if added := len(after.Transfers) - len(before.Transfers); added > 0 {
			s.metrics.TransfersFolded.Add(float64(added))
		}
		if _, _, err := s.store.Update(after); err != nil {
			// Per spec §4.5: a single failed invoice write is logged and
			// retried next tick, it never aborts the tick.
			s.metrics.StorageErrorsTotal.WithLabelValues("update").Inc()
			s.log.Error("failed to write back invoice", "id", after.ID, "err", err)
			continue
		}
	}

	if err := s.store.Flush(); err != nil {
		s.metrics.StorageErrorsTotal.WithLabelValues("flush").Inc()
		s.log.Error("failed to flush store", "err", err)
	}

	s.metrics.TicksTotal.Inc()
	s.metrics.InvoicesTracked.Set(float64(len(invoices)))
	return nil
}

// buildChecker precomputes the one-time-key lookup table for every
// sub-index currently tracked by the store (spec §4.5 opening paragraph).
func (s *Scanner) buildChecker(invoices []invoice.Invoice) (*xmrcrypto.SubKeyChecker, error) {
	seen := make(map[invoice.SubIndex]struct{}, len(invoices))
	indices := make([]xmrcrypto.SubIndex, 0, len(invoices))
	for _, inv := range invoices {
		if _, ok := seen[inv.Index]; ok {
			continue
		}
		seen[inv.Index] = struct{}{}
		indices = append(indices, toCryptoSubIndex(inv.Index))
	}
	return xmrcrypto.NewSubKeyChecker(s.spendPub, s.viewKey, indices)
}

// scanBlocks implements spec §4.5's scan_blocks: update the block cache,
// then scan every block whose contents changed this tick (or, on the first
// successful tick, every cached block) for owned outputs.
func (s *Scanner) scanBlocks(ctx context.Context, checker *xmrcrypto.SubKeyChecker) ([]foldEntry, *uint64, error) {
	firstScan := !s.blocks.Initialized()

	changed, err := s.blocks.Update(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("scan_blocks: %w", err)
	}

	var heights []uint64
	if firstScan {
		for _, e := range s.blocks.Entries() {
			heights = append(heights, e.Height)
		}
	} else if changed > 0 {
		top := s.blocks.Height()
		start := top - uint64(changed) + 1
		for h := start; h <= top; h++ {
			heights = append(heights, h)
		}
	}

	var lowest *uint64
	if len(heights) > 0 {
		h := heights[0]
		lowest = &h
	}

	var out []foldEntry
	for _, h := range heights {
		entry, ok := s.blocks.EntryAt(h)
		if !ok {
			continue
		}
		s.metrics.BlocksScannedTotal.Inc()
		for _, tx := range entry.Txs {
			found, err := scan.Transaction(tx, checker)
			if err != nil {
				s.log.Warn("skipping block transaction", "height", h, "txid", tx.Hash, "err", err)
				continue
			}
			height := entry.Height
			for _, f := range found {
				out = append(out, foldEntry{
					Index: toInvoiceSubIndex(f.Index),
					Transfer: invoice.Transfer{
						AmountPiconero:  f.Amount,
						Height:          &height,
						TxID:            toInvoiceHash(f.TxID),
						OutputIndexInTx: f.OutputIndex,
					},
				})
			}
		}
	}
	return out, lowest, nil
}

// scanTxpool implements spec §4.5's scan_txpool: update the mempool cache
// and return every currently-pending owned output as an unconfirmed
// transfer (height = nil).
func (s *Scanner) scanTxpool(ctx context.Context, checker *xmrcrypto.SubKeyChecker) ([]foldEntry, error) {
	found, err := s.pool.Update(ctx, checker)
	if err != nil {
		return nil, fmt.Errorf("scan_txpool: %w", err)
	}

	out := make([]foldEntry, 0, len(found))
	for _, f := range found {
		out = append(out, foldEntry{
			Index: toInvoiceSubIndex(f.Index),
			Transfer: invoice.Transfer{
				AmountPiconero:  f.Amount,
				Height:          nil,
				TxID:            toInvoiceHash(f.TxID),
				OutputIndexInTx: f.OutputIndex,
			},
		})
	}
	s.metrics.TxpoolTransactionsTotal.Add(float64(len(found)))
	return out, nil
}
