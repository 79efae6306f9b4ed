// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package txpool tracks the daemon's mempool: which transactions are
// currently pending, and which of their outputs have already been checked
// against tracked subaddresses, so a scanner tick never re-derives a key for
// a transaction it has already scanned (spec §4.3).
package txpool

import (
	"context"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/moneroacceptor/gateway/log"
	"github.com/moneroacceptor/gateway/rpcclient"
	"github.com/moneroacceptor/gateway/scan"
	"github.com/moneroacceptor/gateway/xmrcrypto"
)

// DaemonClient is the subset of rpcclient.Client the txpool cache needs.
type DaemonClient interface {
	TxpoolHashes(ctx context.Context) ([]rpcclient.Hash, error)
	Transactions(ctx context.Context, hashes []rpcclient.Hash) ([]rpcclient.Transaction, error)
}

// Cache mirrors the daemon's mempool and memoises scan results per
// transaction hash.
type Cache struct {
	client DaemonClient
	log    log.Logger

	hashes       mapset.Set[rpcclient.Hash]
	transactions map[rpcclient.Hash]rpcclient.Transaction
	discovered   map[rpcclient.Hash][]scan.Found
}

// New builds an empty txpool cache.
func New(client DaemonClient, logger log.Logger) *Cache {
	if logger == nil {
		logger = log.Root()
	}
	return &Cache{
		client:       client,
		log:          logger,
		hashes:       mapset.NewThreadUnsafeSet[rpcclient.Hash](),
		transactions: make(map[rpcclient.Hash]rpcclient.Transaction),
		discovered:   make(map[rpcclient.Hash][]scan.Found),
	}
}

// Update refreshes the mempool view against the daemon, scans every newly
// arrived transaction against checker, and returns every currently-tracked
// owned output across the whole mempool (both freshly scanned and
// memoised from a previous tick), as spec §4.3's scan_txpool requires.
func (c *Cache) Update(ctx context.Context, checker *xmrcrypto.SubKeyChecker) ([]scan.Found, error) {
	newHashes, err := c.client.TxpoolHashes(ctx)
	if err != nil {
		return nil, err
	}
	fresh := mapset.NewThreadUnsafeSet[rpcclient.Hash](newHashes...)

	added := fresh.Difference(c.hashes)
	removed := c.hashes.Difference(fresh)

	removed.Each(func(h rpcclient.Hash) bool {
		delete(c.transactions, h)
		delete(c.discovered, h)
		return false
	})

	if added.Cardinality() > 0 {
		addedHashes := added.ToSlice()
		txs, err := c.client.Transactions(ctx, addedHashes)
		if err != nil {
			return nil, err
		}
		for _, tx := range txs {
			c.transactions[tx.Hash] = tx
			found, err := scan.Transaction(tx, checker)
			if err != nil {
				// Crypto.Unblind (spec §7): skip this transaction, keep
				// scanning the rest of the mempool.
				c.log.Warn("skipping mempool transaction", "txid", tx.Hash, "err", err)
				continue
			}
			c.discovered[tx.Hash] = found
		}
	}

	c.hashes = fresh

	var out []scan.Found
	for h := range c.discovered {
		if !c.hashes.Contains(h) {
			continue
		}
		out = append(out, c.discovered[h]...)
	}
	return out, nil
}

// Len reports how many transactions are currently tracked as pending.
func (c *Cache) Len() int {
	return c.hashes.Cardinality()
}
