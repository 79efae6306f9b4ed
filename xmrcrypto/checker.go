// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package xmrcrypto

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// SubIndex identifies a subaddress by (major, minor). Defined again here
// (rather than imported from package invoice) to keep xmrcrypto free of a
// dependency on the invoice data model; callers convert at the boundary.
type SubIndex struct {
	Major uint32
	Minor uint32
}

// candidateCacheSize bounds the per-process memoisation of recovered
// candidate keys; it only needs to cover one tick's worth of outputs, not
// the whole chain, so a few tens of thousands of entries is generous.
const candidateCacheSize = 65536

// SubKeyChecker maps one-time-key candidate commitments (spend-key offsets)
// to the tracked SubIndex that produced them, so recognising an output costs
// one map lookup instead of one derivation per tracked subaddress.
type SubKeyChecker struct {
	viewKey    PrivateKey
	bySpendKey map[PublicKey]SubIndex
	cache      *candidateCache
}

// candidateCache memoises RecoverSpendKeyCandidate for the lifetime of one
// SubKeyChecker, which the scanner rebuilds every tick: a tx appearing in
// the txpool and in a block during the same tick would otherwise redo the
// same scalar multiplication for no new information.
type candidateCache = lru.Cache[candidateCacheKey, PublicKey]

type candidateCacheKey struct {
	sharedSecret PublicKey
	outputKey    PublicKey
	outputIndex  uint32
}

// NewSubKeyChecker builds a checker for spendPub/viewKey valid for the given
// sub-indices. It is rebuilt once per scanner tick (spec §4.5) from whatever
// sub-indices the invoice store currently holds.
func NewSubKeyChecker(spendPub PublicKey, viewKey PrivateKey, indices []SubIndex) (*SubKeyChecker, error) {
	bySpendKey := make(map[PublicKey]SubIndex, len(indices))
	for _, idx := range indices {
		key, err := SubaddressSpendKey(spendPub, viewKey, idx.Major, idx.Minor)
		if err != nil {
			return nil, err
		}
		bySpendKey[key] = idx
	}

	cache, err := lru.New[candidateCacheKey, PublicKey](candidateCacheSize)
	if err != nil {
		return nil, err
	}

	return &SubKeyChecker{viewKey: viewKey, bySpendKey: bySpendKey, cache: cache}, nil
}

// SharedSecret computes this account's Diffie-Hellman shared secret for a
// transaction with public key txPub, using the checker's view key.
func (c *SubKeyChecker) SharedSecret(txPub PublicKey) (PublicKey, error) {
	return SharedSecret(c.viewKey, txPub)
}

// CheckOutput reports which tracked SubIndex, if any, owns outputKey given
// the transaction's shared secret and the output's position within the
// transaction.
func (c *SubKeyChecker) CheckOutput(outputKey, sharedSecret PublicKey, outputIndex uint32) (SubIndex, bool, error) {
	cacheKey := candidateCacheKey{sharedSecret: sharedSecret, outputKey: outputKey, outputIndex: outputIndex}

	candidate, ok := c.cache.Get(cacheKey)
	if !ok {
		var err error
		candidate, err = RecoverSpendKeyCandidate(outputKey, sharedSecret, outputIndex)
		if err != nil {
			return SubIndex{}, false, err
		}
		c.cache.Add(cacheKey, candidate)
	}

	idx, found := c.bySpendKey[candidate]
	return idx, found, nil
}

// Len reports how many sub-indices this checker was built for.
func (c *SubKeyChecker) Len() int {
	return len(c.bySpendKey)
}
