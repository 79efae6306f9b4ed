// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package subaddress deterministically allocates unused (major, minor)
// subaddress indices from the view-key-seeded permutation described in
// spec §4.4: given the same seed and the same sequence of allocation
// calls, it always issues the same indices.
package subaddress

import (
	"encoding/binary"

	"golang.org/x/crypto/chacha20"

	"github.com/moneroacceptor/gateway/invoice"
	"github.com/moneroacceptor/gateway/xmrcrypto"
)

// maxAttempts bounds how many candidates Next will draw before giving up,
// per spec §4.4's "bounded retry (>= 2^20 attempts)".
const maxAttempts = 1 << 20

// Store is the subset of the invoice store the allocator needs to avoid
// reissuing a sub-index.
type Store interface {
	ContainsSubIndex(idx invoice.SubIndex) bool
}

// Allocator draws major/minor pairs from a ChaCha20 keystream seeded from
// the account's view key and an optional user seed, skipping major index 0
// (reserved for the primary address).
type Allocator struct {
	cipher *chacha20.Cipher
}

// New builds an Allocator. seed lets an operator reproduce the same
// allocation sequence across a fresh gateway instance backed by the same
// view key (e.g. after a disaster-recovery restore from a mnemonic).
func New(viewKey [32]byte, seed uint64) (*Allocator, error) {
	var seedBytes [8]byte
	binary.LittleEndian.PutUint64(seedBytes[:], seed)
	key := xmrcrypto.Keccak256(viewKey[:], seedBytes[:])

	var nonce [chacha20.NonceSize]byte
	cipher, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, err
	}
	return &Allocator{cipher: cipher}, nil
}

// draw reads the next (major, minor) candidate from the keystream.
func (a *Allocator) draw() (uint32, uint32) {
	var buf [8]byte
	a.cipher.XORKeyStream(buf[:], buf[:])
	major := binary.LittleEndian.Uint32(buf[0:4])
	minor := binary.LittleEndian.Uint32(buf[4:8])
	return major, minor
}

// Next allocates the next unused sub-index not already present in store,
// excluding every (0, *) index (major 0 is reserved for the primary
// address). Returns ErrAddressSpaceExhausted if no unused index is found
// within the retry budget.
func (a *Allocator) Next(store Store) (invoice.SubIndex, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		major, minor := a.draw()
		if major == 0 {
			continue
		}
		idx := invoice.SubIndex{Major: major, Minor: minor}
		if !store.ContainsSubIndex(idx) {
			return idx, nil
		}
	}
	return invoice.SubIndex{}, ErrAddressSpaceExhausted
}
