// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package xmrcrypto implements the view-key-only cryptography needed to
// recognise outputs belonging to a tracked subaddress: Keccak-256 hashing,
// Edwards25519 scalar/point arithmetic, one-time-key derivation, and
// subaddress spend-key derivation.
package xmrcrypto

import "golang.org/x/crypto/sha3"

// Keccak256 is Monero's hash function. It is the pre-NIST-finalization
// Keccak, not SHA3-256, hence NewLegacyKeccak256 rather than New256.
func Keccak256(data ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
