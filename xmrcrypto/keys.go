// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package xmrcrypto

import (
	"encoding/binary"
	"errors"
	"fmt"

	"filippo.io/edwards25519"
)

// PrivateKey is a little-endian-encoded Ed25519 scalar: a view key or a
// per-output derivation scalar.
type PrivateKey [32]byte

// PublicKey is a compressed Ed25519 point: a spend key, a transaction
// public key, or a derived one-time output key.
type PublicKey [32]byte

var errInvalidPoint = errors.New("xmrcrypto: invalid curve point")
var errInvalidScalar = errors.New("xmrcrypto: invalid scalar")

func (k PrivateKey) scalar() (*edwards25519.Scalar, error) {
	s, err := edwards25519.NewScalar().SetCanonicalBytes(k[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidScalar, err)
	}
	return s, nil
}

func (k PublicKey) point() (*edwards25519.Point, error) {
	p, err := edwards25519.NewIdentityPoint().SetBytes(k[:])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidPoint, err)
	}
	return p, nil
}

func publicKeyFromPoint(p *edwards25519.Point) PublicKey {
	var out PublicKey
	copy(out[:], p.Bytes())
	return out
}

// hashToScalar reduces Keccak256(data...), zero-extended to 64 bytes, modulo
// the Ed25519 group order l. This is the same integer reduction Monero's
// sc_reduce32 performs on a 32-byte hash, expressed through the wide-reduce
// entry point the edwards25519 package exposes.
func hashToScalar(data ...[]byte) *edwards25519.Scalar {
	h := Keccak256(data...)
	var wide [64]byte
	copy(wide[:32], h[:])
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	if err != nil {
		// SetUniformBytes only fails on a wrong-length input; wide is fixed
		// at 64 bytes, so this can never happen.
		panic(err)
	}
	return s
}

// varint encodes x as a Monero-style unsigned LEB128 varint.
func varint(x uint64) []byte {
	var out []byte
	for {
		b := byte(x & 0x7f)
		x >>= 7
		if x != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if x == 0 {
			return out
		}
	}
}

// SharedSecret computes the Diffie-Hellman shared secret 8*a*R used to
// derive one-time keys, where a is the account's private view key and R is
// the transaction public key. The factor of 8 clears the curve's cofactor,
// matching Monero's derivation formula.
func SharedSecret(viewKey PrivateKey, txPubKey PublicKey) (PublicKey, error) {
	a, err := viewKey.scalar()
	if err != nil {
		return PublicKey{}, err
	}
	r, err := txPubKey.point()
	if err != nil {
		return PublicKey{}, err
	}

	shared := edwards25519.NewIdentityPoint().ScalarMult(a, r)
	shared = edwards25519.NewIdentityPoint().MultByCofactor(shared)
	return publicKeyFromPoint(shared), nil
}

// DerivationScalar computes Hs(sharedSecret || outputIndex), the per-output
// scalar used both to derive a candidate one-time key and to recover the
// subaddress spend-key offset.
func DerivationScalar(sharedSecret PublicKey, outputIndex uint32) *edwards25519.Scalar {
	return hashToScalar(sharedSecret[:], varint(uint64(outputIndex)))
}

// SubaddressSpendKey computes the public spend key for sub-index (major,
// minor) given the account's primary spend key and private view key. For
// the primary address (0, 0) this is simply spendPub unchanged.
func SubaddressSpendKey(spendPub PublicKey, viewKey PrivateKey, major, minor uint32) (PublicKey, error) {
	if major == 0 && minor == 0 {
		return spendPub, nil
	}

	a, err := viewKey.scalar()
	if err != nil {
		return PublicKey{}, err
	}
	b, err := spendPub.point()
	if err != nil {
		return PublicKey{}, err
	}

	var idx [8]byte
	binary.LittleEndian.PutUint32(idx[0:4], major)
	binary.LittleEndian.PutUint32(idx[4:8], minor)
	m := hashToScalar([]byte("SubAddr\x00"), a.Bytes(), idx[:])

	offset := edwards25519.NewIdentityPoint().ScalarBaseMult(m)
	sub := edwards25519.NewIdentityPoint().Add(b, offset)
	return publicKeyFromPoint(sub), nil
}

// RecoverSpendKeyCandidate computes outputKey - DerivationScalar(sharedSecret,
// outputIndex)*G. If the output belongs to one of the checker's tracked
// subaddresses, the result equals that subaddress's spend public key.
func RecoverSpendKeyCandidate(outputKey PublicKey, sharedSecret PublicKey, outputIndex uint32) (PublicKey, error) {
	p, err := outputKey.point()
	if err != nil {
		return PublicKey{}, err
	}

	d := DerivationScalar(sharedSecret, outputIndex)
	dG := edwards25519.NewIdentityPoint().ScalarBaseMult(d)

	negDG := edwards25519.NewIdentityPoint().Negate(dG)
	candidate := edwards25519.NewIdentityPoint().Add(p, negDG)
	return publicKeyFromPoint(candidate), nil
}
