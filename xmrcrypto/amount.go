// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package xmrcrypto

import "encoding/binary"

// DecryptAmount recovers a RingCT output's piconero amount given the
// transaction's shared secret, the output's index, and the 8-byte
// little-endian encrypted amount from the transaction's ecdhInfo. This is
// ordinary view-key balance decoding, not a spend-key operation: it is how
// any view-only wallet reads its own incoming amounts.
func DecryptAmount(sharedSecret PublicKey, outputIndex uint32, encrypted [8]byte) uint64 {
	derivation := DerivationScalar(sharedSecret, outputIndex)
	mask := Keccak256([]byte("amount"), derivation.Bytes())

	var amountKey, amountCipher uint64
	amountKey = binary.LittleEndian.Uint64(mask[:8])
	amountCipher = binary.LittleEndian.Uint64(encrypted[:])
	return amountKey ^ amountCipher
}
