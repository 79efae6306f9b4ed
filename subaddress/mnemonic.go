// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package subaddress

import (
	"encoding/binary"
	"fmt"

	"github.com/tyler-smith/go-bip39"
)

// MnemonicFromSeed encodes an allocator seed as a BIP-39 mnemonic so an
// operator can write it down instead of a bare 64-bit integer. The seed is
// zero-extended to 128 bits of entropy (bip39's minimum valid size),
// yielding a 12-word phrase.
func MnemonicFromSeed(seed uint64) (string, error) {
	var entropy [16]byte
	binary.LittleEndian.PutUint64(entropy[:8], seed)
	words, err := bip39.NewMnemonic(entropy[:])
	if err != nil {
		return "", fmt.Errorf("subaddress: encoding mnemonic: %w", err)
	}
	return words, nil
}

// SeedFromMnemonic recovers the allocator seed encoded by MnemonicFromSeed.
func SeedFromMnemonic(words string) (uint64, error) {
	if !bip39.IsMnemonicValid(words) {
		return 0, fmt.Errorf("subaddress: invalid mnemonic")
	}
	entropy, err := bip39.EntropyFromMnemonic(words)
	if err != nil {
		return 0, fmt.Errorf("subaddress: decoding mnemonic: %w", err)
	}
	if len(entropy) < 8 {
		return 0, fmt.Errorf("subaddress: mnemonic entropy too short")
	}
	return binary.LittleEndian.Uint64(entropy[:8]), nil
}
