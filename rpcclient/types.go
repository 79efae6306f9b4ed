// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package rpcclient

import (
	"encoding/hex"
	"fmt"

	"github.com/moneroacceptor/gateway/xmrcrypto"
)

// Hash is a 32-byte block or transaction identifier.
type Hash [32]byte

func (h Hash) String() string { return hex.EncodeToString(h[:]) }

// MarshalJSON encodes a Hash as the lowercase hex string the daemon expects.
func (h Hash) MarshalJSON() ([]byte, error) {
	return []byte(`"` + h.String() + `"`), nil
}

// UnmarshalJSON decodes a daemon hex-string hash.
func (h *Hash) UnmarshalJSON(b []byte) error {
	s, err := unquote(b)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	decoded, err := hex.DecodeString(s)
	if err != nil || len(decoded) != 32 {
		return fmt.Errorf("%w: invalid hash %q", ErrDecode, s)
	}
	copy(h[:], decoded)
	return nil
}

func unquote(b []byte) (string, error) {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return "", fmt.Errorf("not a JSON string: %s", b)
	}
	return string(b[1 : len(b)-1]), nil
}

// BlockHeader is the subset of the daemon's block header fields the scanner
// needs to maintain a contiguous, reorg-aware window.
type BlockHeader struct {
	Height    uint64
	Hash      Hash
	PrevHash  Hash
	Timestamp uint64
}

// Output is a single transaction output: its one-time public key, its
// position within the transaction's output list, and the amount needed to
// recover amount_piconero once ownership is established. Exactly one of
// PlainAmount (pre-RingCT transactions) or EncryptedAmount (RingCT, decoded
// via xmrcrypto.DecryptAmount once the owning SubIndex's shared secret is
// known) carries real data; RingCT distinguishes which.
type Output struct {
	Key             xmrcrypto.PublicKey
	Index           uint32
	PlainAmount     uint64
	EncryptedAmount [8]byte
	RingCT          bool
}

// Transaction is the decoded subset of a daemon transaction needed to scan
// for owned outputs: its public key (extracted from the tx_extra field) and
// its outputs.
type Transaction struct {
	Hash    Hash
	TxPub   xmrcrypto.PublicKey
	Outputs []Output
}

// Block is a header plus the hashes of the transactions it contains
// (including the miner transaction).
type Block struct {
	Header BlockHeader
	TxIDs  []Hash
}
