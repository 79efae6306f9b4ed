// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package rpcclient

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/moneroacceptor/gateway/xmrcrypto"
)

// txExtraPubkeyTag is TX_EXTRA_TAG_PUBKEY: the tx_extra field's first byte
// marks a field as "32 bytes of transaction public key follow".
const txExtraPubkeyTag = 0x01

// decodedJSON mirrors the subset of a monerod decode_as_json transaction
// structure this module needs: the tx_extra byte array, each output's
// one-time key, and (for RingCT transactions) the encrypted amount needed
// to recover amount_piconero once an output is recognised as owned.
type decodedJSON struct {
	Extra byteArray `json:"extra"`
	Vout  []struct {
		Amount uint64 `json:"amount"` // nonzero only in pre-RingCT transactions
		Target struct {
			Key    string `json:"key"`
			TagKey string `json:"tagged_key"` // present in view-tag-enabled tx formats
		} `json:"target"`
	} `json:"vout"`
	RctSignatures struct {
		EcdhInfo []struct {
			Amount string `json:"amount"` // 8 bytes, hex-encoded
		} `json:"ecdhInfo"`
	} `json:"rct_signatures"`
}

// byteArray decodes monerod's as_json representation of a byte vector,
// which is a JSON array of small integers (e.g. extra: [1, 34, 56, ...]),
// not the base64 string encoding/json assumes for a plain []byte field.
type byteArray []byte

func (b *byteArray) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return err
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		out[i] = byte(v)
	}
	*b = out
	return nil
}

// parseDecodedTransaction parses the JSON string the daemon returns in a
// get_transactions entry's as_json field.
func parseDecodedTransaction(txHashHex, asJSON string) (Transaction, error) {
	var hash Hash
	if err := hash.UnmarshalJSON([]byte(`"` + txHashHex + `"`)); err != nil {
		return Transaction{}, err
	}

	var decoded decodedJSON
	if err := json.Unmarshal([]byte(asJSON), &decoded); err != nil {
		return Transaction{}, fmt.Errorf("%w: decoding tx %s as_json: %w", ErrDecode, txHashHex, err)
	}

	txPub, err := extractTxPubKey(decoded.Extra)
	if err != nil {
		return Transaction{}, fmt.Errorf("%w: tx %s: %w", ErrDecode, txHashHex, err)
	}

	outputs := make([]Output, 0, len(decoded.Vout))
	for i, vout := range decoded.Vout {
		keyHex := vout.Target.Key
		if keyHex == "" {
			keyHex = vout.Target.TagKey
		}
		key, err := parsePublicKeyHex(keyHex)
		if err != nil {
			return Transaction{}, fmt.Errorf("%w: tx %s output %d: %w", ErrDecode, txHashHex, i, err)
		}

		out := Output{Key: key, Index: uint32(i), PlainAmount: vout.Amount}
		if vout.Amount == 0 && i < len(decoded.RctSignatures.EcdhInfo) {
			enc, err := hex.DecodeString(decoded.RctSignatures.EcdhInfo[i].Amount)
			if err == nil && len(enc) == 8 {
				copy(out.EncryptedAmount[:], enc)
				out.RingCT = true
			}
		}
		outputs = append(outputs, out)
	}

	return Transaction{Hash: hash, TxPub: txPub, Outputs: outputs}, nil
}

// extractTxPubKey scans a tx_extra byte sequence for TX_EXTRA_TAG_PUBKEY.
// Additional extra fields (payment ID, additional pubkeys for subaddress
// outputs) are ignored; a gateway that needs those should extend this
// function rather than add a second parser.
func extractTxPubKey(extra []byte) (xmrcrypto.PublicKey, error) {
	for i := 0; i < len(extra); {
		tag := extra[i]
		i++
		switch tag {
		case txExtraPubkeyTag:
			if i+32 > len(extra) {
				return xmrcrypto.PublicKey{}, fmt.Errorf("truncated tx_extra pubkey field")
			}
			var key xmrcrypto.PublicKey
			copy(key[:], extra[i:i+32])
			return key, nil
		case 0x00: // TX_EXTRA_TAG_PADDING, remainder of the field is padding
			return xmrcrypto.PublicKey{}, fmt.Errorf("tx_extra has no public key field")
		default:
			// Unknown/variable-length field (nonce, merge mining tag, ...):
			// the next byte is a length prefix for fields we don't parse.
			if i >= len(extra) {
				return xmrcrypto.PublicKey{}, fmt.Errorf("tx_extra ended mid-field")
			}
			fieldLen := int(extra[i])
			i += 1 + fieldLen
		}
	}
	return xmrcrypto.PublicKey{}, fmt.Errorf("tx_extra has no public key field")
}

func parsePublicKeyHex(s string) (xmrcrypto.PublicKey, error) {
	var key xmrcrypto.PublicKey
	decoded, err := hex.DecodeString(s)
	if err != nil || len(decoded) != 32 {
		return key, fmt.Errorf("invalid output key %q", s)
	}
	copy(key[:], decoded)
	return key, nil
}
