// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package xmrcrypto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRoundTrip(t *testing.T) {
	spendPub := pointFromScalar(t, scalarBytes(t, 1))
	viewPub := pointFromScalar(t, scalarBytes(t, 2))

	addr := EncodeAddress(0x12, spendPub, viewPub)
	require.NotEmpty(t, addr)

	decoded, err := DecodeAddress(addr)
	require.NoError(t, err)
	require.Equal(t, byte(0x12), decoded.NetworkByte)
	require.Equal(t, spendPub, decoded.SpendPub)
	require.Equal(t, viewPub, decoded.ViewPub)
}

func TestDecodeAddressRejectsCorruptChecksum(t *testing.T) {
	spendPub := pointFromScalar(t, scalarBytes(t, 3))
	viewPub := pointFromScalar(t, scalarBytes(t, 4))
	addr := EncodeAddress(0x12, spendPub, viewPub)

	corrupt := []byte(addr)
	if corrupt[0] == '1' {
		corrupt[0] = '2'
	} else {
		corrupt[0] = '1'
	}

	_, err := DecodeAddress(string(corrupt))
	require.Error(t, err)
}

func TestDecodeAddressRejectsWrongLength(t *testing.T) {
	_, err := DecodeAddress("short")
	require.Error(t, err)
}
