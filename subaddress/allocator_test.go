// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package subaddress

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moneroacceptor/gateway/invoice"
)

type fakeStore struct {
	used map[invoice.SubIndex]bool
}

func newFakeStore() *fakeStore { return &fakeStore{used: make(map[invoice.SubIndex]bool)} }

func (s *fakeStore) ContainsSubIndex(idx invoice.SubIndex) bool { return s.used[idx] }

func (s *fakeStore) mark(idx invoice.SubIndex) { s.used[idx] = true }

func TestAllocatorDeterministicForFixedSeed(t *testing.T) {
	var viewKey [32]byte
	viewKey[0] = 7

	a1, err := New(viewKey, 1)
	require.NoError(t, err)
	a2, err := New(viewKey, 1)
	require.NoError(t, err)

	store1, store2 := newFakeStore(), newFakeStore()

	for i := 0; i < 5; i++ {
		idx1, err := a1.Next(store1)
		require.NoError(t, err)
		store1.mark(idx1)

		idx2, err := a2.Next(store2)
		require.NoError(t, err)
		store2.mark(idx2)

		require.Equal(t, idx1, idx2)
	}
}

func TestAllocatorNeverIssuesMajorZero(t *testing.T) {
	var viewKey [32]byte
	a, err := New(viewKey, 42)
	require.NoError(t, err)
	store := newFakeStore()

	for i := 0; i < 50; i++ {
		idx, err := a.Next(store)
		require.NoError(t, err)
		require.NotZero(t, idx.Major)
		store.mark(idx)
	}
}

func TestAllocatorSkipsAlreadyUsedIndices(t *testing.T) {
	var viewKey [32]byte
	viewKey[0] = 9
	a, err := New(viewKey, 5)
	require.NoError(t, err)
	store := newFakeStore()

	first, err := a.Next(store)
	require.NoError(t, err)
	store.mark(first)

	a2, err := New(viewKey, 5)
	require.NoError(t, err)
	store2 := newFakeStore()
	store2.mark(first) // pre-occupy the index the unconstrained run would draw first

	second, err := a2.Next(store2)
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestMnemonicRoundTrip(t *testing.T) {
	const seed = uint64(0xDEADBEEFCAFEF00D)
	words, err := MnemonicFromSeed(seed)
	require.NoError(t, err)
	require.NotEmpty(t, words)

	got, err := SeedFromMnemonic(words)
	require.NoError(t, err)
	require.Equal(t, seed, got)
}
