// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build fastcache

package fastcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/moneroacceptor/gateway/invoice"
	"github.com/moneroacceptor/gateway/store"
)

func testID(major, minor uint32, height uint64) invoice.ID {
	return invoice.ID{Index: invoice.SubIndex{Major: major, Minor: minor}, CreationHeight: height}
}

func TestInsertGetRemove(t *testing.T) {
	s := New(1 << 20)

	id := testID(1, 2, 10)
	inv := invoice.New(id, 1000, 2, 100)
	require.NoError(t, s.Insert(inv))

	require.ErrorIs(t, s.Insert(inv), store.ErrDuplicateEntry)

	got, ok, err := s.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, inv.AmountRequested, got.AmountRequested)

	require.True(t, s.ContainsSubIndex(id.Index))

	removed, ok, err := s.Remove(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, inv.ID, removed.ID)

	_, ok, err = s.Get(id)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSubscribeReceivesUpdate(t *testing.T) {
	s := New(1 << 20)

	id := testID(3, 4, 5)
	inv := invoice.New(id, 500, 1, 50)
	require.NoError(t, s.Insert(inv))

	sub, err := s.Subscribe(id)
	require.NoError(t, err)

	updated := inv.Clone()
	updated.CurrentHeight = 6
	updated.Recompute()
	_, ok, err := s.Update(updated)
	require.NoError(t, err)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got, err := sub.Recv(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(6), got.CurrentHeight)
}

func TestIterAndLowestHeight(t *testing.T) {
	s := New(1 << 20)

	require.NoError(t, s.Insert(invoice.New(testID(1, 0, 10), 100, 1, 10)))
	require.NoError(t, s.Insert(invoice.New(testID(2, 0, 3), 100, 1, 10)))

	all, err := s.Iter()
	require.NoError(t, err)
	require.Len(t, all, 2)

	lowest, found, err := s.LowestHeight()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, uint64(3), lowest)
}

var _ store.InvoiceStore = (*Store)(nil)
