// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/moneroacceptor/gateway/invoice"
)

func TestInsertGetRemove(t *testing.T) {
	s := NewMemStore()
	id := invoice.ID{Index: invoice.SubIndex{Major: 1, Minor: 1}, CreationHeight: 10}
	inv := invoice.New(id, 100, 1, 10)

	require.NoError(t, s.Insert(inv))
	require.ErrorIs(t, s.Insert(inv), ErrDuplicateEntry)

	got, ok, err := s.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, inv.AmountRequested, got.AmountRequested)

	require.True(t, s.ContainsSubIndex(id.Index))
	require.False(t, s.ContainsSubIndex(invoice.SubIndex{Major: 9, Minor: 9}))

	removed, ok, err := s.Remove(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, id, removed.ID)

	_, ok, err = s.Get(id)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSubscribeReceivesUpdate(t *testing.T) {
	s := NewMemStore()
	id := invoice.ID{Index: invoice.SubIndex{Major: 1, Minor: 1}, CreationHeight: 0}
	inv := invoice.New(id, 100, 1, 10)
	require.NoError(t, s.Insert(inv))

	sub, err := s.Subscribe(id)
	require.NoError(t, err)

	inv.CurrentHeight = 5
	inv.Recompute()
	_, _, err = s.Update(inv)
	require.NoError(t, err)

	got, err := sub.RecvTimeout(time.Second)
	require.NoError(t, err)
	require.Equal(t, uint64(5), got.CurrentHeight)
}

func TestSubscribeAllWithFilter(t *testing.T) {
	s := NewMemStore()
	sub, err := s.SubscribeAll("IsConfirmed == true")
	require.NoError(t, err)

	unconfirmed := invoice.New(invoice.ID{Index: invoice.SubIndex{Major: 1, Minor: 1}}, 100, 1, 10)
	require.NoError(t, s.Insert(unconfirmed))

	_, ok := sub.Poll()
	require.False(t, ok, "non-matching insert must not be delivered")

	confirmedID := invoice.ID{Index: invoice.SubIndex{Major: 1, Minor: 2}}
	confirmed := invoice.New(confirmedID, 100, 1, 10)
	confirmed.AddTransfers(invoice.Transfer{AmountPiconero: 100, Height: heightPtr(1), TxID: invoice.Hash{1}})
	confirmed.CurrentHeight = 1
	confirmed.Recompute()
	require.NoError(t, s.Insert(confirmed))

	got, err := sub.RecvTimeout(time.Second)
	require.NoError(t, err)
	require.True(t, got.IsConfirmed)
}

func TestRangeForSubIndex(t *testing.T) {
	s := NewMemStore()
	idx := invoice.SubIndex{Major: 1, Minor: 97}
	for h := uint64(1); h <= 3; h++ {
		id := invoice.ID{Index: idx, CreationHeight: h}
		require.NoError(t, s.Insert(invoice.New(id, 1, 1, 10)))
	}
	other := invoice.ID{Index: invoice.SubIndex{Major: 1, Minor: 98}, CreationHeight: 1}
	require.NoError(t, s.Insert(invoice.New(other, 1, 1, 10)))

	got := s.RangeForSubIndex(idx)
	require.Len(t, got, 3)
}

func TestSubscriberClosedOnRemove(t *testing.T) {
	s := NewMemStore()
	id := invoice.ID{Index: invoice.SubIndex{Major: 1, Minor: 1}}
	require.NoError(t, s.Insert(invoice.New(id, 1, 1, 10)))

	sub, err := s.Subscribe(id)
	require.NoError(t, err)

	_, _, err = s.Remove(id)
	require.NoError(t, err)

	_, err = sub.Recv(context.Background())
	require.ErrorIs(t, err, ErrSubscriberClosed)
}

func heightPtr(h uint64) *uint64 { return &h }
