// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package scanner

import (
	"context"
	"testing"

	"filippo.io/edwards25519"
	"github.com/stretchr/testify/require"

	"github.com/moneroacceptor/gateway/blockcache"
	"github.com/moneroacceptor/gateway/invoice"
	"github.com/moneroacceptor/gateway/rpcclient"
	"github.com/moneroacceptor/gateway/store"
	"github.com/moneroacceptor/gateway/txpool"
	"github.com/moneroacceptor/gateway/xmrcrypto"
)

func scalarBytes(t *testing.T, seed byte) xmrcrypto.PrivateKey {
	t.Helper()
	h := xmrcrypto.Keccak256([]byte{seed})
	var wide [64]byte
	copy(wide[:32], h[:])
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	require.NoError(t, err)
	var out xmrcrypto.PrivateKey
	copy(out[:], s.Bytes())
	return out
}

func pointFromScalar(t *testing.T, s xmrcrypto.PrivateKey) xmrcrypto.PublicKey {
	t.Helper()
	sc, err := edwards25519.NewScalar().SetCanonicalBytes(s[:])
	require.NoError(t, err)
	p := edwards25519.NewIdentityPoint().ScalarBaseMult(sc)
	var out xmrcrypto.PublicKey
	copy(out[:], p.Bytes())
	return out
}

// buildOwnedOutput constructs an output key that the checker will recognize
// as belonging to spendPub/viewKey's sub-index idx, given shared secret and
// output index.
func buildOwnedOutput(t *testing.T, spendPub xmrcrypto.PublicKey, viewKey xmrcrypto.PrivateKey, major, minor uint32, shared xmrcrypto.PublicKey, outputIndex uint32) xmrcrypto.PublicKey {
	t.Helper()
	subPub, err := xmrcrypto.SubaddressSpendKey(spendPub, viewKey, major, minor)
	require.NoError(t, err)

	d := xmrcrypto.DerivationScalar(shared, outputIndex)
	subPoint, err := edwards25519.NewIdentityPoint().SetBytes(subPub[:])
	require.NoError(t, err)
	dG := edwards25519.NewIdentityPoint().ScalarBaseMult(d)
	oneTime := edwards25519.NewIdentityPoint().Add(subPoint, dG)

	var out xmrcrypto.PublicKey
	copy(out[:], oneTime.Bytes())
	return out
}

func hashByte(b byte) rpcclient.Hash {
	var h rpcclient.Hash
	h[0] = b
	return h
}

// fakeDaemon implements both blockcache.DaemonClient and txpool.DaemonClient
// over an in-memory fixture.
type fakeDaemon struct {
	tip         uint64
	blockTxIDs  map[uint64][]rpcclient.Hash
	txs         map[rpcclient.Hash]rpcclient.Transaction
	poolHashes  []rpcclient.Hash
}

func (f *fakeDaemon) Height(ctx context.Context) (uint64, error) { return f.tip, nil }

func (f *fakeDaemon) Block(ctx context.Context, height uint64) (rpcclient.Block, error) {
	return rpcclient.Block{
		Header: rpcclient.BlockHeader{
			Height:   height,
			Hash:     hashByte(byte(height)),
			PrevHash: hashByte(byte(height - 1)),
		},
		TxIDs: f.blockTxIDs[height],
	}, nil
}

func (f *fakeDaemon) Transactions(ctx context.Context, hashes []rpcclient.Hash) ([]rpcclient.Transaction, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	out := make([]rpcclient.Transaction, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, f.txs[h])
	}
	return out, nil
}

func (f *fakeDaemon) TxpoolHashes(ctx context.Context) ([]rpcclient.Hash, error) {
	return f.poolHashes, nil
}

func TestTickFoldsConfirmedBlockPayment(t *testing.T) {
	viewKey := scalarBytes(t, 1)
	spendKey := scalarBytes(t, 2)
	spendPub := pointFromScalar(t, spendKey)

	txPrivKey := scalarBytes(t, 3)
	txPub := pointFromScalar(t, txPrivKey)
	shared, err := xmrcrypto.SharedSecret(viewKey, txPub)
	require.NoError(t, err)

	outputKey := buildOwnedOutput(t, spendPub, viewKey, 0, 0, shared, 0)
	txHash := hashByte(50)

	daemon := &fakeDaemon{
		tip:        100,
		blockTxIDs: map[uint64][]rpcclient.Hash{100: {txHash}},
		txs: map[rpcclient.Hash]rpcclient.Transaction{
			txHash: {
				Hash:  txHash,
				TxPub: txPub,
				Outputs: []rpcclient.Output{
					{Key: outputKey, Index: 0, PlainAmount: 5000},
				},
			},
		},
	}

	blocks := blockcache.New(daemon, 10)
	pool := txpool.New(daemon, nil)
	st := store.NewMemStore()

	id := invoice.ID{Index: invoice.SubIndex{Major: 0, Minor: 0}, CreationHeight: 0}
	require.NoError(t, st.Insert(invoice.New(id, 5000, 1, 1000)))

	sc := New(blocks, pool, st, spendPub, viewKey, nil, nil)
	require.NoError(t, sc.Tick(context.Background()))

	got, ok, err := st.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(5000), got.AmountPaid)
	require.NotNil(t, got.PaidAtHeight)
	require.Equal(t, uint64(100), *got.PaidAtHeight)
	require.True(t, got.IsConfirmed)
}

func TestTickFoldsTxpoolPayment(t *testing.T) {
	viewKey := scalarBytes(t, 10)
	spendKey := scalarBytes(t, 11)
	spendPub := pointFromScalar(t, spendKey)

	txPrivKey := scalarBytes(t, 12)
	txPub := pointFromScalar(t, txPrivKey)
	shared, err := xmrcrypto.SharedSecret(viewKey, txPub)
	require.NoError(t, err)

	outputKey := buildOwnedOutput(t, spendPub, viewKey, 0, 0, shared, 0)
	txHash := hashByte(60)

	daemon := &fakeDaemon{
		tip:        5,
		poolHashes: []rpcclient.Hash{txHash},
		txs: map[rpcclient.Hash]rpcclient.Transaction{
			txHash: {
				Hash:  txHash,
				TxPub: txPub,
				Outputs: []rpcclient.Output{
					{Key: outputKey, Index: 0, PlainAmount: 3000},
				},
			},
		},
	}

	blocks := blockcache.New(daemon, 10)
	pool := txpool.New(daemon, nil)
	st := store.NewMemStore()

	id := invoice.ID{Index: invoice.SubIndex{Major: 0, Minor: 0}, CreationHeight: 0}
	require.NoError(t, st.Insert(invoice.New(id, 5000, 1, 1000)))

	sc := New(blocks, pool, st, spendPub, viewKey, nil, nil)
	require.NoError(t, sc.Tick(context.Background()))

	got, ok, err := st.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(3000), got.AmountPaid)
	require.Nil(t, got.PaidAtHeight, "mempool-only payment has no confirmed height yet")
	require.False(t, got.IsConfirmed)
}

func TestTickAdvancesHeightOfUnpaidInvoice(t *testing.T) {
	viewKey := scalarBytes(t, 20)
	spendPub := pointFromScalar(t, scalarBytes(t, 21))

	daemon := &fakeDaemon{tip: 1}
	blocks := blockcache.New(daemon, 10)
	pool := txpool.New(daemon, nil)
	st := store.NewMemStore()

	id := invoice.ID{Index: invoice.SubIndex{Major: 0, Minor: 0}, CreationHeight: 0}
	require.NoError(t, st.Insert(invoice.New(id, 5000, 1, 1000)))

	sc := New(blocks, pool, st, spendPub, viewKey, nil, nil)
	require.NoError(t, sc.Tick(context.Background()))

	got, ok, err := st.Get(id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, got.AmountPaid)
	require.Equal(t, uint64(1), got.CurrentHeight)
}
