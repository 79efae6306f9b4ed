// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"filippo.io/edwards25519"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/goleak"

	"github.com/moneroacceptor/gateway/blockcache"
	"github.com/moneroacceptor/gateway/rpcclient"
	"github.com/moneroacceptor/gateway/scanner"
	"github.com/moneroacceptor/gateway/store"
	"github.com/moneroacceptor/gateway/subaddress"
	"github.com/moneroacceptor/gateway/txpool"
	"github.com/moneroacceptor/gateway/xmrcrypto"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestGatewayEndToEnd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "gateway end-to-end")
}

// fakeDaemon backs both the block cache and the txpool cache with a chain
// an individual test can grow, fund, and reorganize block by block.
type fakeDaemon struct {
	tip      uint64
	txids    map[uint64][]rpcclient.Hash
	versions map[uint64]byte

	txs        map[rpcclient.Hash]rpcclient.Transaction
	poolHashes []rpcclient.Hash
}

func newFakeDaemon() *fakeDaemon {
	return &fakeDaemon{
		txids:    map[uint64][]rpcclient.Hash{},
		versions: map[uint64]byte{},
		txs:      map[rpcclient.Hash]rpcclient.Transaction{},
	}
}

func (f *fakeDaemon) hashFor(height uint64) rpcclient.Hash {
	var h rpcclient.Hash
	binary.LittleEndian.PutUint64(h[0:8], height)
	h[8] = f.versions[height]
	return h
}

// advanceTip grows the chain to newTip, leaving any already-defined block
// contents untouched and filling new heights with empty blocks.
func (f *fakeDaemon) advanceTip(newTip uint64) {
	f.tip = newTip
}

// fundBlock sets the transactions present at height, registering them in
// the tx table so Transactions(ctx, ...) can resolve them.
func (f *fakeDaemon) fundBlock(height uint64, txs ...rpcclient.Transaction) {
	hashes := make([]rpcclient.Hash, 0, len(txs))
	for _, tx := range txs {
		f.txs[tx.Hash] = tx
		hashes = append(hashes, tx.Hash)
	}
	f.txids[height] = hashes
}

// reorgFrom rewrites height's contents and bumps its hash along with every
// height up to the current tip, mimicking how changing one block cascades
// its hash through every descendant in a real hash-chained blockchain.
func (f *fakeDaemon) reorgFrom(height uint64, txs ...rpcclient.Transaction) {
	f.fundBlock(height, txs...)
	for h := height; h <= f.tip; h++ {
		f.versions[h]++
	}
}

func (f *fakeDaemon) setMempool(txs ...rpcclient.Transaction) {
	f.poolHashes = f.poolHashes[:0]
	for _, tx := range txs {
		f.txs[tx.Hash] = tx
		f.poolHashes = append(f.poolHashes, tx.Hash)
	}
}

func (f *fakeDaemon) Height(ctx context.Context) (uint64, error) { return f.tip, nil }

func (f *fakeDaemon) Block(ctx context.Context, height uint64) (rpcclient.Block, error) {
	var prev rpcclient.Hash
	if height > 0 {
		prev = f.hashFor(height - 1)
	}
	return rpcclient.Block{
		Header: rpcclient.BlockHeader{Height: height, Hash: f.hashFor(height), PrevHash: prev},
		TxIDs:  f.txids[height],
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

func scalarBytes(seed byte) xmrcrypto.PrivateKey {
	h := xmrcrypto.Keccak256([]byte{seed})
	var wide [64]byte
	copy(wide[:32], h[:])
	s, err := edwards25519.NewScalar().SetUniformBytes(wide[:])
	Expect(err).NotTo(HaveOccurred())
	var out xmrcrypto.PrivateKey
	copy(out[:], s.Bytes())
	return out
}

func pointFromScalar(s xmrcrypto.PrivateKey) xmrcrypto.PublicKey {
	sc, err := edwards25519.NewScalar().SetCanonicalBytes(s[:])
	Expect(err).NotTo(HaveOccurred())
	p := edwards25519.NewIdentityPoint().ScalarBaseMult(sc)
	var out xmrcrypto.PublicKey
	copy(out[:], p.Bytes())
	return out
}

// buildPayment constructs a single-output transaction paying sub-index
// (major, minor) amount piconero, with a fresh one-time transaction key.
func buildPayment(spendPub xmrcrypto.PublicKey, viewKey xmrcrypto.PrivateKey, major, minor uint32, amount uint64, txSeed byte) rpcclient.Transaction {
	txPriv := scalarBytes(txSeed)
	txPub := pointFromScalar(txPriv)

	shared, err := xmrcrypto.SharedSecret(viewKey, txPub)
	Expect(err).NotTo(HaveOccurred())

	subPub, err := xmrcrypto.SubaddressSpendKey(spendPub, viewKey, major, minor)
	Expect(err).NotTo(HaveOccurred())

	d := xmrcrypto.DerivationScalar(shared, 0)
	subPoint, err := edwards25519.NewIdentityPoint().SetBytes(subPub[:])
	Expect(err).NotTo(HaveOccurred())
	dG := edwards25519.NewIdentityPoint().ScalarBaseMult(d)
	oneTime := edwards25519.NewIdentityPoint().Add(subPoint, dG)

	var outputKey xmrcrypto.PublicKey
	copy(outputKey[:], oneTime.Bytes())

	var hash rpcclient.Hash
	hash[0] = txSeed
	hash[1] = 0xAA

	return rpcclient.Transaction{
		Hash:  hash,
		TxPub: txPub,
		Outputs: []rpcclient.Output{
			{Key: outputKey, Index: 0, PlainAmount: amount},
		},
	}
}

var _ = Describe("gateway payment lifecycle", func() {
	var (
		viewKey  xmrcrypto.PrivateKey
		spendPub xmrcrypto.PublicKey
		daemon   *fakeDaemon
		gw       *Gateway
		ctx      context.Context
	)

	BeforeEach(func() {
		viewKey = scalarBytes(100)
		spendPub = pointFromScalar(scalarBytes(101))
		daemon = newFakeDaemon()
		daemon.advanceTip(0)

		blocks := blockcache.New(daemon, 5)
		pool := txpool.New(daemon, nil)
		st := store.NewMemStore()
		sc := scanner.New(blocks, pool, st, spendPub, viewKey, nil, nil)
		var viewKeyArr [32]byte
		copy(viewKeyArr[:], viewKey[:])
		alloc, err := subaddress.New(viewKeyArr, 1)
		Expect(err).NotTo(HaveOccurred())

		gw = New(sc, st, alloc, time.Second, nil, nil)
		ctx = context.Background()
	})

	It("reports no payment for a freshly created invoice", func() {
		inv, _, err := gw.NewInvoice(5000, 1, 1000)
		Expect(err).NotTo(HaveOccurred())

		Expect(gw.tick(ctx)).To(Succeed())

		got, ok, err := gw.GetInvoice(inv.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(got.AmountPaid).To(BeZero())
		Expect(got.IsConfirmed).To(BeFalse())
		Expect(got.IsExpired).To(BeFalse())
	})

	It("allocates distinct non-primary sub-indices", func() {
		inv1, _, err := gw.NewInvoice(1000, 1, 1000)
		Expect(err).NotTo(HaveOccurred())
		inv2, _, err := gw.NewInvoice(1000, 1, 1000)
		Expect(err).NotTo(HaveOccurred())

		Expect(inv1.Index).NotTo(Equal(inv2.Index))
		Expect(inv1.Index.Major).NotTo(BeZero())
		Expect(inv2.Index.Major).NotTo(BeZero())
	})

	It("folds a mempool partial payment into the right invoice without crediting others", func() {
		inv1, _, err := gw.NewInvoice(5000, 1, 1000)
		Expect(err).NotTo(HaveOccurred())
		inv2, _, err := gw.NewInvoice(5000, 1, 1000)
		Expect(err).NotTo(HaveOccurred())

		payment := buildPayment(spendPub, viewKey, inv1.Index.Major, inv1.Index.Minor, 2000, 1)
		daemon.setMempool(payment)

		Expect(gw.tick(ctx)).To(Succeed())

		got1, _, err := gw.GetInvoice(inv1.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got1.AmountPaid).To(Equal(uint64(2000)))
		Expect(got1.PaidAtHeight).To(BeNil())

		got2, _, err := gw.GetInvoice(inv2.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got2.AmountPaid).To(BeZero())
	})

	It("confirms an invoice once its block payment accumulates enough confirmations", func() {
		inv, _, err := gw.NewInvoice(5000, 2, 1000)
		Expect(err).NotTo(HaveOccurred())

		payment := buildPayment(spendPub, viewKey, inv.Index.Major, inv.Index.Minor, 5000, 2)
		daemon.advanceTip(10)
		daemon.fundBlock(10, payment)
		Expect(gw.tick(ctx)).To(Succeed())

		got, _, err := gw.GetInvoice(inv.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.AmountPaid).To(Equal(uint64(5000)))
		Expect(got.IsConfirmed).To(BeFalse(), "only one confirmation so far, two required")

		daemon.advanceTip(11)
		Expect(gw.tick(ctx)).To(Succeed())

		got, _, err = gw.GetInvoice(inv.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.IsConfirmed).To(BeTrue())
	})

	It("expires an invoice that never reaches its requested amount in time", func() {
		inv, _, err := gw.NewInvoice(70000000, 10, 2)
		Expect(err).NotTo(HaveOccurred())

		partial := buildPayment(spendPub, viewKey, inv.Index.Major, inv.Index.Minor, 37419570, 3)
		daemon.advanceTip(1)
		daemon.fundBlock(1, partial)
		Expect(gw.tick(ctx)).To(Succeed())

		daemon.advanceTip(3)
		Expect(gw.tick(ctx)).To(Succeed())

		got, _, err := gw.GetInvoice(inv.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.IsExpired).To(BeTrue())
		Expect(got.IsConfirmed).To(BeFalse())
	})

	It("drops a payment that a reorg removes from the chain", func() {
		inv, _, err := gw.NewInvoice(5000, 1, 1000)
		Expect(err).NotTo(HaveOccurred())

		payment := buildPayment(spendPub, viewKey, inv.Index.Major, inv.Index.Minor, 5000, 4)
		daemon.advanceTip(10)
		daemon.fundBlock(10, payment)
		Expect(gw.tick(ctx)).To(Succeed())

		got, _, err := gw.GetInvoice(inv.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.AmountPaid).To(Equal(uint64(5000)))

		daemon.reorgFrom(10)
		Expect(gw.tick(ctx)).To(Succeed())

		got, _, err = gw.GetInvoice(inv.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.AmountPaid).To(BeZero())
	})
})
