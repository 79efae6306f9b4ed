// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rpcclient is a minimal typed wrapper over a Monero daemon's
// JSON-RPC surface: get_height, get_block, get_transactions,
// get_transaction_pool_hashes. All operations are idempotent and safe to
// retry; see errors.go for the taxonomy callers should branch on.
package rpcclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

// MinTransactionsBatch is the minimum number of hashes Transactions must
// accept in a single call (spec §4.1).
const MinTransactionsBatch = 100

// Client is a stateless HTTP client for a single daemon. Safe for
// concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	auth       *auth
	limiter    *rate.Limiter
}

// Options configures a Client.
type Options struct {
	// Login carries optional HTTP auth credentials (Basic, upgrading to
	// Digest automatically if challenged).
	Login Login
	// Timeout bounds every individual RPC call. Defaults to 10s (spec §5).
	Timeout time.Duration
	// RequestsPerSecond bounds outbound call rate. Zero disables limiting.
	RequestsPerSecond float64
}

// New builds a Client targeting daemonURL (e.g. "http://127.0.0.1:18081").
func New(daemonURL string, opts Options) (*Client, error) {
	u, err := url.Parse(daemonURL)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: invalid daemon URL: %w", err)
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	return &Client{
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
		auth:       newAuth(opts.Login),
		limiter:    rate.NewLimiter(limit, 1),
	}, nil
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = path
	return u.String()
}

// Height returns the daemon's current chain tip height.
func (c *Client) Height(ctx context.Context) (uint64, error) {
	var resp struct {
		Height uint64 `json:"height"`
		Status string `json:"status"`
	}
	if err := c.callLegacy(ctx, "/get_height", nil, &resp); err != nil {
		return 0, err
	}
	if resp.Status != "" && resp.Status != "OK" {
		return 0, fmt.Errorf("%w: get_height: %s", ErrDaemonStatus, resp.Status)
	}
	return resp.Height, nil
}

type getBlockParams struct {
	Height uint64 `json:"height"`
}

type getBlockResult struct {
	BlockHeader struct {
		Height    uint64 `json:"height"`
		Hash      Hash   `json:"hash"`
		PrevHash  Hash   `json:"prev_hash"`
		Timestamp uint64 `json:"timestamp"`
	} `json:"block_header"`
	MinerTxHash Hash   `json:"miner_tx_hash"`
	TxHashes    []Hash `json:"tx_hashes"`
}

// Block returns the header and the full list of transaction hashes
// (including the miner transaction) for the block at height h.
func (c *Client) Block(ctx context.Context, h uint64) (Block, error) {
	var result getBlockResult
	if err := c.callJSONRPC(ctx, "get_block", getBlockParams{Height: h}, &result); err != nil {
		return Block{}, err
	}

	txIDs := make([]Hash, 0, len(result.TxHashes)+1)
	txIDs = append(txIDs, result.MinerTxHash)
	txIDs = append(txIDs, result.TxHashes...)

	return Block{
		Header: BlockHeader{
			Height:    result.BlockHeader.Height,
			Hash:      result.BlockHeader.Hash,
			PrevHash:  result.BlockHeader.PrevHash,
			Timestamp: result.BlockHeader.Timestamp,
		},
		TxIDs: txIDs,
	}, nil
}

type getTransactionsParams struct {
	TxsHashes     []string `json:"txs_hashes"`
	DecodeAsJSON  bool     `json:"decode_as_json"`
}

type getTransactionsEntry struct {
	TxHash string `json:"tx_hash"`
	AsJSON string `json:"as_json"`
}

type getTransactionsResult struct {
	Txs    []getTransactionsEntry `json:"txs"`
	Status string                 `json:"status"`
}

// Transactions fetches the decoded form of every hash in hashes, batching
// internally at MinTransactionsBatch hashes per daemon call.
func (c *Client) Transactions(ctx context.Context, hashes []Hash) ([]Transaction, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	out := make([]Transaction, 0, len(hashes))
	for start := 0; start < len(hashes); start += MinTransactionsBatch {
		end := start + MinTransactionsBatch
		if end > len(hashes) {
			end = len(hashes)
		}
		batch, err := c.transactionsBatch(ctx, hashes[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (c *Client) transactionsBatch(ctx context.Context, hashes []Hash) ([]Transaction, error) {
	hexHashes := make([]string, len(hashes))
	for i, h := range hashes {
		hexHashes[i] = h.String()
	}

	var result getTransactionsResult
	params := getTransactionsParams{TxsHashes: hexHashes, DecodeAsJSON: true}
	if err := c.callLegacy(ctx, "/get_transactions", params, &result); err != nil {
		return nil, err
	}
	if result.Status != "" && result.Status != "OK" {
		return nil, fmt.Errorf("%w: get_transactions: %s", ErrDaemonStatus, result.Status)
	}

	txs := make([]Transaction, 0, len(result.Txs))
	for _, entry := range result.Txs {
		tx, err := parseDecodedTransaction(entry.TxHash, entry.AsJSON)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

type getTxpoolHashesResult struct {
	TxHashes []Hash `json:"tx_hashes"`
	Status   string `json:"status"`
}

// TxpoolHashes returns the hashes of every transaction currently in the
// daemon's mempool.
func (c *Client) TxpoolHashes(ctx context.Context) ([]Hash, error) {
	var result getTxpoolHashesResult
	if err := c.callLegacy(ctx, "/get_transaction_pool_hashes", nil, &result); err != nil {
		return nil, err
	}
	if result.Status != "" && result.Status != "OK" {
		return nil, fmt.Errorf("%w: get_transaction_pool_hashes: %s", ErrDaemonStatus, result.Status)
	}
	return result.TxHashes, nil
}
