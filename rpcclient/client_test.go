// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package rpcclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, Options{})
	require.NoError(t, err)
	return c
}

func TestHeight(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/get_height", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{"height": 12345, "status": "OK"})
	})

	h, err := c.Height(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(12345), h)
}

func TestHeightDaemonBusy(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Height(context.Background())
	require.ErrorIs(t, err, ErrDaemonBusy)
}

func TestBlockParsesJSONRPCEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/json_rpc", r.URL.Path)
		var req jsonRPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "get_block", req.Method)

		result := map[string]any{
			"block_header": map[string]any{
				"height":     2477661,
				"hash":       repeatHex("aa"),
				"prev_hash":  repeatHex("bb"),
				"timestamp":  1700000000,
			},
			"miner_tx_hash": repeatHex("cc"),
			"tx_hashes":     []string{repeatHex("dd")},
		}
		_ = json.NewEncoder(w).Encode(jsonRPCResponse{Result: mustMarshal(t, result)})
	})

	blk, err := c.Block(context.Background(), 2477661)
	require.NoError(t, err)
	require.Equal(t, uint64(2477661), blk.Header.Height)
	require.Len(t, blk.TxIDs, 2)
}

func TestTransactionsBatchesAtMinimum(t *testing.T) {
	var requestedBatches [][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var params getTransactionsParams
		require.NoError(t, json.NewDecoder(r.Body).Decode(&params))
		requestedBatches = append(requestedBatches, params.TxsHashes)
		_ = json.NewEncoder(w).Encode(getTransactionsResult{Status: "OK"})
	})

	hashes := make([]Hash, 150)
	for i := range hashes {
		hashes[i][0] = byte(i)
	}

	_, err := c.Transactions(context.Background(), hashes)
	require.NoError(t, err)
	require.Len(t, requestedBatches, 2)
	require.Len(t, requestedBatches[0], MinTransactionsBatch)
	require.Len(t, requestedBatches[1], 50)
}

func repeatHex(pair string) string {
	out := ""
	for i := 0; i < 32; i++ {
		out += pair
	}
	return out
}

func mustMarshal(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
