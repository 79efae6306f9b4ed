// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics exposes the gateway's operational counters and gauges
// through a prometheus.Gatherer so a caller can mount them on their own
// metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every metric the scanner and gateway update. It is safe
// for concurrent use; every field is a prometheus metric with its own
// internal synchronization.
type Registry struct {
	registry *prometheus.Registry

	TicksTotal        prometheus.Counter
	TicksSkippedTotal *prometheus.CounterVec
	TickDuration      prometheus.Histogram

	RPCRequestsTotal  *prometheus.CounterVec
	RPCErrorsTotal    *prometheus.CounterVec

	BlocksScannedTotal       prometheus.Counter
	ReorgsDetectedTotal      prometheus.Counter
	ReorgDepthBlocks         prometheus.Histogram
	TxpoolTransactionsTotal  prometheus.Counter

	InvoicesTracked   prometheus.Gauge
	TransfersFolded   prometheus.Counter
	StorageErrorsTotal *prometheus.CounterVec
}

// New builds a Registry and registers every metric with a fresh
// prometheus.Registry.
func New(namespace string) *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of scanner reconcile ticks that ran to completion.",
		}),
		TicksSkippedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_skipped_total",
			Help:      "Number of ticks skipped, by reason.",
		}, []string{"reason"}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall-clock duration of a reconcile tick, whether or not it succeeded.",
			Buckets:   prometheus.DefBuckets,
		}),
		RPCRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_requests_total",
			Help:      "Daemon RPC calls issued, by method.",
		}, []string{"method"}),
		RPCErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rpc_errors_total",
			Help:      "Daemon RPC calls that returned an error, by method and kind.",
		}, []string{"method", "kind"}),
		BlocksScannedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_scanned_total",
			Help:      "Blocks whose transactions were scanned for owned outputs.",
		}),
		ReorgsDetectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reorgs_detected_total",
			Help:      "Chain reorganizations detected by the block cache.",
		}),
		ReorgDepthBlocks: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reorg_depth_blocks",
			Help:      "Depth, in blocks, of detected reorganizations.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		TxpoolTransactionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "txpool_transactions_total",
			Help:      "Newly observed mempool transactions scanned.",
		}),
		InvoicesTracked: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "invoices_tracked",
			Help:      "Invoices currently present in the store.",
		}),
		TransfersFolded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfers_folded_total",
			Help:      "Transfers folded into an invoice across all ticks.",
		}),
		StorageErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Invoice store operations that returned an error, by operation.",
		}, []string{"op"}),
	}

	reg.MustRegister(
		r.TicksTotal,
		r.TicksSkippedTotal,
		r.TickDuration,
		r.RPCRequestsTotal,
		r.RPCErrorsTotal,
		r.BlocksScannedTotal,
		r.ReorgsDetectedTotal,
		r.ReorgDepthBlocks,
		r.TxpoolTransactionsTotal,
		r.InvoicesTracked,
		r.TransfersFolded,
		r.StorageErrorsTotal,
	)

	return r
}

// Gatherer exposes the registry as a prometheus.Gatherer for mounting
// behind promhttp.HandlerFor in the calling application.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}
