// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/moneroacceptor/gateway/blockcache"
	"github.com/moneroacceptor/gateway/config"
	"github.com/moneroacceptor/gateway/gateway"
	"github.com/moneroacceptor/gateway/log"
	"github.com/moneroacceptor/gateway/metrics"
	"github.com/moneroacceptor/gateway/rpcclient"
	"github.com/moneroacceptor/gateway/scanner"
	"github.com/moneroacceptor/gateway/store"
	"github.com/moneroacceptor/gateway/subaddress"
	"github.com/moneroacceptor/gateway/txpool"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "start the gateway and block until interrupted",
		Flags: append(commonFlags(), configFlags()...),
		Action: func(c *cli.Context) error {
			setupLogging(c.String("log-file"), c.Int("verbosity"))
			return runGateway(c)
		},
	}
}

func runGateway(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), pflagsFrom(c))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client, err := rpcclient.New(cfg.DaemonURL, rpcclient.Options{Login: cfg.DaemonLogin})
	if err != nil {
		return fmt.Errorf("building daemon client: %w", err)
	}

	reg := metrics.New("xmracceptord")
	logger := log.Root()

	blocks := blockcache.New(client, cfg.BlockCacheSize)
	pool := txpool.New(client, logger)
	st := store.NewMemStore()

	var viewKeyArr [32]byte
	copy(viewKeyArr[:], cfg.PrivateViewKey[:])
	alloc, err := subaddress.New(viewKeyArr, cfg.Seed)
	if err != nil {
		return fmt.Errorf("building subaddress allocator: %w", err)
	}

	sc := scanner.New(blocks, pool, st, cfg.SpendPublicKey, cfg.PrivateViewKey, reg, logger)
	gw := gateway.New(sc, st, alloc, cfg.ScanInterval, reg, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := gw.Run(ctx); err != nil {
		return fmt.Errorf("starting gateway: %w", err)
	}
	logger.Info("gateway running", "daemon", cfg.DaemonURL, "height", gw.Height())

	if c.Bool("remove-confirmed") {
		go watchAndRemoveConfirmed(ctx, gw, logger)
	}

	<-ctx.Done()
	logger.Info("shutdown requested, waiting for tick loop to exit")
	return gw.Wait()
}
