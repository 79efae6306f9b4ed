// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"github.com/spf13/pflag"
	"github.com/urfave/cli/v2"

	"github.com/moneroacceptor/gateway/config"
)

// version is set at release time via -ldflags; "dev" otherwise.
var version = "dev"

func newApp() *cli.App {
	return &cli.App{
		Name:    "xmracceptord",
		Usage:   "Monero payment-acceptance gateway",
		Version: version,
		Commands: []*cli.Command{
			runCommand(),
			initSeedCommand(),
		},
	}
}

// commonFlags returns the run command's general CLI surface: where to find
// the config file, how to log, and whether to remove confirmed invoices.
func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Usage: "path to a YAML config file"},
		&cli.StringFlag{Name: "log-file", Usage: "rotate logs to this file instead of stderr"},
		&cli.IntFlag{Name: "verbosity", Usage: "glog-style verbosity (0=info, 1=debug, 2+=trace)"},
		&cli.BoolFlag{Name: "remove-confirmed", Usage: "delete invoices from the store once they reach IsConfirmed (operator policy, not a gateway default)"},
	}
}

// configFlags declares one cli.Flag per config.BindFlags entry, so
// operators can override any setting straight from the command line; their
// urfave/cli/v2-parsed values are relayed into a pflag.FlagSet (see
// pflagsFrom) for config.Load's viper-based layering.
func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "daemon_url"},
		&cli.StringFlag{Name: "daemon_login_user"},
		&cli.StringFlag{Name: "daemon_login_password"},
		&cli.Int64Flag{Name: "scan_interval_ms"},
		&cli.Uint64Flag{Name: "block_cache_size"},
		&cli.UintFlag{Name: "account_index"},
		&cli.Uint64Flag{Name: "seed"},
		&cli.StringFlag{Name: "private_view_key"},
		&cli.StringFlag{Name: "primary_address"},
		&cli.StringFlag{Name: "db_path"},
	}
}

// pflagsFrom builds the pflag.FlagSet config.Load expects, carrying over
// every configFlags() value the operator actually set on the command line.
// Flags left unset fall through to config.Load's file/env/default layers.
func pflagsFrom(c *cli.Context) *pflag.FlagSet {
	fs := pflag.NewFlagSet("xmracceptord", pflag.ContinueOnError)
	config.BindFlags(fs)

	for _, name := range []string{
		"daemon_url", "daemon_login_user", "daemon_login_password",
		"private_view_key", "primary_address", "db_path",
	} {
		if c.IsSet(name) {
			_ = fs.Set(name, c.String(name))
		}
	}
	if c.IsSet("scan_interval_ms") {
		_ = fs.Set("scan_interval_ms", c.String("scan_interval_ms"))
	}
	if c.IsSet("block_cache_size") {
		_ = fs.Set("block_cache_size", c.String("block_cache_size"))
	}
	if c.IsSet("account_index") {
		_ = fs.Set("account_index", c.String("account_index"))
	}
	if c.IsSet("seed") {
		_ = fs.Set("seed", c.String("seed"))
	}
	return fs
}
