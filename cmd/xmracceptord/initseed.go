// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/moneroacceptor/gateway/subaddress"
)

func initSeedCommand() *cli.Command {
	return &cli.Command{
		Name:  "init-seed",
		Usage: "generate a fresh allocator seed and print it as a mnemonic",
		Action: func(c *cli.Context) error {
			var buf [8]byte
			if _, err := rand.Read(buf[:]); err != nil {
				return fmt.Errorf("generating seed: %w", err)
			}
			seed := binary.LittleEndian.Uint64(buf[:])

			mnemonic, err := subaddress.MnemonicFromSeed(seed)
			if err != nil {
				return fmt.Errorf("encoding mnemonic: %w", err)
			}

			fmt.Printf("seed:     %d\n", seed)
			fmt.Printf("mnemonic: %s\n", mnemonic)
			fmt.Println("store this mnemonic; config.Config.Seed must match it to reproduce the same subaddress allocation sequence.")
			return nil
		},
	}
}
