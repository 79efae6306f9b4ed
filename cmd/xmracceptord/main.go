// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Command xmracceptord runs the Monero payment-acceptance gateway as a
// standalone daemon.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "xmracceptord:", err)
		os.Exit(1)
	}
}
