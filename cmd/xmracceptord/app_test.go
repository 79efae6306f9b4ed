// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moneroacceptor/gateway/log"
)

func TestNewAppHasExpectedCommands(t *testing.T) {
	app := newApp()
	names := make(map[string]bool, len(app.Commands))
	for _, cmd := range app.Commands {
		names[cmd.Name] = true
	}
	require.True(t, names["run"])
	require.True(t, names["init-seed"])
}

func TestVerbosityToLevel(t *testing.T) {
	require.Equal(t, log.LevelInfo, verbosityToLevel(0))
	require.Equal(t, log.LevelDebug, verbosityToLevel(1))
	require.Equal(t, log.LevelTrace, verbosityToLevel(2))
	require.Equal(t, log.LevelTrace, verbosityToLevel(5))
}
