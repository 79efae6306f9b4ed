// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/moneroacceptor/gateway/log"
)

// setupLogging builds the process-wide root logger: a TTY-aware colored
// writer to stderr when no log file is configured, or a rotating file
// writer via lumberjack when one is. verbosity follows the glog convention
// (0 quiet, higher noisier); it maps directly onto log's slog-based levels.
func setupLogging(logFile string, verbosity int) {
	var w io.Writer
	if logFile != "" {
		w = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		}
	} else if isatty.IsTerminal(os.Stderr.Fd()) {
		w = colorable.NewColorableStderr()
	} else {
		w = os.Stderr
	}

	log.SetRoot(log.NewLogger(w, verbosityToLevel(verbosity)))
}

// verbosityToLevel maps a glog-style -v integer onto log's level scale:
// 0 or below is Info (the default), 1 is Debug, and 2 or above is Trace.
func verbosityToLevel(v int) slog.Level {
	switch {
	case v <= 0:
		return log.LevelInfo
	case v == 1:
		return log.LevelDebug
	default:
		return log.LevelTrace
	}
}
