// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package log provides structured, leveled logging for the gateway. It
// follows the go-ethereum convention of a free-form key/value context
// passed alongside the message (Info("tick complete", "height", h)),
// backed by the standard library's log/slog and a glog-style verbosity
// handler so callers can tune noise with a single global level.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger is the interface every component in this module logs through.
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})
	With(ctx ...interface{}) Logger
}

const (
	LevelTrace slog.Level = -8
	LevelDebug            = slog.LevelDebug
	LevelInfo             = slog.LevelInfo
	LevelWarn             = slog.LevelWarn
	LevelError            = slog.LevelError
	LevelCrit  slog.Level = 12
)

type logger struct {
	slog *slog.Logger
	glog *GlogHandler
}

var root Logger = NewLogger(os.Stderr, LevelInfo)

// Root returns the process-wide default logger.
func Root() Logger { return root }

// SetRoot replaces the process-wide default logger.
func SetRoot(l Logger) { root = l }

// NewLogger builds a Logger that writes human-readable text to w, filtered
// by a GlogHandler set to level.
func NewLogger(w io.Writer, level slog.Level) Logger {
	h := NewGlogHandler(slog.NewTextHandler(w, &slog.HandlerOptions{Level: LevelTrace}))
	h.Verbosity(level)
	return &logger{slog: slog.New(h), glog: h}
}

func (l *logger) log(level slog.Level, msg string, ctx []interface{}) {
	if !l.slog.Enabled(context.Background(), level) {
		return
	}
	l.slog.Log(context.Background(), level, msg, ctx...)
}

func (l *logger) Trace(msg string, ctx ...interface{}) { l.log(LevelTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...interface{}) { l.log(LevelDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...interface{})  { l.log(LevelInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...interface{})  { l.log(LevelWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...interface{}) { l.log(LevelError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...interface{})  { l.log(LevelCrit, msg, ctx) }

func (l *logger) With(ctx ...interface{}) Logger {
	return &logger{slog: l.slog.With(ctx...), glog: l.glog}
}

// Trace logs at LevelTrace on the root logger.
func Trace(msg string, ctx ...interface{}) { root.Trace(msg, ctx...) }

// Debug logs at LevelDebug on the root logger.
func Debug(msg string, ctx ...interface{}) { root.Debug(msg, ctx...) }

// Info logs at LevelInfo on the root logger.
func Info(msg string, ctx ...interface{}) { root.Info(msg, ctx...) }

// Warn logs at LevelWarn on the root logger.
func Warn(msg string, ctx ...interface{}) { root.Warn(msg, ctx...) }

// Error logs at LevelError on the root logger.
func Error(msg string, ctx ...interface{}) { root.Error(msg, ctx...) }

// Crit logs at LevelCrit on the root logger.
func Crit(msg string, ctx ...interface{}) { root.Crit(msg, ctx...) }
