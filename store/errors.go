// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import "errors"

// ErrDuplicateEntry is returned by Insert when the invoice's ID is already
// present (spec §4.6).
var ErrDuplicateEntry = errors.New("store: duplicate invoice id")

// ErrStorageError wraps a backend failure (spec §7, Storage.*): the tick
// continues and the error is logged, it is never fatal on its own.
var ErrStorageError = errors.New("store: backend error")

// ErrSubscriberClosed is returned by a Subscriber once its store has closed
// it (e.g. the invoice was removed) or its holder has called Close.
var ErrSubscriberClosed = errors.New("store: subscriber closed")

// ErrSubscriberTimedOut is returned by Subscriber.RecvTimeout when no
// update arrives before the deadline.
var ErrSubscriberTimedOut = errors.New("store: subscriber recv timed out")
