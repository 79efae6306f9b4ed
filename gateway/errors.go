// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"errors"

	"github.com/moneroacceptor/gateway/store"
)

// ErrSubscriberClosed and ErrSubscriberTimedOut re-export the store's
// Subscriber error sentinels at the gateway's public boundary, so callers
// depending only on package gateway never need to import package store
// directly to check them with errors.Is.
var (
	ErrSubscriberClosed   = store.ErrSubscriberClosed
	ErrSubscriberTimedOut = store.ErrSubscriberTimedOut
)

// ErrAlreadyRunning is returned by Run if the gateway's tick loop has
// already been started.
var ErrAlreadyRunning = errors.New("gateway: already running")
