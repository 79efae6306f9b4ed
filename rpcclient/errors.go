// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package rpcclient

import "errors"

// ErrNetwork wraps a transport-level failure: connection refused, timeout,
// TLS handshake failure. Retried next tick per the scanner's back-off.
var ErrNetwork = errors.New("rpcclient: network error")

// ErrDaemonBusy corresponds to an HTTP 503 from the daemon. Retried.
var ErrDaemonBusy = errors.New("rpcclient: daemon busy")

// ErrDaemonStatus wraps a daemon-reported non-OK status field or an
// unexpected non-503 HTTP status.
var ErrDaemonStatus = errors.New("rpcclient: daemon returned error status")

// ErrDecode wraps a malformed or unexpected response body.
var ErrDecode = errors.New("rpcclient: malformed daemon response")
