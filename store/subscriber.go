// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package store

import (
	"context"
	"time"

	"github.com/moneroacceptor/gateway/invoice"
)

// subscriberQueueSize bounds the per-subscriber pending-update queue. Once
// full, the oldest queued update is dropped to make room for the newest
// (spec §9's drop-oldest-on-overflow policy) — delivery is at-least-once,
// and a slow consumer sees only the most recent state, never blocks the
// scanner.
const subscriberQueueSize = 64

// Subscriber is a pull-based change stream over invoice updates. Delivery
// is at-least-once; consumers must be idempotent. Deletion events are never
// delivered — a consumer infers removal from an invoice's terminal state.
type Subscriber interface {
	// Recv blocks until an update arrives, ctx is cancelled, or the
	// subscriber is closed.
	Recv(ctx context.Context) (invoice.Invoice, error)
	// RecvTimeout blocks until an update arrives or d elapses, returning
	// ErrSubscriberTimedOut on expiry.
	RecvTimeout(d time.Duration) (invoice.Invoice, error)
	// Poll returns the next queued update without blocking.
	Poll() (invoice.Invoice, bool)
	// Close releases the subscriber; subsequent Recv calls return
	// ErrSubscriberClosed once the queue drains.
	Close()
}

// channelSubscriber is the store's Subscriber implementation: a bounded
// channel fed by the store's write path.
type channelSubscriber struct {
	ch     chan invoice.Invoice
	closed chan struct{}
}

func newChannelSubscriber() *channelSubscriber {
	return &channelSubscriber{
		ch:     make(chan invoice.Invoice, subscriberQueueSize),
		closed: make(chan struct{}),
	}
}

// publish delivers inv, dropping the oldest queued update if the channel is
// full. Never blocks the caller (the store's write path).
func (s *channelSubscriber) publish(inv invoice.Invoice) {
	for {
		select {
		case s.ch <- inv:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

func (s *channelSubscriber) Recv(ctx context.Context) (invoice.Invoice, error) {
	select {
	case inv, ok := <-s.ch:
		if !ok {
			return invoice.Invoice{}, ErrSubscriberClosed
		}
		return inv, nil
	case <-s.closed:
		select {
		case inv, ok := <-s.ch:
			if ok {
				return inv, nil
			}
		default:
		}
		return invoice.Invoice{}, ErrSubscriberClosed
	case <-ctx.Done():
		return invoice.Invoice{}, ctx.Err()
	}
}

func (s *channelSubscriber) RecvTimeout(d time.Duration) (invoice.Invoice, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case inv, ok := <-s.ch:
		if !ok {
			return invoice.Invoice{}, ErrSubscriberClosed
		}
		return inv, nil
	case <-s.closed:
		select {
		case inv, ok := <-s.ch:
			if ok {
				return inv, nil
			}
		default:
		}
		return invoice.Invoice{}, ErrSubscriberClosed
	case <-timer.C:
		return invoice.Invoice{}, ErrSubscriberTimedOut
	}
}

func (s *channelSubscriber) Poll() (invoice.Invoice, bool) {
	select {
	case inv, ok := <-s.ch:
		return inv, ok
	default:
		return invoice.Invoice{}, false
	}
}

func (s *channelSubscriber) Close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
}
