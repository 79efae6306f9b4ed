// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

//go:build fastcache

package fastcache

import (
	"context"
	"time"

	"github.com/moneroacceptor/gateway/invoice"
	"github.com/moneroacceptor/gateway/store"
)

// subscriberQueueSize matches the package store's MemStore bound.
const subscriberQueueSize = 64

// subscriber is this package's store.Subscriber implementation, identical
// in shape to the package store's channelSubscriber: a bounded channel with
// drop-oldest-on-overflow, at-least-once delivery.
type subscriber struct {
	ch     chan invoice.Invoice
	closed chan struct{}
}

func newSubscriber() *subscriber {
	return &subscriber{
		ch:     make(chan invoice.Invoice, subscriberQueueSize),
		closed: make(chan struct{}),
	}
}

func (s *subscriber) publish(inv invoice.Invoice) {
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

func (s *subscriber) Recv(ctx context.Context) (invoice.Invoice, error) {
	select {
	case inv, ok := <-s.ch:
		if !ok {
			return invoice.Invoice{}, store.ErrSubscriberClosed
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
		return invoice.Invoice{}, store.ErrSubscriberClosed
	case <-ctx.Done():
		return invoice.Invoice{}, ctx.Err()
	}
}

func (s *subscriber) RecvTimeout(d time.Duration) (invoice.Invoice, error) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case inv, ok := <-s.ch:
		if !ok {
			return invoice.Invoice{}, store.ErrSubscriberClosed
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
		return invoice.Invoice{}, store.ErrSubscriberClosed
	case <-timer.C:
		return invoice.Invoice{}, store.ErrSubscriberTimedOut
	}
}

func (s *subscriber) Poll() (invoice.Invoice, bool) {
	select {
	case inv, ok := <-s.ch:
		return inv, ok
	default:
		return invoice.Invoice{}, false
	}
}

func (s *subscriber) Close() {
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
}
