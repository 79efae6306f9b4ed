// Copyright (c) 2025 The Acceptor Authors. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"

	"github.com/moneroacceptor/gateway/gateway"
	"github.com/moneroacceptor/gateway/log"
	"github.com/moneroacceptor/gateway/store"
)

// watchAndRemoveConfirmed implements the operator-side half of spec §9's
// removal-on-confirmation open question: the gateway core never deletes an
// invoice on its own, but an operator who wants that behavior can subscribe
// to every confirmation and remove the invoice themselves. Runs until ctx
// is cancelled or the subscription closes.
func watchAndRemoveConfirmed(ctx context.Context, gw *gateway.Gateway, logger log.Logger) {
	sub, err := gw.SubscribeAll("IsConfirmed == true")
	if err != nil {
		logger.Error("remove-confirmed: failed to subscribe", "err", err)
		return
	}
	defer sub.Close()

	for {
		inv, err := sub.Recv(ctx)
		if err != nil {
			if !errors.Is(err, context.Canceled) && !errors.Is(err, store.ErrSubscriberClosed) {
				logger.Warn("remove-confirmed: subscription ended", "err", err)
			}
			return
		}
		if _, _, err := gw.RemoveInvoice(inv.ID); err != nil {
			logger.Error("remove-confirmed: failed to remove invoice", "id", inv.ID, "err", err)
			continue
		}
		logger.Info("removed confirmed invoice", "id", inv.ID, "amount_paid", inv.AmountPaid)
	}
}
