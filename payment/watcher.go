// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payment

import (
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/lightning"
	"github.com/squeaknet/squeakd/messagebus"
)

// watcher - consumes the settled-invoice feed
//
// the single liveness rule: a feed failure is survived by
// resubscribing from the durable cursor, so a settlement is never
// silently lost; the watcher only exits on shutdown
type watcher struct {
	log *logger.L
}

func (w *watcher) Run(args interface{}, shutdown <-chan struct{}) {

	w.log = logger.New("settlement")
	w.log.Info("starting…")

loop:
	for {
		cursor := SettleCursor()
		w.log.Infof("subscribing from settle index: %d", cursor)

		feed, err := globalData.client.SubscribeSettled(cursor)
		if nil != err {
			w.log.Warnf("subscribe error: %s", err)
			select {
			case <-shutdown:
				break loop
			case <-time.After(globalData.resubscribeDelay):
				continue loop
			}
		}

		if !w.drain(feed, shutdown) {
			break loop
		}

		select {
		case <-shutdown:
			break loop
		case <-time.After(globalData.resubscribeDelay):
		}
	}
	w.log.Info("shutting down…")
	w.log.Flush()
}

// drain - apply settlements until the feed dies or shutdown
//
// returns false on shutdown, true when the feed should be reopened
func (w *watcher) drain(feed lightning.SettlementFeed, shutdown <-chan struct{}) bool {

	type result struct {
		settlement lightning.Settlement
		err        error
	}
	// one slot so the pump can flush its final error after Close
	results := make(chan result, 1)

	go func() {
		for {
			settlement, err := feed.Receive()
			results <- result{settlement, err}
			if nil != err {
				return
			}
		}
	}()

	for {
		select {
		case <-shutdown:
			feed.Close()
			return false

		case r := <-results:
			if nil != r.err {
				w.log.Warnf("feed error: %s", r.err)
				feed.Close()
				return true
			}
			w.applySettlement(r.settlement)
		}
	}
}

// applySettlement - mark the matching offer paid, exactly once
//
// a replayed settlement for an already paid invoice is a no-op; the
// cursor advances on the no-op branches so replays stop after a
// restart, but never before a fresh payment row is durable: a failed
// store leaves the cursor behind and the resubscribe replays the
// settlement
func (w *watcher) applySettlement(settlement lightning.Settlement) {
	globalData.Lock()
	defer globalData.Unlock()

	received, err := GetReceivedPayment(settlement.PaymentHash)
	if nil != err {
		w.log.Debugf("settlement for unknown invoice: %x", settlement.PaymentHash)
		setSettleCursor(settlement.SettleIndex)
		return
	}
	if received.Paid {
		w.log.Debugf("already paid: %x", settlement.PaymentHash)
		setSettleCursor(settlement.SettleIndex)
		return
	}

	received.Paid = true
	received.SettleIndex = settlement.SettleIndex
	if err := storeReceivedPayment(received); nil != err {
		w.log.Errorf("store payment error: %s", err)
		return
	}
	setSettleCursor(settlement.SettleIndex)

	offer, err := GetOffer(settlement.PaymentHash)
	if nil == err && !offer.Paid {
		offer.Paid = true
		if err := storeOffer(offer, offer.Counterparty); nil != err {
			w.log.Errorf("store offer error: %s", err)
		}
	}

	w.log.Infof("paid: squeak: %v  settle index: %d", received.SqueakHash, settlement.SettleIndex)
	messagebus.PaymentReceived.Send("payment", received.SqueakHash)
}
