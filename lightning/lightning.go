// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package lightning - access to the payment channel node
//
// invoices are created against a preimage chosen by the caller; the
// settled-invoice feed is resumable from a settle index cursor so a
// restarted subscriber never silently loses a payment
package lightning

import (
	"time"
)

// Invoice - a created invoice awaiting payment
type Invoice struct {
	PaymentRequest string
	PaymentHash    [32]byte
	CreationTime   time.Time
	Expiry         time.Duration
}

// Settlement - one settled invoice observed on the feed
type Settlement struct {
	PaymentHash [32]byte
	SettleIndex uint64
	AmountMsat  uint64
}

// SettlementFeed - a blocking stream of settlements
//
// Receive blocks until the next settlement arrives or the feed
// fails; after an error the feed is dead and must be reopened
type SettlementFeed interface {
	Receive() (Settlement, error)
	Close()
}

// Client - the operations the node needs from a payment channel backend
//
// concrete backends are construction time variants of this one
// capability set
type Client interface {
	// CreateInvoice - issue an invoice whose payment hash is the
	// SHA-256 of the supplied preimage
	CreateInvoice(preimage []byte, amountMsat uint64, expiry time.Duration) (Invoice, error)

	// PayInvoice - execute a payment, blocking until it completes;
	// returns the settlement preimage on success; a routing or
	// payment failure is fault.PaymentDidNotSettle, distinct from
	// validation failures
	PayInvoice(paymentRequest string) ([]byte, error)

	// SubscribeSettled - open the settled-invoice feed starting
	// after the given settle index
	SubscribeSettled(fromSettleIndex uint64) (SettlementFeed, error)
}
