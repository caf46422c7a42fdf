// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payment

import (
	"encoding/json"
	"time"

	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/storage"
)

// name of the durable settle index cursor
const settleCursorKey = "settle-index"

// SellOffer - one priced invitation to unlock a squeak
type SellOffer struct {
	SqueakHash   digest.Digest `json:"squeak_hash"`
	PaymentHash  [32]byte      `json:"payment_hash"`
	Price        uint64        `json:"price"` // millisatoshi
	Invoice      string        `json:"invoice"`
	CreationTime time.Time     `json:"creation_time"`
	Expiry       time.Duration `json:"expiry"`
	Challenge    []byte        `json:"challenge"`
	Counterparty string        `json:"counterparty"` // buyer host:port
	Paid         bool          `json:"paid"`
}

// IsExpired - true once the invoice can no longer be paid
func (offer *SellOffer) IsExpired(now time.Time) bool {
	return now.After(offer.CreationTime.Add(offer.Expiry))
}

// ReceivedPayment - bookkeeping for one issued invoice
type ReceivedPayment struct {
	PaymentHash [32]byte      `json:"payment_hash"`
	SqueakHash  digest.Digest `json:"squeak_hash"`
	Price       uint64        `json:"price"`
	SettleIndex uint64        `json:"settle_index"`
	Paid        bool          `json:"paid"`
}

// SentPayment - record of a completed buy
type SentPayment struct {
	SqueakHash    digest.Digest `json:"squeak_hash"`
	PaymentHash   [32]byte      `json:"payment_hash"`
	Preimage      []byte        `json:"preimage"`
	Price         uint64        `json:"price"`
	Counterparty  string        `json:"counterparty"` // seller host:port
	ValidPreimage bool          `json:"valid_preimage"`
}

// composite index key: one live offer per (squeak, counterparty)
func offerIndexKey(squeakHash digest.Digest, counterparty string) []byte {
	return append(squeakHash[:], []byte(counterparty)...)
}

func storeOffer(offer *SellOffer, counterparty string) error {
	data, err := json.Marshal(offer)
	if nil != err {
		return err
	}
	storage.Pool.Offers.Put(offer.PaymentHash[:], data)
	storage.Pool.OfferIndex.Put(offerIndexKey(offer.SqueakHash, counterparty), offer.PaymentHash[:])
	return nil
}

// GetOffer - fetch an offer by payment hash
func GetOffer(paymentHash [32]byte) (*SellOffer, error) {
	data := storage.Pool.Offers.Get(paymentHash[:])
	if nil == data {
		return nil, fault.OfferNotFound
	}
	offer := &SellOffer{}
	if err := json.Unmarshal(data, offer); nil != err {
		return nil, err
	}
	return offer, nil
}

func storeReceivedPayment(p *ReceivedPayment) error {
	data, err := json.Marshal(p)
	if nil != err {
		return err
	}
	storage.Pool.Payments.Put(p.PaymentHash[:], data)
	return nil
}

// GetReceivedPayment - fetch payment bookkeeping by payment hash
func GetReceivedPayment(paymentHash [32]byte) (*ReceivedPayment, error) {
	data := storage.Pool.Payments.Get(paymentHash[:])
	if nil == data {
		return nil, fault.PaymentNotFound
	}
	p := &ReceivedPayment{}
	if err := json.Unmarshal(data, p); nil != err {
		return nil, err
	}
	return p, nil
}

func storeSentPayment(p *SentPayment) error {
	data, err := json.Marshal(p)
	if nil != err {
		return err
	}
	storage.Pool.SentPayments.Put(p.PaymentHash[:], data)
	return nil
}

// GetSentPayment - fetch a buy record by payment hash
func GetSentPayment(paymentHash [32]byte) (*SentPayment, error) {
	data := storage.Pool.SentPayments.Get(paymentHash[:])
	if nil == data {
		return nil, fault.PaymentNotFound
	}
	p := &SentPayment{}
	if err := json.Unmarshal(data, p); nil != err {
		return nil, err
	}
	return p, nil
}

// SettleCursor - last durably applied settle index
func SettleCursor() uint64 {
	n, _ := storage.Pool.Cursors.GetN([]byte(settleCursorKey))
	return n
}

func setSettleCursor(settleIndex uint64) {
	storage.Pool.Cursors.PutN([]byte(settleCursorKey), settleIndex)
}
