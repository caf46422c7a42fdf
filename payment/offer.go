// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payment

import (
	"time"

	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/squeakrecord"
	"github.com/squeaknet/squeakd/storage"
)

// Offer - everything a buyer needs to pay and unlock
type Offer struct {
	SqueakHash    digest.Digest
	PaymentHash   [32]byte
	Price         uint64 // millisatoshi
	Invoice       string
	Proof         []byte
	KeyCiphertext []byte
	Host          string
	Port          uint16
	Expiry        time.Duration
}

// CreateOffer - sell side: answer a buy request for a squeak
//
// challenge is the buyer's nonce; the returned proof binds this
// offer to that challenge and to the squeak's real content key, so a
// proof cannot be replayed across buyers or across squeaks.  the key
// ciphertext opens only under the invoice's settlement preimage
func CreateOffer(squeakHash digest.Digest, challenge []byte, counterparty string) (*Offer, error) {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return nil, fault.NotInitialised
	}

	if 0 == len(challenge) {
		return nil, fault.InvalidChallenge
	}

	if !storage.Pool.Squeaks.Has(squeakHash[:]) {
		return nil, fault.SqueakNotFound
	}

	if storage.Pool.PublicKeys.Has(squeakHash[:]) {
		return nil, fault.KeyAlreadyPublic
	}

	contentKey := storage.Pool.SqueakKeys.Get(squeakHash[:])
	if nil == contentKey {
		return nil, fault.NotForSale
	}

	// a fresh offer supersedes any live unpaid one for this pair;
	// a settled one means this buyer already holds the key
	if old := storage.Pool.OfferIndex.Get(offerIndexKey(squeakHash, counterparty)); nil != old {
		oldHash := [32]byte{}
		copy(oldHash[:], old)
		if previous, err := GetOffer(oldHash); nil == err {
			if previous.Paid {
				return nil, fault.AlreadyPaid
			}
			storage.Pool.Offers.Delete(oldHash[:])
			storage.Pool.Payments.Delete(oldHash[:])
		}
	}

	preimage, err := squeakrecord.GeneratePreimage()
	if nil != err {
		return nil, err
	}
	paymentHash := squeakrecord.PaymentHash(preimage)

	invoice, err := globalData.client.CreateInvoice(preimage, globalData.price, globalData.invoiceExpiry)
	if nil != err {
		return nil, err
	}
	if paymentHash != invoice.PaymentHash {
		return nil, fault.InvalidPaymentHash
	}

	proof, err := squeakrecord.MakeProof(challenge, contentKey)
	if nil != err {
		return nil, err
	}

	keyCiphertext, err := squeakrecord.EncryptKey(contentKey, preimage)
	if nil != err {
		return nil, err
	}

	offer := &SellOffer{
		SqueakHash:   squeakHash,
		PaymentHash:  paymentHash,
		Price:        globalData.price,
		Invoice:      invoice.PaymentRequest,
		CreationTime: invoice.CreationTime,
		Expiry:       invoice.Expiry,
		Challenge:    challenge,
		Counterparty: counterparty,
	}
	if err := storeOffer(offer, counterparty); nil != err {
		return nil, err
	}

	if err := storeReceivedPayment(&ReceivedPayment{
		PaymentHash: paymentHash,
		SqueakHash:  squeakHash,
		Price:       globalData.price,
	}); nil != err {
		return nil, err
	}

	globalData.log.Infof("offer created: squeak: %v  price: %d", squeakHash, globalData.price)

	return &Offer{
		SqueakHash:    squeakHash,
		PaymentHash:   paymentHash,
		Price:         globalData.price,
		Invoice:       invoice.PaymentRequest,
		Proof:         proof,
		KeyCiphertext: keyCiphertext,
		Host:          globalData.lightningHost,
		Port:          globalData.lightningPort,
		Expiry:        invoice.Expiry,
	}, nil
}

// AcceptOffer - buy side: pay an offer and unlock the squeak
//
// challenge must be the nonce this node sent with its buy request.
// a payment failure from the channel client is surfaced as a payment
// class error, retryable elsewhere; any decryption failure means the
// content must not be treated as unlocked
//
// the channel client can block for its full payment timeout, so the
// package lock is never held while paying: the sell side, the sweep
// and the settlement watcher keep running during a buy
func AcceptOffer(offer *Offer, challenge []byte, counterparty string) ([]byte, error) {
	globalData.RLock()
	initialised := globalData.initialised
	client := globalData.client
	globalData.RUnlock()

	if !initialised {
		return nil, fault.NotInitialised
	}

	packed := storage.Pool.Squeaks.Get(offer.SqueakHash[:])
	if nil == packed {
		return nil, fault.SqueakNotFound
	}
	s, err := squeakrecord.Unpack(packed)
	if nil != err {
		return nil, err
	}

	// payment errors pass through unchanged so the caller can retry
	// against another peer
	preimage, err := client.PayInvoice(offer.Invoice)
	if nil != err {
		return nil, err
	}

	valid := squeakrecord.PaymentHash(preimage) == offer.PaymentHash

	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return nil, fault.NotInitialised
	}

	sent := &SentPayment{
		SqueakHash:    offer.SqueakHash,
		PaymentHash:   offer.PaymentHash,
		Preimage:      preimage,
		Price:         offer.Price,
		Counterparty:  counterparty,
		ValidPreimage: valid,
	}
	if err := storeSentPayment(sent); nil != err {
		return nil, err
	}
	if !valid {
		return nil, fault.InvalidPreimage
	}

	contentKey, err := squeakrecord.DecryptKey(offer.KeyCiphertext, preimage)
	if nil != err {
		return nil, err
	}

	if !squeakrecord.CheckProof(offer.Proof, challenge, contentKey) {
		return nil, fault.InvalidChallenge
	}

	// the key must actually open this squeak's body
	if _, err := squeakrecord.DecryptBody(s.EncryptedBody, contentKey); nil != err {
		return nil, err
	}

	storage.Pool.SqueakKeys.Put(offer.SqueakHash[:], contentKey)

	globalData.log.Infof("offer accepted: squeak: %v  price: %d", offer.SqueakHash, offer.Price)

	return contentKey, nil
}
