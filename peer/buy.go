// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"crypto/rand"
	"time"

	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/payment"
)

const challengeSize = 32

// BuySqueak - buy a squeak's decryption key from a connected peer
//
// requests an offer under a fresh challenge, pays the invoice and
// unlocks the key; payment class errors are retryable against
// another peer
func BuySqueak(address string, hash digest.Digest) ([]byte, error) {
	globalData.RLock()
	initialised := globalData.initialised
	globalData.RUnlock()
	if !initialised {
		return nil, fault.NotInitialised
	}

	l := globalData.links.Get(address)
	if nil == l || !l.IsActive() {
		return nil, fault.ConnectionIsClosed
	}

	challenge := make([]byte, challengeSize)
	if _, err := rand.Read(challenge); nil != err {
		return nil, err
	}

	offerMsg, err := l.RequestOffer(hash, challenge)
	if nil != err {
		return nil, err
	}

	if offerMsg.Hash != hash {
		return nil, fault.InvalidPeerResponse
	}

	expiry := time.Until(time.Unix(offerMsg.Expiry, 0))
	if expiry <= 0 {
		return nil, fault.OfferExpired
	}

	return payment.AcceptOffer(&payment.Offer{
		SqueakHash:    offerMsg.Hash,
		PaymentHash:   offerMsg.PaymentHash,
		Price:         offerMsg.Price,
		Invoice:       offerMsg.Invoice,
		Proof:         offerMsg.Proof,
		KeyCiphertext: offerMsg.KeyCiphertext,
		Host:          offerMsg.Host,
		Port:          offerMsg.Port,
		Expiry:        expiry,
	}, challenge, address)
}
