// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payment

import (
	"encoding/json"
	"time"

	"github.com/squeaknet/squeakd/storage"
)

// sweep - delete offers whose invoices expired unpaid
//
// the only garbage collection for offers; a paid offer is never
// deleted, whatever its age, and running the sweep twice with no new
// expirations is a no-op
func sweep() {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return
	}

	now := time.Now()
	expired := [][]byte(nil)

	storage.Pool.Offers.Range(func(key []byte, value []byte) bool {
		offer := &SellOffer{}
		if err := json.Unmarshal(value, offer); nil != err {
			globalData.log.Errorf("corrupt offer: %x: %s", key, err)
			return true
		}
		if !offer.Paid && offer.IsExpired(now) {
			expired = append(expired, key)
			storage.Pool.OfferIndex.Delete(offerIndexKey(offer.SqueakHash, offer.Counterparty))
		}
		return true
	})

	for _, key := range expired {
		storage.Pool.Offers.Delete(key)
		storage.Pool.Payments.Delete(key)
		globalData.log.Infof("expired offer removed: %x", key)
	}
}

// Sweep - run one expiry pass immediately
func Sweep() {
	sweep()
}
