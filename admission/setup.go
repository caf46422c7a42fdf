// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package admission - gatekeeper for inbound and authored squeaks
//
// relayed squeaks are only stored for followed authors who are under
// the per block quota; authored squeaks are trusted and verified
// against the chain before the call returns.  the quota is keyed by
// the claimed block height, not wall clock, so waiting does not reset
// it within one block
package admission

import (
	"encoding/binary"
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/storage"
)

type admissionData struct {
	sync.RWMutex // to allow locking

	log   *logger.L
	quota uint64

	// set once during initialise
	initialised bool
}

// global data
var globalData admissionData

// Initialise - set up the gatekeeper
//
// quota is the maximum accepted relayed squeaks per author per
// claimed block height; zero disables relayed admission entirely
func Initialise(quota uint64) error {
	globalData.Lock()
	defer globalData.Unlock()

	// no need to start if already started
	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("admission")
	globalData.log.Info("starting…")

	globalData.quota = quota

	// all data initialised
	globalData.initialised = true

	return nil
}

// Finalise - shut down the gatekeeper
func Finalise() error {
	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	// finally...
	globalData.initialised = false

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}

// quota counter key: author and claimed height together
func counterKey(author []byte, blockHeight uint64) []byte {
	key := make([]byte, len(author)+8)
	copy(key, author)
	binary.BigEndian.PutUint64(key[len(author):], blockHeight)
	return key
}

// countAgainstQuota must be called with the lock held; counts an
// acceptance
//
// the counters are durable rows so the window can never be reopened
// by waiting for an eviction or a restart
func (d *admissionData) countAgainstQuota(author []byte, blockHeight uint64) error {
	key := counterKey(author, blockHeight)

	used := uint64(0)
	if data := storage.Pool.Quota.Get(key); 8 == len(data) {
		used = binary.BigEndian.Uint64(data)
	}
	if used >= d.quota {
		return fault.QuotaExceeded
	}

	data := make([]byte, 8)
	binary.BigEndian.PutUint64(data, used+1)
	storage.Pool.Quota.Put(key, data)
	return nil
}
