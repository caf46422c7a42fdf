// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package verifier - chain-binding confirmation of stored squeaks
//
// a squeak claims a block height and the hash of that block; it is
// only relayed once the claimed hash matches the oracle's hash for
// that height.  an unreachable oracle leaves the squeak pending and
// it is retried, never deleted; a hash mismatch is permanent.
// confirmation is monotonic: a confirmed squeak is never unconfirmed.
package verifier

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/background"
	"github.com/squeaknet/squeakd/chain"
	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/storage"
)

// Status - confirmation state of a stored squeak
type Status byte

// confirmation states, stored as one byte in the status pool
const (
	StatusPending       Status = 'P'
	StatusConfirmed     Status = 'C'
	StatusUnconfirmable Status = 'U'
)

// size of the asynchronous verification queue
const queueSize = 256

type verifierData struct {
	sync.RWMutex // to allow locking

	log    *logger.L
	oracle chain.Oracle
	queue  chan digest.Digest

	// for background
	background *background.T

	// set once during initialise
	initialised bool
}

// global data
var globalData verifierData

// Initialise - start the verification worker
func Initialise(oracle chain.Oracle) error {
	globalData.Lock()
	defer globalData.Unlock()

	// no need to start if already started
	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("verifier")
	globalData.log.Info("starting…")

	globalData.oracle = oracle
	globalData.queue = make(chan digest.Digest, queueSize)

	// all data initialised
	globalData.initialised = true

	processes := background.Processes{
		&worker{},
	}

	globalData.background = background.Start(processes, nil)

	return nil
}

// Finalise - stop all background tasks
func Finalise() error {
	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.background.Stop()

	// finally...
	globalData.initialised = false

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}

// Enqueue - queue a stored squeak for asynchronous confirmation
//
// drops the request if the queue is full; the pending status remains
// set so a later sync pass can requeue it
func Enqueue(hash digest.Digest) {
	globalData.RLock()
	defer globalData.RUnlock()

	if !globalData.initialised {
		return
	}

	select {
	case globalData.queue <- hash:
	default:
		globalData.log.Warnf("queue full, deferring: %v", hash)
	}
}

// MarkPending - record the initial unconfirmed state
func MarkPending(hash digest.Digest) {
	storage.Pool.SqueakStatus.Put(hash[:], []byte{byte(StatusPending)})
}

// StatusOf - current confirmation state of a stored squeak
func StatusOf(hash digest.Digest) (Status, bool) {
	value := storage.Pool.SqueakStatus.Get(hash[:])
	if 1 != len(value) {
		return StatusPending, false
	}
	return Status(value[0]), true
}

// IsConfirmed - true only if the squeak passed verification
func IsConfirmed(hash digest.Digest) bool {
	status, ok := StatusOf(hash)
	return ok && StatusConfirmed == status
}
