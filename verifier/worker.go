// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verifier

import (
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fault"
)

// interval between retry passes over squeaks the oracle could not
// answer for
const retryInterval = 60 * time.Second

// worker - drains the confirmation queue one squeak at a time
//
// a failure for one squeak never blocks the rest of the queue;
// transient failures are parked and requeued on the retry timer
type worker struct {
	log     *logger.L
	pending []digest.Digest
}

func (w *worker) Run(args interface{}, shutdown <-chan struct{}) {

	w.log = logger.New("verifier-worker")
	w.log.Info("starting…")

	timer := time.NewTimer(retryInterval)

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case hash := <-globalData.queue:
			w.process(hash)

		case <-timer.C:
			retry := w.pending
			w.pending = nil
			for _, hash := range retry {
				w.process(hash)
			}
			timer.Reset(retryInterval)
		}
	}
	w.log.Info("shutting down…")
	w.log.Flush()
}

func (w *worker) process(hash digest.Digest) {
	err := Confirm(hash)
	switch {
	case nil == err:
		w.log.Infof("confirmed: %v", hash)
	case fault.IsErrRetry(err):
		w.log.Debugf("deferred: %v  error: %s", hash, err)
		w.pending = append(w.pending, hash)
	default:
		w.log.Warnf("rejected: %v  error: %s", hash, err)
	}
}
