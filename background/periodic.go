// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background

import (
	"time"

	"github.com/bitmark-inc/logger"
)

// Periodic - a background process that performs one task on a fixed
// interval until shut down
//
// the task is also run once immediately after start when RunAtStart
// is set
type Periodic struct {
	Name       string
	Interval   time.Duration
	RunAtStart bool
	Task       func()

	log *logger.L
}

// Run - the background process loop
func (p *Periodic) Run(args interface{}, shutdown <-chan struct{}) {

	p.log = logger.New(p.Name)
	p.log.Info("starting…")

	if p.RunAtStart {
		p.Task()
	}

	timer := time.NewTimer(p.Interval)

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case <-timer.C:
			p.log.Debug("run")
			p.Task()
			timer.Reset(p.Interval)
		}
	}

	timer.Stop()
	p.log.Info("stopped")
}
