// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/messagebus"
	"github.com/squeaknet/squeakd/mode"
	"github.com/squeaknet/squeakd/wire"
)

// relayer - announce confirmed squeaks to every peer that has not
// already seen them
//
// relay is driven by the confirmed topic, so unvalidated content is
// never announced, and the per-link recency cache keeps a squeak
// from being announced back to the peer it came from
type relayer struct {
	log *logger.L
}

func (r *relayer) Run(args interface{}, shutdown <-chan struct{}) {

	r.log = logger.New("relayer")
	r.log.Info("starting…")

	confirmed := messagebus.SqueakConfirmed.Chan(64)
	defer messagebus.SqueakConfirmed.Unsubscribe(confirmed)

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case m, ok := <-confirmed:
			if !ok {
				break loop
			}
			hash, ok := m.Item.(digest.Digest)
			if !ok {
				continue loop
			}
			r.announce(hash)
		}
	}
	r.log.Info("shutting down…")
	r.log.Flush()
}

func (r *relayer) announce(hash digest.Digest) {
	inv := &wire.MessageInv{
		Items: []wire.InvItem{
			{Type: wire.InvTypeSqueak, Hash: hash},
		},
	}
	globalData.links.Range(func(addr string, l *PeerLink) {
		if !l.IsActive() || l.knows(hash) {
			return
		}
		l.markKnown(hash)
		if err := l.Send(inv); nil != err {
			l.Teardown()
		}
	})
}

// syncTask - periodic timeline catch-up and address book top-up
func syncTask() {
	globalData.links.Range(func(addr string, l *PeerLink) {
		if !l.IsActive() {
			return
		}
		if err := l.sendLocator(); nil != err {
			l.Teardown()
			return
		}
		if globalData.addrManager.NeedMoreAddresses() {
			if err := l.Send(&wire.MessageGetAddr{}); nil != err {
				l.Teardown()
			}
		}
	})

	// the first completed pass ends the startup resynchronise
	if mode.Is(mode.Resynchronise) {
		mode.Set(mode.Normal)
	}
}
