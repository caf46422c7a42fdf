// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package admission

import (
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/messagebus"
	"github.com/squeaknet/squeakd/squeakrecord"
	"github.com/squeaknet/squeakd/storage"
	"github.com/squeaknet/squeakd/verifier"
	"github.com/squeaknet/squeakd/wallet"
)

// SubmitReceived - admit a squeak relayed by a peer
//
// rejections are typed and side effect free: the caller can tell
// "duplicate" from "author not followed" from "over quota".  on
// acceptance the squeak is persisted, queued for asynchronous block
// verification and announced on the stored topic for relay
func SubmitReceived(s *squeakrecord.Squeak) error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	if err := s.Verify(); nil != err {
		return err
	}

	hash := s.Hash()

	// a duplicate never creates a second row nor counts against quota
	if storage.Pool.Squeaks.Has(hash[:]) {
		return fault.SqueakAlreadyStored
	}

	if !wallet.IsFollowed(s.Author) {
		return fault.NotFollowed
	}

	if err := globalData.countAgainstQuota(s.Author, s.BlockHeight); nil != err {
		return err
	}

	packed, err := s.Pack()
	if nil != err {
		return err
	}

	storage.Pool.Squeaks.Put(hash[:], packed)
	verifier.MarkPending(hash)
	verifier.Enqueue(hash)

	globalData.log.Infof("admitted: %v", hash)
	messagebus.SqueakStored.Send("admission", hash)

	return nil
}

// SubmitAuthored - store a squeak created by the local node
//
// always accepted; the content key is kept so the body stays readable
// locally and saleable to peers.  verification runs synchronously
// since the author used the live chain tip; an unreachable oracle
// leaves the squeak stored but pending, and the retryable error is
// passed to the caller
func SubmitAuthored(s *squeakrecord.Squeak, contentKey []byte) error {
	globalData.Lock()

	if !globalData.initialised {
		globalData.Unlock()
		return fault.NotInitialised
	}

	hash := s.Hash()

	if storage.Pool.Squeaks.Has(hash[:]) {
		globalData.Unlock()
		return fault.SqueakAlreadyStored
	}

	packed, err := s.Pack()
	if nil != err {
		globalData.Unlock()
		return err
	}

	storage.Pool.Squeaks.Put(hash[:], packed)
	storage.Pool.SqueakKeys.Put(hash[:], contentKey)
	verifier.MarkPending(hash)

	globalData.log.Infof("authored: %v", hash)
	messagebus.SqueakStored.Send("admission", hash)

	// verifier takes its own locks
	globalData.Unlock()

	err = verifier.Confirm(hash)
	if nil != err && fault.IsErrRetry(err) {
		verifier.Enqueue(hash)
	}
	return err
}
