// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package verifier

import (
	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/messagebus"
	"github.com/squeaknet/squeakd/squeakrecord"
	"github.com/squeaknet/squeakd/storage"
)

// Confirm - check a stored squeak's claimed block hash against the oracle
//
// returns nil once the squeak is confirmed; a retryable error while
// the oracle cannot answer (the squeak stays pending); a permanent
// error on hash mismatch (the squeak is marked unconfirmable)
func Confirm(hash digest.Digest) error {
	globalData.RLock()
	oracle := globalData.oracle
	initialised := globalData.initialised
	globalData.RUnlock()

	if !initialised {
		return fault.NotInitialised
	}

	// monotonic: a confirmed squeak is never re-checked
	switch status, ok := StatusOf(hash); {
	case ok && StatusConfirmed == status:
		return nil
	case ok && StatusUnconfirmable == status:
		return fault.SqueakIsUnconfirmable
	}

	packed := storage.Pool.Squeaks.Get(hash[:])
	if nil == packed {
		return fault.SqueakNotFound
	}

	s, err := squeakrecord.Unpack(packed)
	if nil != err {
		return err
	}

	blockHash, err := oracle.BlockHash(s.BlockHeight)
	if nil != err {
		// transient: squeak stays pending, caller retries
		return err
	}

	if blockHash != s.BlockHash {
		storage.Pool.SqueakStatus.Put(hash[:], []byte{byte(StatusUnconfirmable)})
		return fault.BlockHashMismatch
	}

	storage.Pool.SqueakStatus.Put(hash[:], []byte{byte(StatusConfirmed)})
	messagebus.SqueakConfirmed.Send("verifier", hash)

	return nil
}
