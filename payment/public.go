// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payment

import (
	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/storage"
)

// MakeKeyPublic - give a squeak's content key away for free
//
// irreversible: once public the squeak can never be offered for sale
func MakeKeyPublic(squeakHash digest.Digest) error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	contentKey := storage.Pool.SqueakKeys.Get(squeakHash[:])
	if nil == contentKey {
		return fault.SqueakNotFound
	}
	if !storage.Pool.PublicKeys.PutIfAbsent(squeakHash[:], contentKey) {
		return fault.KeyAlreadyPublic
	}
	return nil
}

// PublicContentKey - the freely released key, if any
func PublicContentKey(squeakHash digest.Digest) ([]byte, bool) {
	contentKey := storage.Pool.PublicKeys.Get(squeakHash[:])
	return contentKey, nil != contentKey
}
