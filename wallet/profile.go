// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"encoding/json"

	"golang.org/x/crypto/ed25519"

	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/messagebus"
	"github.com/squeaknet/squeakd/storage"
)

// Profile - one known identity
//
// a signing profile carries a private key seed; a contact profile
// carries only the public key; never both meanings at once
type Profile struct {
	Name      string `json:"name"`
	PublicKey []byte `json:"public_key"`
	Following bool   `json:"following"`
	Seed      []byte `json:"seed,omitempty"`
}

// IsSigning - true for a profile the node can author squeaks as
func (p *Profile) IsSigning() bool {
	return 0 != len(p.Seed)
}

// StoreProfile - create or replace a profile record
func StoreProfile(p *Profile) error {
	if ed25519.PublicKeySize != len(p.PublicKey) {
		return fault.InvalidPublicKey
	}
	if 0 != len(p.Seed) && ed25519.SeedSize != len(p.Seed) {
		return fault.InvalidPrivateKey
	}

	data, err := json.Marshal(p)
	if nil != err {
		return err
	}

	storage.Pool.Profiles.Put(p.PublicKey, data)
	messagebus.FollowsChanged.Send("wallet", p.PublicKey)
	return nil
}

// GetProfile - fetch a profile by public key
func GetProfile(publicKey []byte) (*Profile, error) {
	data := storage.Pool.Profiles.Get(publicKey)
	if nil == data {
		return nil, fault.ProfileNotFound
	}

	p := &Profile{}
	if err := json.Unmarshal(data, p); nil != err {
		return nil, err
	}
	return p, nil
}

// DeleteProfile - remove a profile by public key
func DeleteProfile(publicKey []byte) {
	storage.Pool.Profiles.Delete(publicKey)
	messagebus.FollowsChanged.Send("wallet", publicKey)
}

// SetFollowing - toggle the follow flag on an existing profile
func SetFollowing(publicKey []byte, following bool) error {
	p, err := GetProfile(publicKey)
	if nil != err {
		return err
	}
	if p.Following == following {
		return nil
	}
	p.Following = following
	return StoreProfile(p)
}

// IsFollowed - true if relayed content from this author is accepted
func IsFollowed(publicKey []byte) bool {
	p, err := GetProfile(publicKey)
	if nil != err {
		return false
	}
	return p.Following
}

// FollowedKeys - public keys of every followed profile
func FollowedKeys() [][]byte {
	keys := [][]byte(nil)
	storage.Pool.Profiles.Range(func(key []byte, value []byte) bool {
		p := &Profile{}
		if err := json.Unmarshal(value, p); nil == err && p.Following {
			keys = append(keys, p.PublicKey)
		}
		return true
	})
	return keys
}

// Profiles - every stored profile
func Profiles() []Profile {
	profiles := []Profile(nil)
	storage.Pool.Profiles.Range(func(key []byte, value []byte) bool {
		p := Profile{}
		if err := json.Unmarshal(value, &p); nil == err {
			profiles = append(profiles, p)
		}
		return true
	})
	return profiles
}
