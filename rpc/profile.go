// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/rpc/ratelimit"
	"github.com/squeaknet/squeakd/wallet"
)

const (
	rateLimitProfile = 200
	rateBurstProfile = 100
)

// Profile - type for rpc calls
type Profile struct {
	Log     *logger.L
	Limiter *rate.Limiter
}

// NewProfile - create the profile service
func NewProfile(log *logger.L) *Profile {
	return &Profile{
		Log:     log,
		Limiter: rate.NewLimiter(rateLimitProfile, rateBurstProfile),
	}
}

// ProfileRecord - one profile as seen over the rpc
type ProfileRecord struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Following bool   `json:"following"`
	Signing   bool   `json:"signing"`
}

// ---

// StoreArguments - create or replace a profile
type StoreArguments struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	Following bool   `json:"following"`
}

// StoreReply - confirmation
type StoreReply struct {
	Stored bool `json:"stored"`
}

// Store - save a contact profile
func (profile *Profile) Store(arguments *StoreArguments, reply *StoreReply) error {
	if err := ratelimit.Limit(profile.Limiter); nil != err {
		return err
	}

	publicKey, err := wallet.DecodeAddress(arguments.Address)
	if nil != err {
		return err
	}

	err = wallet.StoreProfile(&wallet.Profile{
		Name:      arguments.Name,
		PublicKey: publicKey,
		Following: arguments.Following,
	})
	if nil != err {
		return err
	}

	reply.Stored = true
	return nil
}

// ---

// GetProfileArguments - profile lookup by address
type GetProfileArguments struct {
	Address string `json:"address"`
}

// Get - fetch one profile
func (profile *Profile) Get(arguments *GetProfileArguments, reply *ProfileRecord) error {
	if err := ratelimit.Limit(profile.Limiter); nil != err {
		return err
	}

	publicKey, err := wallet.DecodeAddress(arguments.Address)
	if nil != err {
		return err
	}

	p, err := wallet.GetProfile(publicKey)
	if nil != err {
		return err
	}

	reply.Name = p.Name
	reply.Address = wallet.Address(p.PublicKey)
	reply.Following = p.Following
	reply.Signing = p.IsSigning()
	return nil
}

// ---

// ListArguments - empty, reserved
type ListArguments struct{}

// ListReply - all stored profiles
type ListReply struct {
	Profiles []ProfileRecord `json:"profiles"`
}

// List - all profiles
func (profile *Profile) List(arguments *ListArguments, reply *ListReply) error {
	if err := ratelimit.Limit(profile.Limiter); nil != err {
		return err
	}

	for _, p := range wallet.Profiles() {
		reply.Profiles = append(reply.Profiles, ProfileRecord{
			Name:      p.Name,
			Address:   wallet.Address(p.PublicKey),
			Following: p.Following,
			Signing:   p.IsSigning(),
		})
	}
	return nil
}

// ---

// FollowArguments - follow flag update
type FollowArguments struct {
	Address   string `json:"address"`
	Following bool   `json:"following"`
}

// FollowReply - confirmation
type FollowReply struct {
	Following bool `json:"following"`
}

// Follow - toggle relayed content acceptance for an author
func (profile *Profile) Follow(arguments *FollowArguments, reply *FollowReply) error {
	if err := ratelimit.Limit(profile.Limiter); nil != err {
		return err
	}

	publicKey, err := wallet.DecodeAddress(arguments.Address)
	if nil != err {
		return err
	}

	if err := wallet.SetFollowing(publicKey, arguments.Following); nil != err {
		return err
	}

	reply.Following = arguments.Following
	return nil
}

// ---

// DeleteProfileArguments - profile removal
type DeleteProfileArguments struct {
	Address string `json:"address"`
}

// DeleteProfileReply - confirmation
type DeleteProfileReply struct {
	Deleted bool `json:"deleted"`
}

// Delete - remove a profile
func (profile *Profile) Delete(arguments *DeleteProfileArguments, reply *DeleteProfileReply) error {
	if err := ratelimit.Limit(profile.Limiter); nil != err {
		return err
	}

	publicKey, err := wallet.DecodeAddress(arguments.Address)
	if nil != err {
		return err
	}

	wallet.DeleteProfile(publicKey)
	reply.Deleted = true
	return nil
}
