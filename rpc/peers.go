// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"encoding/json"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/peer"
	"github.com/squeaknet/squeakd/rpc/ratelimit"
	"github.com/squeaknet/squeakd/storage"
	"github.com/squeaknet/squeakd/util"
)

const (
	rateLimitPeer = 200
	rateBurstPeer = 100
)

// Peer - type for rpc calls
type Peer struct {
	Log     *logger.L
	Limiter *rate.Limiter
}

// NewPeer - create the peer service
func NewPeer(log *logger.L) *Peer {
	return &Peer{
		Log:     log,
		Limiter: rate.NewLimiter(rateLimitPeer, rateBurstPeer),
	}
}

// savedPeer - a peer the operator asked to keep connecting to
type savedPeer struct {
	Address string `json:"address"`
	Added   int64  `json:"added"`
}

// ---

// ConnectArguments - peer to connect to
type ConnectArguments struct {
	Address string `json:"address"` // host:port
	Save    bool   `json:"save"`    // reconnect on restart
}

// ConnectReply - confirmation
type ConnectReply struct {
	Connected bool `json:"connected"`
}

// Connect - dial a peer, optionally saving it
func (p *Peer) Connect(arguments *ConnectArguments, reply *ConnectReply) error {
	if err := ratelimit.Limit(p.Limiter); nil != err {
		return err
	}

	if err := peer.ConnectTo(arguments.Address); nil != err {
		return err
	}

	if arguments.Save {
		record, err := json.Marshal(savedPeer{
			Address: arguments.Address,
			Added:   time.Now().Unix(),
		})
		if nil != err {
			return err
		}
		storage.Pool.Peers.Put([]byte(arguments.Address), record)
	}

	reply.Connected = true
	return nil
}

// ---

// DisconnectArguments - peer to drop
type DisconnectArguments struct {
	Address string `json:"address"`
}

// DisconnectReply - confirmation
type DisconnectReply struct {
	Disconnected bool `json:"disconnected"`
}

// Disconnect - drop a peer and forget any saved record of it
func (p *Peer) Disconnect(arguments *DisconnectArguments, reply *DisconnectReply) error {
	if err := ratelimit.Limit(p.Limiter); nil != err {
		return err
	}

	if _, _, err := util.SplitHostAndPort(arguments.Address); nil != err {
		return err
	}

	peer.DisconnectFrom(arguments.Address)
	storage.Pool.Peers.Delete([]byte(arguments.Address))

	reply.Disconnected = true
	return nil
}

// ---

// PeerListArguments - empty, reserved
type PeerListArguments struct{}

// PeerListReply - active and saved peers
type PeerListReply struct {
	Active []string `json:"active"`
	Saved  []string `json:"saved"`
}

// List - active connections and saved peers
func (p *Peer) List(arguments *PeerListArguments, reply *PeerListReply) error {
	if err := ratelimit.Limit(p.Limiter); nil != err {
		return err
	}

	reply.Active = peer.ActivePeers()

	storage.Pool.Peers.Range(func(key []byte, value []byte) bool {
		saved := savedPeer{}
		if err := json.Unmarshal(value, &saved); nil == err {
			reply.Saved = append(reply.Saved, saved.Address)
		}
		return true
	})

	return nil
}

// SavedPeers - addresses the daemon reconnects to at start
func SavedPeers() []string {
	addresses := []string(nil)
	storage.Pool.Peers.Range(func(key []byte, value []byte) bool {
		saved := savedPeer{}
		if err := json.Unmarshal(value, &saved); nil == err {
			addresses = append(addresses, saved.Address)
		}
		return true
	})
	return addresses
}
