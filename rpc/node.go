// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"encoding/hex"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/mode"
	"github.com/squeaknet/squeakd/peer"
	"github.com/squeaknet/squeakd/rpc/ratelimit"
	"github.com/squeaknet/squeakd/storage"
	"github.com/squeaknet/squeakd/wallet"
)

const (
	rateLimitNode = 200
	rateBurstNode = 100
)

// Node - type for rpc calls
type Node struct {
	Log     *logger.L
	Limiter *rate.Limiter
	Start   time.Time
	Version string
}

// NewNode - create the node service
func NewNode(log *logger.L, start time.Time, version string) *Node {
	return &Node{
		Log:     log,
		Limiter: rate.NewLimiter(rateLimitNode, rateBurstNode),
		Start:   start,
		Version: version,
	}
}

// InfoArguments - empty, reserved
type InfoArguments struct{}

// InfoReply - daemon status summary
type InfoReply struct {
	Version     string          `json:"version"`
	Network     string          `json:"network"`
	Mode        string          `json:"mode"`
	Uptime      string          `json:"uptime"`
	Address     string          `json:"address"`
	PublicKey   string          `json:"publicKey"`
	Peers       []string        `json:"peers"`
	Connections InfoConnections `json:"connections"`
	Squeaks     int             `json:"squeaks"`
}

// InfoConnections - traffic counters
type InfoConnections struct {
	Inbound  uint64 `json:"inbound"`
	Outbound uint64 `json:"outbound"`
	Received uint64 `json:"received"`
	Sent     uint64 `json:"sent"`
}

// Info - node status
func (node *Node) Info(arguments *InfoArguments, reply *InfoReply) error {
	if err := ratelimit.Limit(node.Limiter); nil != err {
		return err
	}

	publicKey := wallet.PublicKey()
	statistics := peer.GetStatistics()

	reply.Version = node.Version
	reply.Network = mode.NetworkName()
	reply.Mode = mode.String()
	reply.Uptime = time.Since(node.Start).String()
	reply.Address = wallet.Address(publicKey)
	reply.PublicKey = hex.EncodeToString(publicKey)
	reply.Peers = peer.ActivePeers()
	reply.Connections = InfoConnections{
		Inbound:  statistics.Inbound,
		Outbound: statistics.Outbound,
		Received: statistics.Received,
		Sent:     statistics.Sent,
	}
	reply.Squeaks = storage.Pool.Squeaks.Count()

	return nil
}
