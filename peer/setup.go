// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package peer - the gossip layer
//
// inbound links come from the TCP listeners; outbound links are
// dialled by the connection manager from the address book.  each
// link runs its own receive loop so one slow or dead peer never
// blocks another
package peer

import (
	"net"
	"sync"
	"time"

	"github.com/btcsuite/btcd/addrmgr"
	"github.com/btcsuite/btcd/connmgr"
	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/background"
	"github.com/squeaknet/squeakd/counter"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/mode"
	"github.com/squeaknet/squeakd/util"
	"github.com/squeaknet/squeakd/version"
	"github.com/squeaknet/squeakd/wire"
)

const (
	defaultMaximumOutbound = 8
	defaultSyncInterval    = 5 * time.Minute
	defaultPingInterval    = 2 * time.Minute
	retryDuration          = 30 * time.Second

	// do not redial an address attempted this recently
	attemptCooldown = 10 * time.Minute
)

// Configuration - structure for configuration file
type Configuration struct {
	Listen          []string `gluamapper:"listen" json:"listen"`
	Connect         []string `gluamapper:"connect" json:"connect"`
	DataDirectory   string   `gluamapper:"data_directory" json:"data_directory"`
	MaximumOutbound int      `gluamapper:"maximum_outbound" json:"maximum_outbound"`
	SyncInterval    int      `gluamapper:"sync_interval" json:"sync_interval"` // seconds
	PingInterval    int      `gluamapper:"ping_interval" json:"ping_interval"` // seconds
}

type peerData struct {
	sync.RWMutex // to allow locking

	log          *logger.L
	magic        [4]byte
	nonce        uint64 // our handshake nonce, detects self connection
	userAgent    string
	pingInterval time.Duration

	links         *linkMap
	addrManager   *addrmgr.AddrManager
	connManager   *connmgr.ConnManager
	listeners     []net.Listener

	inboundCount  counter.Counter
	outboundCount counter.Counter
	receivedCount counter.Counter
	sentCount     counter.Counter

	// for background
	background *background.T

	// set once during initialise
	initialised bool
}

// global data
var globalData peerData

// Initialise - start the peer system
func Initialise(configuration *Configuration) error {
	globalData.Lock()
	defer globalData.Unlock()

	// no need to start if already started
	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("peer")
	globalData.log.Info("starting…")

	globalData.magic = wire.MagicForNetwork(mode.NetworkName())
	globalData.nonce = randomNonce()
	globalData.userAgent = "squeakd/" + version.Major + "." + version.Minor
	globalData.pingInterval = time.Duration(configuration.PingInterval) * time.Second
	if 0 == configuration.PingInterval {
		globalData.pingInterval = defaultPingInterval
	}
	globalData.links = newLinkMap()

	globalData.addrManager = addrmgr.New(configuration.DataDirectory, nil)

	listeners := []net.Listener(nil)
	for _, address := range configuration.Listen {
		canonical, err := util.CanonicalIPandPort(address)
		if nil != err {
			return err
		}
		listen, err := net.Listen("tcp", canonical)
		if nil != err {
			for _, l := range listeners {
				l.Close()
			}
			return err
		}
		globalData.log.Infof("listening on: %s", canonical)
		listeners = append(listeners, listen)
	}
	globalData.listeners = listeners

	targetOutbound := configuration.MaximumOutbound
	if 0 == targetOutbound {
		targetOutbound = defaultMaximumOutbound
	}

	addrManager := globalData.addrManager
	links := globalData.links
	var attemptLock sync.Mutex

	connManager, err := connmgr.New(&connmgr.Config{
		Listeners:      listeners,
		OnAccept:       onAccept,
		TargetOutbound: uint32(targetOutbound),
		RetryDuration:  retryDuration,
		OnConnection:   onConnection,
		GetNewAddress: func() (net.Addr, error) {
			ka := addrManager.GetAddress()
			if nil == ka {
				return nil, fault.NoConnectionsAvailable
			}
			address := ka.NetAddress()
			addr := &net.TCPAddr{
				IP:   address.IP,
				Port: int(address.Port),
			}

			attemptLock.Lock()
			defer attemptLock.Unlock()

			if time.Since(ka.LastAttempt()) < attemptCooldown {
				return nil, fault.NoConnectionsAvailable
			}
			if links.Exist(addr.String()) {
				return nil, fault.NoConnectionsAvailable
			}

			addrManager.Attempt(address)
			return addr, nil
		},
		Dial: func(addr net.Addr) (net.Conn, error) {
			return net.Dial("tcp", addr.String())
		},
	})
	if nil != err {
		return err
	}
	globalData.connManager = connManager

	globalData.addrManager.Start()
	globalData.connManager.Start()

	// static peers are permanent: redialled whenever they drop;
	// DNS names are allowed here
	for _, address := range configuration.Connect {
		if _, _, err := util.SplitHostAndPort(address); nil != err {
			globalData.log.Errorf("bad static peer: %q: %s", address, err)
			continue
		}
		addr, err := net.ResolveTCPAddr("tcp", address)
		if nil != err {
			globalData.log.Errorf("bad static peer: %q: %s", address, err)
			continue
		}
		go globalData.connManager.Connect(&connmgr.ConnReq{
			Addr:      addr,
			Permanent: true,
		})
	}

	syncInterval := time.Duration(configuration.SyncInterval) * time.Second
	if 0 == configuration.SyncInterval {
		syncInterval = defaultSyncInterval
	}

	// all data initialised
	globalData.initialised = true

	processes := background.Processes{
		&relayer{},
		&background.Periodic{
			Name:       "peer-sync",
			Interval:   syncInterval,
			RunAtStart: true,
			Task:       syncTask,
		},
	}

	globalData.background = background.Start(processes, nil)

	return nil
}

// Finalise - stop all background tasks and close every link
func Finalise() error {
	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.background.Stop()

	globalData.connManager.Stop()
	globalData.addrManager.Stop()
	for _, listen := range globalData.listeners {
		listen.Close()
	}
	globalData.links.Range(func(addr string, l *PeerLink) {
		l.Teardown()
	})

	// finally...
	globalData.initialised = false

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}

func onAccept(conn net.Conn) {
	newLink(conn, true).start()
}

func onConnection(req *connmgr.ConnReq, conn net.Conn) {
	l := newLink(conn, false)
	l.connID = req.ID()
	l.start()
}

// ConnectTo - open an outbound link to a specific peer
func ConnectTo(address string) error {
	globalData.RLock()
	initialised := globalData.initialised
	globalData.RUnlock()
	if !initialised {
		return fault.NotInitialised
	}

	if _, _, err := util.SplitHostAndPort(address); nil != err {
		return err
	}
	if globalData.links.Exist(address) {
		return nil
	}

	conn, err := net.Dial("tcp", address)
	if nil != err {
		return err
	}
	newLink(conn, false).start()
	return nil
}

// DisconnectFrom - tear down the link to a peer, if connected
func DisconnectFrom(address string) {
	if l := globalData.links.Get(address); nil != l {
		l.Teardown()
	}
}

// ActivePeers - addresses of all links past the handshake
func ActivePeers() []string {
	peers := []string(nil)
	globalData.links.Range(func(addr string, l *PeerLink) {
		if l.IsActive() {
			peers = append(peers, addr)
		}
	})
	return peers
}

// Statistics - connection and traffic counters
type Statistics struct {
	Inbound  uint64
	Outbound uint64
	Received uint64
	Sent     uint64
}

// GetStatistics - snapshot of the counters
func GetStatistics() Statistics {
	return Statistics{
		Inbound:  globalData.inboundCount.Uint64(),
		Outbound: globalData.outboundCount.Uint64(),
		Received: globalData.receivedCount.Uint64(),
		Sent:     globalData.sentCount.Uint64(),
	}
}
