// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"crypto/rand"
	"encoding/binary"
	"net"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"
	cache "github.com/patrickmn/go-cache"

	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/wire"
)

// link states
type connState int

const (
	stateHandshakeWait connState = iota
	stateActive
	stateClosed
)

const (
	handshakeTimeout = 30 * time.Second
	offerTimeout     = 2 * time.Minute

	// how long to suppress re-announcing a hash to the same peer
	recentExpiry  = 10 * time.Minute
	recentCleanup = 30 * time.Minute
)

// PeerLink - one bidirectional connection to a remote peer
//
// the receive loop processes frames strictly in arrival order; any
// transport error tears down this link only
type PeerLink struct {
	sync.Mutex // state

	log     *logger.L
	conn    net.Conn
	address string
	inbound bool
	connID  uint64 // connection manager id for managed outbound links

	state           connState
	versionReceived bool
	verackReceived  bool

	pingNonce uint64 // outstanding ping, zero when answered

	recent    *cache.Cache // hashes this peer is known to have
	offerWait map[digest.Digest]chan *wire.MessageOffer

	sendMu    sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

func newLink(conn net.Conn, inbound bool) *PeerLink {
	address := conn.RemoteAddr().String()
	l := &PeerLink{
		log:       logger.New("peer:" + address),
		conn:      conn,
		address:   address,
		inbound:   inbound,
		state:     stateHandshakeWait,
		recent:    cache.New(recentExpiry, recentCleanup),
		offerWait: map[digest.Digest]chan *wire.MessageOffer{},
		done:      make(chan struct{}),
	}
	return l
}

// start - begin the receive and liveness loops
func (l *PeerLink) start() {
	direction := "inbound"
	if !l.inbound {
		direction = "outbound"
	}
	l.log.Infof("new %s link", direction)

	globalData.links.Add(l.address, l)
	if l.inbound {
		globalData.inboundCount.Increment()
	} else {
		globalData.outboundCount.Increment()
	}

	// the initiator opens the handshake
	if !l.inbound {
		if err := l.sendVersion(); nil != err {
			l.Teardown()
			return
		}
	}

	go l.receiveLoop()
	go l.livenessLoop()
}

// Address - remote host:port
func (l *PeerLink) Address() string {
	return l.address
}

// IsActive - handshake completed and link not torn down
func (l *PeerLink) IsActive() bool {
	l.Lock()
	defer l.Unlock()
	return stateActive == l.state
}

// Send - write one frame; an error here is fatal to the link
func (l *PeerLink) Send(msg wire.Message) error {
	l.sendMu.Lock()
	defer l.sendMu.Unlock()

	err := wire.WriteMessage(l.conn, globalData.magic, msg)
	if nil != err {
		return err
	}
	globalData.sentCount.Increment()
	return nil
}

// Teardown - close the connection and forget the link
func (l *PeerLink) Teardown() {
	l.closeOnce.Do(func() {
		l.Lock()
		l.state = stateClosed
		waiting := l.offerWait
		l.offerWait = map[digest.Digest]chan *wire.MessageOffer{}
		l.Unlock()

		close(l.done)
		l.conn.Close()
		globalData.links.Delete(l.address)
		if 0 != l.connID && nil != globalData.connManager {
			globalData.connManager.Disconnect(l.connID)
		}
		if l.inbound {
			globalData.inboundCount.Decrement()
		} else {
			globalData.outboundCount.Decrement()
		}
		for _, ch := range waiting {
			close(ch)
		}
		l.log.Info("closed")
	})
}

func (l *PeerLink) receiveLoop() {
	for {
		msg, err := wire.ReadMessage(l.conn, globalData.magic)
		if nil != err {
			l.log.Infof("receive error: %s", err)
			l.Teardown()
			return
		}
		globalData.receivedCount.Increment()

		if err := l.handle(msg); nil != err {
			l.log.Warnf("fatal protocol error: %s", err)
			l.Teardown()
			return
		}
	}
}

// livenessLoop - ping on a fixed interval; a missed pong before the
// next ping is due means the peer is dead
func (l *PeerLink) livenessLoop() {
	handshake := time.After(handshakeTimeout)
	ticker := time.NewTicker(globalData.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return

		case <-handshake:
			if !l.IsActive() {
				l.log.Warn("handshake timeout")
				l.Teardown()
				return
			}

		case <-ticker.C:
			if !l.IsActive() {
				continue
			}
			l.Lock()
			missed := 0 != l.pingNonce
			nonce := randomNonce()
			l.pingNonce = nonce
			l.Unlock()

			if missed {
				l.log.Warn("missed pong, closing")
				l.Teardown()
				return
			}
			if err := l.Send(&wire.MessagePing{Nonce: nonce}); nil != err {
				l.Teardown()
				return
			}
		}
	}
}

func (l *PeerLink) sendVersion() error {
	return l.Send(&wire.MessageVersion{
		Protocol:  wire.ProtocolVersion,
		Nonce:     globalData.nonce,
		UserAgent: globalData.userAgent,
		Timestamp: time.Now().Unix(),
	})
}

// knows - true if this peer already has the hash
func (l *PeerLink) knows(hash digest.Digest) bool {
	_, ok := l.recent.Get(string(hash[:]))
	return ok
}

func (l *PeerLink) markKnown(hash digest.Digest) {
	l.recent.Set(string(hash[:]), struct{}{}, cache.DefaultExpiration)
}

// RequestOffer - send a buy request and wait for the matching offer
func (l *PeerLink) RequestOffer(hash digest.Digest, challenge []byte) (*wire.MessageOffer, error) {
	reply := make(chan *wire.MessageOffer, 1)

	l.Lock()
	if stateActive != l.state {
		l.Unlock()
		return nil, fault.ConnectionIsClosed
	}
	l.offerWait[hash] = reply
	l.Unlock()

	defer func() {
		l.Lock()
		delete(l.offerWait, hash)
		l.Unlock()
	}()

	err := l.Send(&wire.MessageGetOffer{Hash: hash, Challenge: challenge})
	if nil != err {
		return nil, err
	}

	select {
	case offer, ok := <-reply:
		if !ok {
			return nil, fault.ConnectionIsClosed
		}
		return offer, nil
	case <-l.done:
		return nil, fault.ConnectionIsClosed
	case <-time.After(offerTimeout):
		return nil, fault.InvalidPeerResponse
	}
}

func randomNonce() uint64 {
	buffer := [8]byte{}
	if _, err := rand.Read(buffer[:]); nil != err {
		logger.Panicf("random nonce error: %s", err)
	}
	n := binary.LittleEndian.Uint64(buffer[:])
	if 0 == n {
		n = 1
	}
	return n
}
