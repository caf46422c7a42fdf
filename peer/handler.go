// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"bytes"
	"net"
	"strconv"
	"time"

	"github.com/squeaknet/squeakd/admission"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/payment"
	"github.com/squeaknet/squeakd/squeakrecord"
	"github.com/squeaknet/squeakd/storage"
	"github.com/squeaknet/squeakd/wallet"
	"github.com/squeaknet/squeakd/wire"
)

// handle - dispatch one decoded frame
//
// a returned error is fatal to the link.  before the handshake
// completes only version and verack are legal; after it, handlers
// fail soft: a malformed or unserviceable request is logged and
// dropped, never fatal
func (l *PeerLink) handle(msg wire.Message) error {

	switch m := msg.(type) {
	case *wire.MessageVersion:
		return l.onVersion(m)
	case *wire.MessageVerack:
		return l.onVerack()
	}

	l.Lock()
	active := stateActive == l.state
	l.Unlock()
	if !active {
		return fault.UnexpectedFrameType
	}

	switch m := msg.(type) {
	case *wire.MessagePing:
		return l.onPing(m)
	case *wire.MessagePong:
		l.onPong(m)
	case *wire.MessageAddr:
		l.onAddr(m)
	case *wire.MessageGetAddr:
		return l.onGetAddr()
	case *wire.MessageInv:
		return l.onInv(m)
	case *wire.MessageGetData:
		return l.onGetData(m)
	case *wire.MessageNotFound:
		l.onNotFound(m)
	case *wire.MessageGetSqueaks:
		return l.onGetSqueaks(m)
	case *wire.MessageSqueak:
		l.onSqueak(m)
	case *wire.MessageGetOffer:
		return l.onGetOffer(m)
	case *wire.MessageOffer:
		l.onOffer(m)
	default:
		// forward compatible: an unknown but well-framed command
		// from the same magic is ignored
		l.log.Debugf("ignored command: %q", msg.Command())
	}
	return nil
}

func (l *PeerLink) onVersion(m *wire.MessageVersion) error {
	l.Lock()
	if stateHandshakeWait != l.state || l.versionReceived {
		l.Unlock()
		return fault.UnexpectedFrameType
	}
	if m.Nonce == globalData.nonce {
		l.Unlock()
		return fault.InvalidConnection // connected to ourself
	}
	l.versionReceived = true
	l.Unlock()

	l.log.Infof("peer version: %d  agent: %q", m.Protocol, m.UserAgent)

	// the acceptor answers with its own version
	if l.inbound {
		if err := l.sendVersion(); nil != err {
			return err
		}
	}
	if err := l.Send(&wire.MessageVerack{}); nil != err {
		return err
	}
	return l.maybeActivate()
}

func (l *PeerLink) onVerack() error {
	l.Lock()
	if stateHandshakeWait != l.state || l.verackReceived {
		l.Unlock()
		return fault.UnexpectedFrameType
	}
	l.verackReceived = true
	l.Unlock()
	return l.maybeActivate()
}

// maybeActivate - two-way version/verack completes the handshake
func (l *PeerLink) maybeActivate() error {
	l.Lock()
	if !l.versionReceived || !l.verackReceived || stateHandshakeWait != l.state {
		l.Unlock()
		return nil
	}
	l.state = stateActive
	l.Unlock()

	l.log.Info("handshake complete")

	// seed the address book and catch up on followed authors
	if err := l.Send(&wire.MessageGetAddr{}); nil != err {
		return err
	}
	return l.sendLocator()
}

// sendLocator - pull-request squeaks for the follow set
func (l *PeerLink) sendLocator() error {
	keys := wallet.FollowedKeys()
	if 0 == len(keys) {
		return nil
	}
	locator := make([][32]byte, 0, len(keys))
	for _, key := range keys {
		if 32 != len(key) {
			continue
		}
		k := [32]byte{}
		copy(k[:], key)
		locator = append(locator, k)
	}
	return l.Send(&wire.MessageGetSqueaks{Locator: locator})
}

func (l *PeerLink) onPing(m *wire.MessagePing) error {
	return l.Send(&wire.MessagePong{Nonce: m.Nonce})
}

func (l *PeerLink) onPong(m *wire.MessagePong) {
	l.Lock()
	defer l.Unlock()
	if m.Nonce == l.pingNonce {
		l.pingNonce = 0
		return
	}
	// unexpected or stale pong is logged and ignored
	l.log.Debugf("unexpected pong nonce: %d", m.Nonce)
}

func (l *PeerLink) onAddr(m *wire.MessageAddr) {
	for _, address := range m.Addresses {
		hostPort := net.JoinHostPort(address.Host, strconv.Itoa(int(address.Port)))
		if err := globalData.addrManager.AddAddressByIP(hostPort); nil != err {
			l.log.Debugf("ignored address: %s: %s", hostPort, err)
		}
	}
}

func (l *PeerLink) onGetAddr() error {
	known := globalData.addrManager.AddressCache()
	addresses := make([]wire.NetAddress, 0, len(known))
	for _, address := range known {
		if len(addresses) >= wire.MaximumAddresses {
			break
		}
		addresses = append(addresses, wire.NetAddress{
			Host: address.IP.String(),
			Port: address.Port,
		})
	}
	if 0 == len(addresses) {
		return nil
	}
	return l.Send(&wire.MessageAddr{Addresses: addresses})
}

// onInv - request exactly the unknown subset, never known content
func (l *PeerLink) onInv(m *wire.MessageInv) error {
	unknown := []wire.InvItem(nil)
	for _, item := range m.Items {
		if wire.InvTypeSqueak != item.Type {
			continue
		}
		// whatever happens next, the peer has this hash
		l.markKnown(item.Hash)

		if !storage.Pool.Squeaks.Has(item.Hash[:]) {
			unknown = append(unknown, item)
		}
	}
	if 0 == len(unknown) {
		return nil
	}
	return l.Send(&wire.MessageGetData{Items: unknown})
}

// onGetData - serve stored squeaks; echo anything missing as
// notfound so the requester's retry logic can move on
func (l *PeerLink) onGetData(m *wire.MessageGetData) error {
	missing := []wire.InvItem(nil)
	for _, item := range m.Items {
		if wire.InvTypeSqueak != item.Type {
			missing = append(missing, item)
			continue
		}
		packed := storage.Pool.Squeaks.Get(item.Hash[:])
		if nil == packed {
			missing = append(missing, item)
			continue
		}
		l.markKnown(item.Hash)
		if err := l.Send(&wire.MessageSqueak{Payload: packed}); nil != err {
			return err
		}
	}
	if 0 == len(missing) {
		return nil
	}
	return l.Send(&wire.MessageNotFound{Items: missing})
}

func (l *PeerLink) onNotFound(m *wire.MessageNotFound) {
	for _, item := range m.Items {
		l.log.Debugf("not found: %v", item.Hash)
	}
}

// onGetSqueaks - enumerate stored squeaks for the requested authors
func (l *PeerLink) onGetSqueaks(m *wire.MessageGetSqueaks) error {
	if 0 == len(m.Locator) {
		return nil
	}

	items := []wire.InvItem(nil)
	storage.Pool.Squeaks.Range(func(key []byte, value []byte) bool {
		s, err := squeakrecord.Unpack(value)
		if nil != err {
			return true
		}
		for _, author := range m.Locator {
			if bytes.Equal(author[:], s.Author) {
				items = append(items, wire.InvItem{
					Type: wire.InvTypeSqueak,
					Hash: s.Hash(),
				})
				break
			}
		}
		return len(items) < wire.MaximumInvItems
	})

	if 0 == len(items) {
		return nil
	}
	return l.Send(&wire.MessageInv{Items: items})
}

// onSqueak - hand the record to admission; relay happens via the
// confirmed topic, never before admission succeeds
func (l *PeerLink) onSqueak(m *wire.MessageSqueak) {
	s, err := squeakrecord.Unpack(m.Payload)
	if nil != err {
		l.log.Warnf("malformed squeak: %s", err)
		return
	}

	hash := s.Hash()
	l.markKnown(hash)

	err = admission.SubmitReceived(s)
	if nil != err {
		l.log.Debugf("rejected squeak: %v: %s", hash, err)
	}
}

// onGetOffer - sell side of the unlock protocol
func (l *PeerLink) onGetOffer(m *wire.MessageGetOffer) error {
	offer, err := payment.CreateOffer(m.Hash, m.Challenge, l.address)
	if nil != err {
		// typed rejection, nothing to sell to this peer
		l.log.Debugf("no offer: %v: %s", m.Hash, err)
		if fault.IsErrNotFound(err) {
			return l.Send(&wire.MessageNotFound{Items: []wire.InvItem{
				{Type: wire.InvTypeSqueak, Hash: m.Hash},
			}})
		}
		return nil
	}

	return l.Send(&wire.MessageOffer{
		Hash:          offer.SqueakHash,
		PaymentHash:   offer.PaymentHash,
		Price:         offer.Price,
		Invoice:       offer.Invoice,
		Proof:         offer.Proof,
		KeyCiphertext: offer.KeyCiphertext,
		Host:          offer.Host,
		Port:          offer.Port,
		Expiry:        time.Now().Add(offer.Expiry).Unix(),
	})
}

// onOffer - deliver a sell offer to the waiting buy request
func (l *PeerLink) onOffer(m *wire.MessageOffer) {
	l.Lock()
	reply, ok := l.offerWait[m.Hash]
	if ok {
		delete(l.offerWait, m.Hash)
	}
	l.Unlock()

	if !ok {
		l.log.Debugf("unsolicited offer: %v", m.Hash)
		return
	}
	reply <- m
}
