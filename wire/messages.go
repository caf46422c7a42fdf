// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"encoding/binary"
	"io"

	btcwire "github.com/btcsuite/btcd/wire"

	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fault"
)

// all wire commands
const (
	CommandVersion    = "version"
	CommandVerack     = "verack"
	CommandPing       = "ping"
	CommandPong       = "pong"
	CommandAddr       = "addr"
	CommandGetAddr    = "getaddr"
	CommandInv        = "inv"
	CommandGetData    = "getdata"
	CommandNotFound   = "notfound"
	CommandGetSqueaks = "getsqueaks"
	CommandSqueak     = "squeak"
	CommandGetOffer   = "getoffer"
	CommandOffer      = "offer"
)

// inventory item types
const (
	InvTypeSqueak uint32 = 1
)

// payload limits
const (
	MaximumAddresses    = 1000
	MaximumInvItems     = 50000
	MaximumLocatorKeys  = 1000
	MaximumChallengeLen = 128
	maximumStringLen    = 256
)

// NetAddress - an announced peer endpoint
type NetAddress struct {
	Host string
	Port uint16
}

// InvItem - one typed inventory entry
type InvItem struct {
	Type uint32
	Hash digest.Digest
}

// MessageVersion - handshake opening
type MessageVersion struct {
	Protocol  uint32
	Nonce     uint64
	UserAgent string
	Timestamp int64
}

// MessageVerack - handshake acknowledgement
type MessageVerack struct{}

// MessagePing - liveness probe
type MessagePing struct {
	Nonce uint64
}

// MessagePong - liveness reply
type MessagePong struct {
	Nonce uint64
}

// MessageAddr - peer endpoint gossip
type MessageAddr struct {
	Addresses []NetAddress
}

// MessageGetAddr - request for endpoint gossip
type MessageGetAddr struct{}

// MessageInv - inventory announcement
type MessageInv struct {
	Items []InvItem
}

// MessageGetData - request for announced content
type MessageGetData struct {
	Items []InvItem
}

// MessageNotFound - requested content no longer present
type MessageNotFound struct {
	Items []InvItem
}

// MessageGetSqueaks - pull-sync by author interest set
type MessageGetSqueaks struct {
	Locator [][32]byte
}

// MessageSqueak - one packed squeak record
type MessageSqueak struct {
	Payload []byte
}

// MessageGetOffer - buy request for a stored squeak
type MessageGetOffer struct {
	Hash      digest.Digest
	Challenge []byte
}

// MessageOffer - sell offer reply
type MessageOffer struct {
	Hash          digest.Digest
	PaymentHash   [32]byte
	Price         uint64 // millisatoshi
	Invoice       string
	Proof         []byte
	KeyCiphertext []byte
	Host          string
	Port          uint16
	Expiry        int64 // unix seconds, invoice expiry
}

// Command - implementations of the Message interface

func (m *MessageVersion) Command() string    { return CommandVersion }
func (m *MessageVerack) Command() string     { return CommandVerack }
func (m *MessagePing) Command() string       { return CommandPing }
func (m *MessagePong) Command() string       { return CommandPong }
func (m *MessageAddr) Command() string       { return CommandAddr }
func (m *MessageGetAddr) Command() string    { return CommandGetAddr }
func (m *MessageInv) Command() string        { return CommandInv }
func (m *MessageGetData) Command() string    { return CommandGetData }
func (m *MessageNotFound) Command() string   { return CommandNotFound }
func (m *MessageGetSqueaks) Command() string { return CommandGetSqueaks }
func (m *MessageSqueak) Command() string     { return CommandSqueak }
func (m *MessageGetOffer) Command() string   { return CommandGetOffer }
func (m *MessageOffer) Command() string      { return CommandOffer }

// Encode - MessageVersion
func (m *MessageVersion) Encode(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, m.Protocol); nil != err {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.Nonce); nil != err {
		return err
	}
	if err := btcwire.WriteVarString(w, ProtocolVersion, m.UserAgent); nil != err {
		return err
	}
	return binary.Write(w, binary.LittleEndian, m.Timestamp)
}

// Decode - MessageVersion
func (m *MessageVersion) Decode(r io.Reader) error {
	if err := binary.Read(r, binary.LittleEndian, &m.Protocol); nil != err {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &m.Nonce); nil != err {
		return err
	}
	userAgent, err := btcwire.ReadVarString(r, ProtocolVersion)
	if nil != err {
		return err
	}
	if len(userAgent) > maximumStringLen {
		return fault.MessageTooLong
	}
	m.UserAgent = userAgent
	return binary.Read(r, binary.LittleEndian, &m.Timestamp)
}

func (m *MessageVerack) Encode(w io.Writer) error { return nil }
func (m *MessageVerack) Decode(r io.Reader) error { return nil }

func (m *MessagePing) Encode(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, m.Nonce)
}

func (m *MessagePing) Decode(r io.Reader) error {
	return binary.Read(r, binary.LittleEndian, &m.Nonce)
}

func (m *MessagePong) Encode(w io.Writer) error {
	return binary.Write(w, binary.LittleEndian, m.Nonce)
}

func (m *MessagePong) Decode(r io.Reader) error {
	return binary.Read(r, binary.LittleEndian, &m.Nonce)
}

// Encode - MessageAddr
func (m *MessageAddr) Encode(w io.Writer) error {
	if err := btcwire.WriteVarInt(w, ProtocolVersion, uint64(len(m.Addresses))); nil != err {
		return err
	}
	for _, a := range m.Addresses {
		if err := btcwire.WriteVarString(w, ProtocolVersion, a.Host); nil != err {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, a.Port); nil != err {
			return err
		}
	}
	return nil
}

// Decode - MessageAddr
func (m *MessageAddr) Decode(r io.Reader) error {
	count, err := btcwire.ReadVarInt(r, ProtocolVersion)
	if nil != err {
		return err
	}
	if count > MaximumAddresses {
		return fault.MessageTooLong
	}
	addresses := make([]NetAddress, 0, count)
	for i := uint64(0); i < count; i += 1 {
		host, err := btcwire.ReadVarString(r, ProtocolVersion)
		if nil != err {
			return err
		}
		if len(host) > maximumStringLen {
			return fault.MessageTooLong
		}
		var port uint16
		if err := binary.Read(r, binary.LittleEndian, &port); nil != err {
			return err
		}
		addresses = append(addresses, NetAddress{Host: host, Port: port})
	}
	m.Addresses = addresses
	return nil
}

func (m *MessageGetAddr) Encode(w io.Writer) error { return nil }
func (m *MessageGetAddr) Decode(r io.Reader) error { return nil }

// shared encoding for inv/getdata/notfound item lists
func encodeInvItems(w io.Writer, items []InvItem) error {
	if err := btcwire.WriteVarInt(w, ProtocolVersion, uint64(len(items))); nil != err {
		return err
	}
	for _, item := range items {
		if err := binary.Write(w, binary.LittleEndian, item.Type); nil != err {
			return err
		}
		if _, err := w.Write(item.Hash[:]); nil != err {
			return err
		}
	}
	return nil
}

func decodeInvItems(r io.Reader) ([]InvItem, error) {
	count, err := btcwire.ReadVarInt(r, ProtocolVersion)
	if nil != err {
		return nil, err
	}
	if count > MaximumInvItems {
		return nil, fault.MessageTooLong
	}
	items := make([]InvItem, 0, count)
	for i := uint64(0); i < count; i += 1 {
		var item InvItem
		if err := binary.Read(r, binary.LittleEndian, &item.Type); nil != err {
			return nil, err
		}
		if _, err := io.ReadFull(r, item.Hash[:]); nil != err {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (m *MessageInv) Encode(w io.Writer) error { return encodeInvItems(w, m.Items) }
func (m *MessageInv) Decode(r io.Reader) error {
	items, err := decodeInvItems(r)
	m.Items = items
	return err
}

func (m *MessageGetData) Encode(w io.Writer) error { return encodeInvItems(w, m.Items) }
func (m *MessageGetData) Decode(r io.Reader) error {
	items, err := decodeInvItems(r)
	m.Items = items
	return err
}

func (m *MessageNotFound) Encode(w io.Writer) error { return encodeInvItems(w, m.Items) }
func (m *MessageNotFound) Decode(r io.Reader) error {
	items, err := decodeInvItems(r)
	m.Items = items
	return err
}

// Encode - MessageGetSqueaks
func (m *MessageGetSqueaks) Encode(w io.Writer) error {
	if err := btcwire.WriteVarInt(w, ProtocolVersion, uint64(len(m.Locator))); nil != err {
		return err
	}
	for _, k := range m.Locator {
		if _, err := w.Write(k[:]); nil != err {
			return err
		}
	}
	return nil
}

// Decode - MessageGetSqueaks
func (m *MessageGetSqueaks) Decode(r io.Reader) error {
	count, err := btcwire.ReadVarInt(r, ProtocolVersion)
	if nil != err {
		return err
	}
	if count > MaximumLocatorKeys {
		return fault.MessageTooLong
	}
	locator := make([][32]byte, count)
	for i := uint64(0); i < count; i += 1 {
		if _, err := io.ReadFull(r, locator[i][:]); nil != err {
			return err
		}
	}
	m.Locator = locator
	return nil
}

func (m *MessageSqueak) Encode(w io.Writer) error {
	return btcwire.WriteVarBytes(w, ProtocolVersion, m.Payload)
}

func (m *MessageSqueak) Decode(r io.Reader) error {
	payload, err := btcwire.ReadVarBytes(r, ProtocolVersion, MaximumPayloadSize, "squeak")
	m.Payload = payload
	return err
}

// Encode - MessageGetOffer
func (m *MessageGetOffer) Encode(w io.Writer) error {
	if _, err := w.Write(m.Hash[:]); nil != err {
		return err
	}
	return btcwire.WriteVarBytes(w, ProtocolVersion, m.Challenge)
}

// Decode - MessageGetOffer
func (m *MessageGetOffer) Decode(r io.Reader) error {
	if _, err := io.ReadFull(r, m.Hash[:]); nil != err {
		return err
	}
	challenge, err := btcwire.ReadVarBytes(r, ProtocolVersion, MaximumChallengeLen, "challenge")
	m.Challenge = challenge
	return err
}

// Encode - MessageOffer
func (m *MessageOffer) Encode(w io.Writer) error {
	if _, err := w.Write(m.Hash[:]); nil != err {
		return err
	}
	if _, err := w.Write(m.PaymentHash[:]); nil != err {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.Price); nil != err {
		return err
	}
	if err := btcwire.WriteVarString(w, ProtocolVersion, m.Invoice); nil != err {
		return err
	}
	if err := btcwire.WriteVarBytes(w, ProtocolVersion, m.Proof); nil != err {
		return err
	}
	if err := btcwire.WriteVarBytes(w, ProtocolVersion, m.KeyCiphertext); nil != err {
		return err
	}
	if err := btcwire.WriteVarString(w, ProtocolVersion, m.Host); nil != err {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, m.Port); nil != err {
		return err
	}
	return binary.Write(w, binary.LittleEndian, m.Expiry)
}

// Decode - MessageOffer
func (m *MessageOffer) Decode(r io.Reader) error {
	if _, err := io.ReadFull(r, m.Hash[:]); nil != err {
		return err
	}
	if _, err := io.ReadFull(r, m.PaymentHash[:]); nil != err {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, &m.Price); nil != err {
		return err
	}
	invoice, err := btcwire.ReadVarString(r, ProtocolVersion)
	if nil != err {
		return err
	}
	m.Invoice = invoice
	proof, err := btcwire.ReadVarBytes(r, ProtocolVersion, 4096, "proof")
	if nil != err {
		return err
	}
	m.Proof = proof
	keyCiphertext, err := btcwire.ReadVarBytes(r, ProtocolVersion, 4096, "key ciphertext")
	if nil != err {
		return err
	}
	m.KeyCiphertext = keyCiphertext
	host, err := btcwire.ReadVarString(r, ProtocolVersion)
	if nil != err {
		return err
	}
	if len(host) > maximumStringLen {
		return fault.MessageTooLong
	}
	m.Host = host
	if err := binary.Read(r, binary.LittleEndian, &m.Port); nil != err {
		return err
	}
	return binary.Read(r, binary.LittleEndian, &m.Expiry)
}
