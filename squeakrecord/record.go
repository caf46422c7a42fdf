// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package squeakrecord - the signed content unit of the network
//
// the packed binary form is canonical: it is what peers exchange,
// what the store persists and what the digest and signature cover
package squeakrecord

import (
	"bytes"
	"encoding/binary"
	"io"
	"time"

	btcwire "github.com/btcsuite/btcd/wire"
	"golang.org/x/crypto/ed25519"

	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fault"
)

// record limits
const (
	RecordVersion    uint32 = 1
	MaximumBodySize         = 4096
	signatureSize           = ed25519.SignatureSize
	publicKeySize           = ed25519.PublicKeySize
)

// Squeak - one content unit
//
// EncryptedBody is unreadable until the content key is known; the
// key is held outside the record (sold, or kept by the author)
type Squeak struct {
	Version       uint32
	Author        []byte        // ed25519 public key
	Recipient     []byte        // optional ed25519 public key, empty for public squeaks
	ReplyTo       digest.Digest // zero when not a reply
	BlockHeight   uint64
	BlockHash     digest.Digest
	Timestamp     int64
	Nonce         uint32
	EncryptedBody []byte
	Signature     []byte
}

// PackUnsigned - canonical binary form of the signed fields
//
// the digest and the signature both cover exactly these bytes
func (s *Squeak) PackUnsigned() []byte {

	buffer := &bytes.Buffer{}

	binary.Write(buffer, binary.LittleEndian, s.Version)
	buffer.Write(s.Author)
	btcwire.WriteVarBytes(buffer, s.Version, s.Recipient)
	buffer.Write(s.ReplyTo[:])
	binary.Write(buffer, binary.LittleEndian, s.BlockHeight)
	buffer.Write(s.BlockHash[:])
	binary.Write(buffer, binary.LittleEndian, s.Timestamp)
	binary.Write(buffer, binary.LittleEndian, s.Nonce)
	btcwire.WriteVarBytes(buffer, s.Version, s.EncryptedBody)

	return buffer.Bytes()
}

// Pack - full binary form including the signature
func (s *Squeak) Pack() ([]byte, error) {

	if err := s.check(); nil != err {
		return nil, err
	}
	if signatureSize != len(s.Signature) {
		return nil, fault.InvalidSignature
	}

	buffer := bytes.NewBuffer(s.PackUnsigned())
	btcwire.WriteVarBytes(buffer, s.Version, s.Signature)
	return buffer.Bytes(), nil
}

// Unpack - decode and verify a packed squeak
//
// the signature is always checked; a record that does not verify is
// never returned
func Unpack(record []byte) (*Squeak, error) {

	r := bytes.NewReader(record)

	s := &Squeak{}

	if err := binary.Read(r, binary.LittleEndian, &s.Version); nil != err {
		return nil, err
	}
	if RecordVersion != s.Version {
		return nil, fault.InvalidPeerResponse
	}

	s.Author = make([]byte, publicKeySize)
	if _, err := io.ReadFull(r, s.Author); nil != err {
		return nil, err
	}

	recipient, err := btcwire.ReadVarBytes(r, s.Version, publicKeySize, "recipient")
	if nil != err {
		return nil, err
	}
	if 0 != len(recipient) {
		s.Recipient = recipient
	}

	if _, err := io.ReadFull(r, s.ReplyTo[:]); nil != err {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &s.BlockHeight); nil != err {
		return nil, err
	}
	if _, err := io.ReadFull(r, s.BlockHash[:]); nil != err {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &s.Timestamp); nil != err {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &s.Nonce); nil != err {
		return nil, err
	}

	body, err := btcwire.ReadVarBytes(r, s.Version, MaximumBodySize, "body")
	if nil != err {
		return nil, err
	}
	s.EncryptedBody = body

	signature, err := btcwire.ReadVarBytes(r, s.Version, signatureSize, "signature")
	if nil != err {
		return nil, err
	}
	s.Signature = signature

	if err := s.check(); nil != err {
		return nil, err
	}
	if err := s.Verify(); nil != err {
		return nil, err
	}

	return s, nil
}

// Hash - the canonical digest of the record
//
// a pure function of the signed fields; stable across re-submission
func (s *Squeak) Hash() digest.Digest {
	return digest.NewDigest(s.PackUnsigned())
}

// Sign - attach a signature over the packed signed fields
func (s *Squeak) Sign(privateKey ed25519.PrivateKey) error {
	if ed25519.PrivateKeySize != len(privateKey) {
		return fault.InvalidPrivateKey
	}
	s.Signature = ed25519.Sign(privateKey, s.PackUnsigned())
	return nil
}

// Verify - check the signature against the author key
func (s *Squeak) Verify() error {
	if publicKeySize != len(s.Author) || signatureSize != len(s.Signature) {
		return fault.InvalidSignature
	}
	if !ed25519.Verify(ed25519.PublicKey(s.Author), s.PackUnsigned(), s.Signature) {
		return fault.InvalidSignature
	}
	return nil
}

// IsReply - true when the record references a parent squeak
func (s *Squeak) IsReply() bool {
	var zero digest.Digest
	return zero != s.ReplyTo
}

// IsPrivate - true when addressed to a single recipient
func (s *Squeak) IsPrivate() bool {
	return 0 != len(s.Recipient)
}

// structural validation shared by pack and unpack
func (s *Squeak) check() error {
	if publicKeySize != len(s.Author) {
		return fault.InvalidPublicKey
	}
	if 0 != len(s.Recipient) && publicKeySize != len(s.Recipient) {
		return fault.InvalidPublicKey
	}
	if 0 == len(s.EncryptedBody) || len(s.EncryptedBody) > MaximumBodySize {
		return fault.InvalidCount
	}
	if 0 == s.BlockHeight {
		return fault.InvalidBlockHeight
	}
	return nil
}

// New - author a squeak
//
// encrypts the body under a fresh content key, fills in the chain
// binding and signs; returns the record and its content key
func New(privateKey ed25519.PrivateKey, body []byte, recipient []byte, replyTo digest.Digest, blockHeight uint64, blockHash digest.Digest) (*Squeak, []byte, error) {

	if ed25519.PrivateKeySize != len(privateKey) {
		return nil, nil, fault.InvalidPrivateKey
	}
	if 0 == len(body) || len(body) > MaximumBodySize-EncryptionOverhead {
		return nil, nil, fault.InvalidCount
	}

	contentKey, err := GenerateContentKey()
	if nil != err {
		return nil, nil, err
	}

	encryptedBody, err := EncryptBody(body, contentKey)
	if nil != err {
		return nil, nil, err
	}

	nonce, err := randomUint32()
	if nil != err {
		return nil, nil, err
	}

	s := &Squeak{
		Version:       RecordVersion,
		Author:        []byte(privateKey.Public().(ed25519.PublicKey)),
		Recipient:     recipient,
		ReplyTo:       replyTo,
		BlockHeight:   blockHeight,
		BlockHash:     blockHash,
		Timestamp:     time.Now().Unix(),
		Nonce:         nonce,
		EncryptedBody: encryptedBody,
	}

	if err := s.Sign(privateKey); nil != err {
		return nil, nil, err
	}

	return s, contentKey, nil
}
