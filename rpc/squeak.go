// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/admission"
	"github.com/squeaknet/squeakd/chain"
	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/mode"
	"github.com/squeaknet/squeakd/payment"
	"github.com/squeaknet/squeakd/peer"
	"github.com/squeaknet/squeakd/rpc/ratelimit"
	"github.com/squeaknet/squeakd/squeakrecord"
	"github.com/squeaknet/squeakd/storage"
	"github.com/squeaknet/squeakd/verifier"
	"github.com/squeaknet/squeakd/wallet"
)

const (
	rateLimitSqueak = 200
	rateBurstSqueak = 100
)

// Squeak - type for rpc calls
type Squeak struct {
	Log     *logger.L
	Limiter *rate.Limiter
	Oracle  chain.Oracle
}

// NewSqueak - create the squeak service
func NewSqueak(log *logger.L, oracle chain.Oracle) *Squeak {
	return &Squeak{
		Log:     log,
		Limiter: rate.NewLimiter(rateLimitSqueak, rateBurstSqueak),
		Oracle:  oracle,
	}
}

// ---

// CreateArguments - a new squeak to author
type CreateArguments struct {
	Body      string `json:"body"`
	Recipient string `json:"recipient"` // address, empty for a public squeak
	ReplyTo   string `json:"replyTo"`   // hash, empty for a top level squeak
}

// CreateReply - the stored squeak
type CreateReply struct {
	Hash        string `json:"hash"`
	BlockHeight uint64 `json:"blockHeight"`
	BlockHash   string `json:"blockHash"`
	Confirmed   bool   `json:"confirmed"`
}

// Create - author, sign and store a squeak bound to the current tip
func (squeak *Squeak) Create(arguments *CreateArguments, reply *CreateReply) error {
	if err := ratelimit.Limit(squeak.Limiter); nil != err {
		return err
	}

	if mode.IsNot(mode.Normal) {
		return fault.NotAvailableDuringSync
	}

	privateKey := wallet.PrivateKey()
	if 0 == len(privateKey) {
		return fault.InvalidPrivateKey
	}

	recipient := []byte(nil)
	if "" != arguments.Recipient {
		publicKey, err := wallet.DecodeAddress(arguments.Recipient)
		if nil != err {
			return err
		}
		recipient = publicKey
	}

	replyTo := digest.Digest{}
	if "" != arguments.ReplyTo {
		if err := replyTo.UnmarshalText([]byte(arguments.ReplyTo)); nil != err {
			return err
		}
	}

	tip, err := squeak.Oracle.BestBlock()
	if nil != err {
		return err
	}

	s, contentKey, err := squeakrecord.New(privateKey, []byte(arguments.Body), recipient, replyTo, tip.Height, tip.Hash)
	if nil != err {
		return err
	}

	err = admission.SubmitAuthored(s, contentKey)
	if nil != err && !fault.IsErrRetry(err) {
		return err
	}

	hash := s.Hash()
	reply.Hash = hash.String()
	reply.BlockHeight = s.BlockHeight
	reply.BlockHash = s.BlockHash.String()
	reply.Confirmed = verifier.IsConfirmed(hash)

	return nil
}

// ---

// GetArguments - squeak lookup
type GetArguments struct {
	Hash string `json:"hash"`
}

// GetReply - stored squeak with the body decrypted when possible
type GetReply struct {
	Hash        string `json:"hash"`
	Author      string `json:"author"`
	Recipient   string `json:"recipient,omitempty"`
	ReplyTo     string `json:"replyTo,omitempty"`
	BlockHeight uint64 `json:"blockHeight"`
	BlockHash   string `json:"blockHash"`
	Timestamp   int64  `json:"timestamp"`
	Status      string `json:"status"`
	HasKey      bool   `json:"hasKey"`
	Body        string `json:"body,omitempty"`
}

// Get - fetch a stored squeak
func (squeak *Squeak) Get(arguments *GetArguments, reply *GetReply) error {
	if err := ratelimit.Limit(squeak.Limiter); nil != err {
		return err
	}

	hash := digest.Digest{}
	if err := hash.UnmarshalText([]byte(arguments.Hash)); nil != err {
		return err
	}

	packed := storage.Pool.Squeaks.Get(hash[:])
	if nil == packed {
		return fault.SqueakNotFound
	}
	s, err := squeakrecord.Unpack(packed)
	if nil != err {
		return err
	}

	reply.Hash = hash.String()
	reply.Author = wallet.Address(s.Author)
	if 0 != len(s.Recipient) {
		reply.Recipient = wallet.Address(s.Recipient)
	}
	if s.IsReply() {
		reply.ReplyTo = s.ReplyTo.String()
	}
	reply.BlockHeight = s.BlockHeight
	reply.BlockHash = s.BlockHash.String()
	reply.Timestamp = s.Timestamp
	reply.Status = statusName(hash)

	contentKey := storage.Pool.SqueakKeys.Get(hash[:])
	if nil == contentKey {
		contentKey, _ = payment.PublicContentKey(hash)
	}
	if nil != contentKey {
		reply.HasKey = true
		body, err := squeakrecord.DecryptBody(s.EncryptedBody, contentKey)
		if nil == err {
			reply.Body = string(body)
		}
	}

	return nil
}

func statusName(hash digest.Digest) string {
	status, ok := verifier.StatusOf(hash)
	if !ok {
		return "unknown"
	}
	switch status {
	case verifier.StatusConfirmed:
		return "confirmed"
	case verifier.StatusUnconfirmable:
		return "unconfirmable"
	default:
		return "pending"
	}
}

// ---

// BuyArguments - buy the decryption key from a connected peer
type BuyArguments struct {
	Hash string `json:"hash"`
	Peer string `json:"peer"`
}

// BuyReply - the unlocked squeak
type BuyReply struct {
	Hash string `json:"hash"`
	Body string `json:"body"`
}

// Buy - request an offer from the peer and pay its invoice
func (squeak *Squeak) Buy(arguments *BuyArguments, reply *BuyReply) error {
	if err := ratelimit.Limit(squeak.Limiter); nil != err {
		return err
	}

	hash := digest.Digest{}
	if err := hash.UnmarshalText([]byte(arguments.Hash)); nil != err {
		return err
	}

	contentKey, err := peer.BuySqueak(arguments.Peer, hash)
	if nil != err {
		return err
	}

	packed := storage.Pool.Squeaks.Get(hash[:])
	if nil == packed {
		return fault.SqueakNotFound
	}
	s, err := squeakrecord.Unpack(packed)
	if nil != err {
		return err
	}
	body, err := squeakrecord.DecryptBody(s.EncryptedBody, contentKey)
	if nil != err {
		return err
	}

	reply.Hash = hash.String()
	reply.Body = string(body)

	return nil
}

// ---

// DeleteArguments - squeak removal
type DeleteArguments struct {
	Hash string `json:"hash"`
}

// DeleteReply - confirmation
type DeleteReply struct {
	Deleted bool `json:"deleted"`
}

// Delete - remove a squeak and its local key material
func (squeak *Squeak) Delete(arguments *DeleteArguments, reply *DeleteReply) error {
	if err := ratelimit.Limit(squeak.Limiter); nil != err {
		return err
	}

	hash := digest.Digest{}
	if err := hash.UnmarshalText([]byte(arguments.Hash)); nil != err {
		return err
	}

	if !storage.Pool.Squeaks.Has(hash[:]) {
		return fault.SqueakNotFound
	}

	storage.Pool.Squeaks.Delete(hash[:])
	storage.Pool.SqueakKeys.Delete(hash[:])
	storage.Pool.SqueakStatus.Delete(hash[:])

	reply.Deleted = true
	return nil
}

// ---

// MakePublicArguments - give a decryption key away
type MakePublicArguments struct {
	Hash string `json:"hash"`
}

// MakePublicReply - confirmation
type MakePublicReply struct {
	Public bool `json:"public"`
}

// MakePublic - release a squeak's content key for free
//
// irreversible, the squeak can never be offered for sale afterwards
func (squeak *Squeak) MakePublic(arguments *MakePublicArguments, reply *MakePublicReply) error {
	if err := ratelimit.Limit(squeak.Limiter); nil != err {
		return err
	}

	hash := digest.Digest{}
	if err := hash.UnmarshalText([]byte(arguments.Hash)); nil != err {
		return err
	}

	if err := payment.MakeKeyPublic(hash); nil != err {
		return err
	}

	reply.Public = true
	return nil
}
