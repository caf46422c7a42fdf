// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// ExistsError - declared record already exists (e.g. duplicate payment hash)
type ExistsError GenericError

// InvalidError - permanent validation failure
type InvalidError GenericError

// NotFoundError - requested record is not present
type NotFoundError GenericError

// ProcessError - internal processing problem
type ProcessError GenericError

// ProtocolError - wire protocol violation, fatal to the offending connection
type ProtocolError GenericError

// RejectedError - admission policy rejection, caller must not retry unchanged
type RejectedError GenericError

// RetryError - transient condition, the same call may succeed later
type RetryError GenericError

// PaymentError - payment channel failure, retryable via another route or peer
type PaymentError GenericError

// common errors - keep in alphabetic order
var (
	AlreadyInitialised      = ProcessError("already initialised")
	AlreadyPaid             = ExistsError("offer is already paid")
	BlockHashMismatch       = InvalidError("block hash mismatch")
	BlockNotAvailable       = RetryError("block not currently available")
	CannotDecodeAddress     = InvalidError("cannot decode address")
	CannotDecryptBody       = InvalidError("cannot decrypt body with supplied key")
	CannotDecryptKey        = InvalidError("cannot decrypt key with supplied preimage")
	CertificateFileExists   = ExistsError("certificate file already exists")
	ChecksumMismatch        = ProtocolError("payload checksum mismatch")
	ConnectionIsClosed      = ProcessError("connection is closed")
	InvalidBlockHeight      = InvalidError("invalid block height")
	InvalidChallenge        = InvalidError("invalid challenge")
	InvalidConnection       = InvalidError("invalid connection")
	InvalidCount            = InvalidError("invalid count")
	InvalidIpAddress        = InvalidError("invalid ip address")
	InvalidKeyLength        = InvalidError("invalid key length")
	InvalidPaymentHash      = InvalidError("invalid payment hash")
	InvalidPeerResponse     = ProtocolError("invalid peer response")
	InvalidPortNumber       = InvalidError("invalid port number")
	InvalidPreimage         = InvalidError("invalid preimage")
	InvalidPrivateKey       = InvalidError("invalid private key")
	InvalidPublicKey        = InvalidError("invalid public key")
	InvalidSignature        = InvalidError("invalid signature")
	KeyAlreadyPublic        = RejectedError("decryption key is already public")
	KeyFileAlreadyExists    = ExistsError("key file already exists")
	KeyFileNotFound         = NotFoundError("key file not found")
	MessageTooLong          = ProtocolError("message too long")
	MissingParameters       = InvalidError("missing parameters")
	NoConnectionsAvailable  = ProcessError("no connections available")
	NotAvailableDuringSync  = RetryError("not available during synchronise")
	NotForSale              = RejectedError("squeak is not for sale")
	NotFollowed             = RejectedError("author is not followed")
	NotInitialised          = ProcessError("not initialised")
	OfferExpired            = RejectedError("offer has expired")
	OfferNotFound           = NotFoundError("offer not found")
	OracleNotAvailable      = RetryError("blockchain oracle not available")
	PaymentDidNotSettle     = PaymentError("payment did not settle")
	PaymentNotFound         = NotFoundError("payment not found")
	ProfileNotFound         = NotFoundError("profile not found")
	QuotaExceeded           = RejectedError("per block quota exceeded")
	RateLimiting            = ProcessError("rate limiting active")
	SqueakAlreadyStored     = ExistsError("squeak is already stored")
	SqueakIsUnconfirmable   = InvalidError("squeak is permanently unconfirmable")
	SqueakNotFound          = NotFoundError("squeak not found")
	UnexpectedFrameType     = ProtocolError("unexpected frame type before handshake")
	UnknownCommand          = ProtocolError("unknown command")
	WrongNetworkMagic       = ProtocolError("wrong network magic")
)

// Error - the error interface base method
func (e GenericError) Error() string { return string(e) }

// Error - the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e ProtocolError) Error() string { return string(e) }
func (e RejectedError) Error() string { return string(e) }
func (e RetryError) Error() string    { return string(e) }
func (e PaymentError) Error() string  { return string(e) }

// IsErrExists - determine the class of an error
func IsErrExists(e error) bool { _, ok := e.(ExistsError); return ok }

// IsErrInvalid - check for invalid class
func IsErrInvalid(e error) bool { _, ok := e.(InvalidError); return ok }

// IsErrNotFound - check for not found class
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }

// IsErrProcess - check for process class
func IsErrProcess(e error) bool { _, ok := e.(ProcessError); return ok }

// IsErrProtocol - check for protocol violation class
func IsErrProtocol(e error) bool { _, ok := e.(ProtocolError); return ok }

// IsErrRejected - check for admission rejection class
func IsErrRejected(e error) bool { _, ok := e.(RejectedError); return ok }

// IsErrRetry - check for transient class
func IsErrRetry(e error) bool { _, ok := e.(RetryError); return ok }

// IsErrPayment - check for payment failure class
func IsErrPayment(e error) bool { _, ok := e.(PaymentError); return ok }
