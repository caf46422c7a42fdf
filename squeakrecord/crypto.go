// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package squeakrecord

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/squeaknet/squeakd/fault"
)

// key and envelope sizes
const (
	ContentKeySize = 32
	PreimageSize   = 32
	nonceSize      = 24

	// EncryptionOverhead - bytes added to a plaintext by sealing
	EncryptionOverhead = nonceSize + secretbox.Overhead
)

// GenerateContentKey - fresh random symmetric key for one squeak body
func GenerateContentKey() ([]byte, error) {
	key := make([]byte, ContentKeySize)
	if _, err := rand.Read(key); nil != err {
		return nil, err
	}
	return key, nil
}

// GeneratePreimage - fresh random payment preimage
func GeneratePreimage() ([]byte, error) {
	preimage := make([]byte, PreimageSize)
	if _, err := rand.Read(preimage); nil != err {
		return nil, err
	}
	return preimage, nil
}

// PaymentHash - the invoice payment hash for a preimage
func PaymentHash(preimage []byte) [32]byte {
	return sha256.Sum256(preimage)
}

// seal with a random nonce; the nonce is prepended to the box so the
// result is self contained
func seal(plaintext []byte, key []byte) ([]byte, error) {
	if ContentKeySize != len(key) {
		return nil, fault.InvalidKeyLength
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); nil != err {
		return nil, err
	}

	var boxKey [ContentKeySize]byte
	copy(boxKey[:], key)

	out := make([]byte, nonceSize, nonceSize+len(plaintext)+secretbox.Overhead)
	copy(out, nonce[:])
	return secretbox.Seal(out, plaintext, &nonce, &boxKey), nil
}

// open fails deterministically on a wrong key; authenticated
// encryption never yields garbage plaintext
func open(ciphertext []byte, key []byte, failure error) ([]byte, error) {
	if ContentKeySize != len(key) {
		return nil, fault.InvalidKeyLength
	}
	if len(ciphertext) < EncryptionOverhead {
		return nil, failure
	}

	var nonce [nonceSize]byte
	copy(nonce[:], ciphertext[:nonceSize])

	var boxKey [ContentKeySize]byte
	copy(boxKey[:], key)

	plaintext, ok := secretbox.Open(nil, ciphertext[nonceSize:], &nonce, &boxKey)
	if !ok {
		return nil, failure
	}
	return plaintext, nil
}

// EncryptBody - seal a plaintext body under its content key
func EncryptBody(body []byte, contentKey []byte) ([]byte, error) {
	return seal(body, contentKey)
}

// DecryptBody - open a sealed body
func DecryptBody(encryptedBody []byte, contentKey []byte) ([]byte, error) {
	return open(encryptedBody, contentKey, fault.CannotDecryptBody)
}

// EncryptKey - seal the content key under a payment preimage
//
// only the holder of the exact preimage can recover the key, so a
// delivered key ciphertext is worthless until payment settles
func EncryptKey(contentKey []byte, preimage []byte) ([]byte, error) {
	if PreimageSize != len(preimage) {
		return nil, fault.InvalidPreimage
	}
	return seal(contentKey, preimage)
}

// DecryptKey - recover the content key with a settled preimage
func DecryptKey(keyCiphertext []byte, preimage []byte) ([]byte, error) {
	if PreimageSize != len(preimage) {
		return nil, fault.InvalidPreimage
	}
	return open(keyCiphertext, preimage, fault.CannotDecryptKey)
}

// MakeProof - bind a buyer challenge to this squeak's key material
//
// the proof is only reproducible by a party holding the content key,
// so one buyer's proof cannot be replayed for a different squeak
func MakeProof(challenge []byte, contentKey []byte) ([]byte, error) {
	if 0 == len(challenge) {
		return nil, fault.InvalidChallenge
	}
	return seal(challenge, contentKey)
}

// CheckProof - verify a seller proof after the key is recovered
func CheckProof(proof []byte, challenge []byte, contentKey []byte) bool {
	plaintext, err := open(proof, contentKey, fault.InvalidChallenge)
	if nil != err {
		return false
	}
	if len(plaintext) != len(challenge) {
		return false
	}
	for i := range plaintext {
		if plaintext[i] != challenge[i] {
			return false
		}
	}
	return true
}

// random nonce for record uniqueness
func randomUint32() (uint32, error) {
	buffer := make([]byte, 4)
	if _, err := rand.Read(buffer); nil != err {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buffer), nil
}
