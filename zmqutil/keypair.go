// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package zmqutil - helpers for event publication over ZeroMQ
//
// publisher sockets are CURVE encrypted, key files carry hex encoded
// curve keys with a PUBLIC:/PRIVATE: tag so the two cannot be mixed up
package zmqutil

import (
	"encoding/hex"
	"io/ioutil"
	"os"
	"strings"

	zmq "github.com/pebbe/zmq4"

	"github.com/squeaknet/squeakd/fault"
)

const (
	taggedPublic  = "PUBLIC:"
	taggedPrivate = "PRIVATE:"
	keyLength     = 32
)

// MakeKeyPair - generate a curve keypair and write the two key files
func MakeKeyPair(publicKeyFileName string, privateKeyFileName string) error {
	if _, err := os.Stat(publicKeyFileName); nil == err {
		return fault.KeyFileAlreadyExists
	}
	if _, err := os.Stat(privateKeyFileName); nil == err {
		return fault.KeyFileAlreadyExists
	}

	// zmq produces Z85 encoded keys, store them as tagged hex
	publicKey, privateKey, err := zmq.NewCurveKeypair()
	if nil != err {
		return err
	}

	publicData := taggedPublic + hex.EncodeToString([]byte(zmq.Z85decode(publicKey))) + "\n"
	privateData := taggedPrivate + hex.EncodeToString([]byte(zmq.Z85decode(privateKey))) + "\n"

	if err := ioutil.WriteFile(publicKeyFileName, []byte(publicData), 0644); nil != err {
		return err
	}
	if err := ioutil.WriteFile(privateKeyFileName, []byte(privateData), 0600); nil != err {
		os.Remove(publicKeyFileName)
		return err
	}

	return nil
}

// ReadPublicKeyFile - load and decode a tagged public key file
func ReadPublicKeyFile(fileName string) ([]byte, error) {
	data, private, err := readKeyFile(fileName)
	if nil != err {
		return nil, err
	}
	if private {
		return nil, fault.InvalidPublicKey
	}
	return data, nil
}

// ReadPrivateKeyFile - load and decode a tagged private key file
func ReadPrivateKeyFile(fileName string) ([]byte, error) {
	data, private, err := readKeyFile(fileName)
	if nil != err {
		return nil, err
	}
	if !private {
		return nil, fault.InvalidPrivateKey
	}
	return data, nil
}

func readKeyFile(fileName string) ([]byte, bool, error) {
	if _, err := os.Stat(fileName); nil != err {
		return nil, false, fault.KeyFileNotFound
	}
	data, err := ioutil.ReadFile(fileName)
	if nil != err {
		return nil, false, err
	}
	return parseKey(string(data))
}

func parseKey(data string) ([]byte, bool, error) {
	s := strings.TrimSpace(data)

	if strings.HasPrefix(s, taggedPrivate) {
		h, err := hex.DecodeString(s[len(taggedPrivate):])
		if nil != err {
			return nil, false, err
		}
		if keyLength != len(h) {
			return nil, false, fault.InvalidPrivateKey
		}
		return h, true, nil
	}

	if strings.HasPrefix(s, taggedPublic) {
		h, err := hex.DecodeString(s[len(taggedPublic):])
		if nil != err {
			return nil, false, err
		}
		if keyLength != len(h) {
			return nil, false, fault.InvalidPublicKey
		}
		return h, false, nil
	}

	return nil, false, fault.InvalidPublicKey
}
