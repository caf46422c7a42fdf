// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wallet - the node's signing identity and contact profiles
//
// the ed25519 seed lives in a hex text file; the file is watched so
// an operator can rotate the key in place and every listener learns
// of the change through the key-changed topic
package wallet

import (
	"bytes"
	"encoding/hex"
	"io/ioutil"
	"os"
	"strings"
	"sync"

	"github.com/bitmark-inc/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/mr-tron/base58"
	"golang.org/x/crypto/ed25519"

	"github.com/squeaknet/squeakd/background"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/messagebus"
)

type walletData struct {
	sync.RWMutex // to allow locking

	log        *logger.L
	keyFile    string
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	watcher    *fsnotify.Watcher

	// for background
	background *background.T

	// set once during initialise
	initialised bool
}

// global data
var globalData walletData

// Initialise - load or create the signing key and start the file watch
func Initialise(keyFile string) error {
	globalData.Lock()
	defer globalData.Unlock()

	// no need to start if already started
	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("wallet")
	globalData.log.Info("starting…")

	globalData.keyFile = keyFile

	if _, err := os.Stat(keyFile); os.IsNotExist(err) {
		globalData.log.Infof("creating key file: %s", keyFile)
		if err := generateKeyFile(keyFile); nil != err {
			return err
		}
	}

	privateKey, err := readKeyFile(keyFile)
	if nil != err {
		return err
	}
	globalData.privateKey = privateKey
	globalData.publicKey = privateKey.Public().(ed25519.PublicKey)

	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		return err
	}
	if err := watcher.Add(keyFile); nil != err {
		watcher.Close()
		return err
	}
	globalData.watcher = watcher

	// all data initialised
	globalData.initialised = true

	processes := background.Processes{
		&keyWatcher{},
	}

	globalData.background = background.Start(processes, nil)

	return nil
}

// Finalise - stop the watcher
func Finalise() error {
	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.watcher.Close()
	globalData.background.Stop()

	// finally...
	globalData.initialised = false

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}

// PublicKey - the node's current signing public key
func PublicKey() ed25519.PublicKey {
	globalData.RLock()
	defer globalData.RUnlock()

	key := make(ed25519.PublicKey, len(globalData.publicKey))
	copy(key, globalData.publicKey)
	return key
}

// PrivateKey - the node's current signing private key
func PrivateKey() ed25519.PrivateKey {
	globalData.RLock()
	defer globalData.RUnlock()

	key := make(ed25519.PrivateKey, len(globalData.privateKey))
	copy(key, globalData.privateKey)
	return key
}

// Address - display form of a public key
func Address(publicKey []byte) string {
	return base58.Encode(publicKey)
}

// DecodeAddress - public key from its display form
func DecodeAddress(address string) ([]byte, error) {
	publicKey, err := base58.Decode(address)
	if nil != err {
		return nil, fault.CannotDecodeAddress
	}
	if ed25519.PublicKeySize != len(publicKey) {
		return nil, fault.InvalidPublicKey
	}
	return publicKey, nil
}

// generate a fresh seed and write it, refusing to overwrite
func generateKeyFile(keyFile string) error {
	_, privateKey, err := ed25519.GenerateKey(nil)
	if nil != err {
		return err
	}
	seed := privateKey.Seed()
	data := hex.EncodeToString(seed) + "\n"

	fh, err := os.OpenFile(keyFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if nil != err {
		return fault.KeyFileAlreadyExists
	}
	defer fh.Close()

	_, err = fh.WriteString(data)
	return err
}

func readKeyFile(keyFile string) (ed25519.PrivateKey, error) {
	data, err := ioutil.ReadFile(keyFile)
	if nil != err {
		return nil, fault.KeyFileNotFound
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if nil != err {
		return nil, fault.InvalidPrivateKey
	}
	if ed25519.SeedSize != len(seed) {
		return nil, fault.InvalidKeyLength
	}
	return ed25519.NewKeyFromSeed(seed), nil
}

// keyWatcher - reload the signing key when its file changes
type keyWatcher struct {
	log *logger.L
}

func (w *keyWatcher) Run(args interface{}, shutdown <-chan struct{}) {

	w.log = logger.New("key-watcher")
	w.log.Info("starting…")

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event, ok := <-globalData.watcher.Events:
			if !ok {
				break loop
			}
			if 0 == event.Op&(fsnotify.Write|fsnotify.Create) {
				continue loop
			}

			privateKey, err := readKeyFile(globalData.keyFile)
			if nil != err {
				w.log.Errorf("reload error: %s", err)
				continue loop
			}

			globalData.Lock()
			changed := !bytes.Equal(globalData.privateKey, privateKey)
			globalData.privateKey = privateKey
			globalData.publicKey = privateKey.Public().(ed25519.PublicKey)
			publicKey := globalData.publicKey
			globalData.Unlock()

			if changed {
				w.log.Infof("key changed: %s", Address(publicKey))
				messagebus.KeyChanged.Send("wallet", []byte(publicKey))
			}

		case err, ok := <-globalData.watcher.Errors:
			if !ok {
				break loop
			}
			w.log.Errorf("watch error: %s", err)
		}
	}
	w.log.Info("shutting down…")
	w.log.Flush()
}
