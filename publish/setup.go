// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package publish - event feed for external consumers
//
// a ZMQ PUB socket announcing confirmed squeaks and received payments
// so indexers and notification services do not need to poll the rpc
package publish

import (
	"sync"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/background"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/zmqutil"
)

// Configuration - publisher socket settings from the configuration file
type Configuration struct {
	Broadcast  []string `gluamapper:"broadcast" json:"broadcast"`
	PrivateKey string   `gluamapper:"private_key" json:"private_key"`
	PublicKey  string   `gluamapper:"public_key" json:"public_key"`
}

type publishData struct {
	sync.RWMutex

	log *logger.L

	brdc broadcaster

	publicKey []byte

	// for background
	background *background.T

	// set once during initialise
	initialised bool
}

var globalData publishData

// Initialise - bind the publisher sockets and start the broadcaster
func Initialise(configuration *Configuration) error {

	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("publish")
	globalData.log.Info("starting…")

	privateKey, err := zmqutil.ReadPrivateKeyFile(configuration.PrivateKey)
	if nil != err {
		globalData.log.Errorf("read private key file: %q  error: %s", configuration.PrivateKey, err)
		return err
	}
	publicKey, err := zmqutil.ReadPublicKeyFile(configuration.PublicKey)
	if nil != err {
		globalData.log.Errorf("read public key file: %q  error: %s", configuration.PublicKey, err)
		return err
	}

	globalData.publicKey = publicKey

	if err := zmqutil.StartAuthentication(); nil != err {
		globalData.log.Errorf("zmq authentication start error: %s", err)
		return err
	}

	if err := globalData.brdc.initialise(privateKey, publicKey, configuration.Broadcast); nil != err {
		return err
	}

	// all data initialised
	globalData.initialised = true

	processes := background.Processes{
		&globalData.brdc,
	}

	globalData.background = background.Start(processes, globalData.log)

	return nil
}

// Finalise - stop the broadcaster
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.background.Stop()

	globalData.initialised = false

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}
