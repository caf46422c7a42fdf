// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package rpc - operator interface over TLS
//
// JSON-RPC services for authoring, reading, buying and selling
// squeaks, plus profile and peer management
package rpc

import (
	"sync"

	"github.com/bitmark-inc/listener"
	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/chain"
	"github.com/squeaknet/squeakd/counter"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/rpc/certificate"
)

const (
	tlsName = "client_rpc"

	defaultMaximumConnections = 100
)

// Configuration - rpc listener settings from the configuration file
type Configuration struct {
	MaximumConnections int      `gluamapper:"maximum_connections" json:"maximum_connections"`
	Listen             []string `gluamapper:"listen" json:"listen"`
	Certificate        string   `gluamapper:"certificate" json:"certificate"`
	PrivateKey         string   `gluamapper:"private_key" json:"private_key"`
}

type rpcData struct {
	sync.RWMutex

	log *logger.L

	listener *listener.MultiListener

	connectionCount counter.Counter

	fingerprint [32]byte

	// set once during initialise
	initialised bool
}

var globalData rpcData

// Initialise - certificate setup and listener start
func Initialise(configuration *Configuration, version string, oracle chain.Oracle) error {

	globalData.Lock()
	defer globalData.Unlock()

	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	log := logger.New("rpc")
	globalData.log = log
	log.Info("starting…")

	if 0 == len(configuration.Listen) {
		log.Error("missing listen addresses")
		return fault.MissingParameters
	}

	maximumConnections := configuration.MaximumConnections
	if maximumConnections <= 0 {
		maximumConnections = defaultMaximumConnections
	}

	tlsConfiguration, fingerprint, err := certificate.Get(log, tlsName, configuration.Certificate, configuration.PrivateKey)
	if nil != err {
		return err
	}
	globalData.fingerprint = fingerprint
	log.Infof("%s: SHA3-256 fingerprint: %x", tlsName, fingerprint)

	limiter := listener.NewLimiter(maximumConnections)

	ml, err := listener.NewMultiListener(tlsName, configuration.Listen, tlsConfiguration, limiter, Callback)
	if nil != err {
		log.Errorf("invalid listen addresses: %v", configuration.Listen)
		return err
	}
	globalData.listener = ml

	argument := &serverArgument{
		Log:    log,
		Server: createServer(log, version, oracle),
	}
	ml.Start(argument)

	// all data initialised
	globalData.initialised = true

	return nil
}

// Finalise - stop the listener
func Finalise() error {
	globalData.Lock()
	defer globalData.Unlock()

	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.listener.Stop()

	globalData.initialised = false

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}

// CertificateFingerprint - the fingerprint clients can pin
func CertificateFingerprint() [32]byte {
	globalData.RLock()
	defer globalData.RUnlock()
	return globalData.fingerprint
}
