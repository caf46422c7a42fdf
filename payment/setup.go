// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package payment - selling and buying squeak decryption keys
//
// the sell side issues an invoice bound to a fresh preimage and
// releases the content key only as a ciphertext that opens under that
// preimage; the settlement watcher observes the payment channel
// node's settled-invoice feed and marks offers paid; the sweep
// removes offers whose invoices expired unpaid
package payment

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/background"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/lightning"
)

// defaults applied to missing configuration values
const (
	defaultPrice         uint64 = 100000 // millisatoshi
	defaultInvoiceExpiry        = time.Hour
	defaultSweepInterval        = time.Minute
	defaultResubscribeDelay     = 10 * time.Second
)

// Configuration - structure for configuration file
type Configuration struct {
	Price          uint64                  `gluamapper:"price" json:"price"`
	InvoiceExpiry  int                     `gluamapper:"invoice_expiry" json:"invoice_expiry"` // seconds
	SweepInterval  int                     `gluamapper:"sweep_interval" json:"sweep_interval"` // seconds
	RetryDelay     int                     `gluamapper:"retry_delay" json:"retry_delay"`       // seconds
	LightningHost  string                  `gluamapper:"lightning_host" json:"lightning_host"`
	LightningPort  uint16                  `gluamapper:"lightning_port" json:"lightning_port"`
	Lnd            lightning.Configuration `gluamapper:"lnd" json:"lnd"`
}

type paymentData struct {
	sync.RWMutex // to allow locking

	log              *logger.L
	client           lightning.Client
	price            uint64
	invoiceExpiry    time.Duration
	resubscribeDelay time.Duration
	lightningHost    string
	lightningPort    uint16

	// for background
	background *background.T

	// set once during initialise
	initialised bool
}

// global data
var globalData paymentData

// Initialise - start the payment system
//
// the lightning client is supplied by the caller so the backend is a
// construction time choice
func Initialise(client lightning.Client, configuration *Configuration) error {
	globalData.Lock()
	defer globalData.Unlock()

	// no need to start if already started
	if globalData.initialised {
		return fault.AlreadyInitialised
	}

	globalData.log = logger.New("payment")
	globalData.log.Info("starting…")

	globalData.client = client

	globalData.price = configuration.Price
	if 0 == globalData.price {
		globalData.price = defaultPrice
	}

	globalData.invoiceExpiry = time.Duration(configuration.InvoiceExpiry) * time.Second
	if 0 == configuration.InvoiceExpiry {
		globalData.invoiceExpiry = defaultInvoiceExpiry
	}

	sweepInterval := time.Duration(configuration.SweepInterval) * time.Second
	if 0 == configuration.SweepInterval {
		sweepInterval = defaultSweepInterval
	}

	globalData.resubscribeDelay = time.Duration(configuration.RetryDelay) * time.Second
	if 0 == configuration.RetryDelay {
		globalData.resubscribeDelay = defaultResubscribeDelay
	}

	globalData.lightningHost = configuration.LightningHost
	globalData.lightningPort = configuration.LightningPort

	// all data initialised
	globalData.initialised = true

	processes := background.Processes{
		&watcher{},
		&background.Periodic{
			Name:     "offer-sweep",
			Interval: sweepInterval,
			Task:     sweep,
		},
	}

	globalData.background = background.Start(processes, nil)

	return nil
}

// Finalise - stop all background tasks
func Finalise() error {
	if !globalData.initialised {
		return fault.NotInitialised
	}

	globalData.log.Info("shutting down…")
	globalData.log.Flush()

	globalData.background.Stop()

	// finally...
	globalData.initialised = false

	globalData.log.Info("finished")
	globalData.log.Flush()

	return nil
}
