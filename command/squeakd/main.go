// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitmark-inc/exitwithstatus"
	"github.com/bitmark-inc/getoptions"
	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/admission"
	"github.com/squeaknet/squeakd/chain"
	"github.com/squeaknet/squeakd/configuration"
	"github.com/squeaknet/squeakd/lightning"
	"github.com/squeaknet/squeakd/mode"
	"github.com/squeaknet/squeakd/payment"
	"github.com/squeaknet/squeakd/peer"
	"github.com/squeaknet/squeakd/publish"
	"github.com/squeaknet/squeakd/rpc"
	"github.com/squeaknet/squeakd/storage"
	"github.com/squeaknet/squeakd/verifier"
	"github.com/squeaknet/squeakd/version"
	"github.com/squeaknet/squeakd/wallet"
	"github.com/squeaknet/squeakd/zmqutil"
)

// main program
func main() {
	// ensure exit handler is first
	defer exitwithstatus.Handler()

	flags := []getoptions.Option{
		{Long: "help", HasArg: getoptions.NO_ARGUMENT, Short: 'h'},
		{Long: "quiet", HasArg: getoptions.NO_ARGUMENT, Short: 'q'},
		{Long: "version", HasArg: getoptions.NO_ARGUMENT, Short: 'V'},
		{Long: "config-file", HasArg: getoptions.REQUIRED_ARGUMENT, Short: 'c'},
	}

	program, options, arguments, err := getoptions.GetOS(flags)
	if nil != err {
		exitwithstatus.Message("%s: getoptions error: %s", program, err)
	}

	if len(options["version"]) > 0 {
		fmt.Printf("%s\n", version.Version)
		return
	}

	if len(options["help"]) > 0 {
		processSetupCommand(program, []string{"help"})
		return
	}

	// key and certificate generation does not need the daemon state
	if len(arguments) > 0 && processSetupCommand(program, arguments) {
		return
	}

	if 1 != len(options["config-file"]) {
		exitwithstatus.Message("%s: exactly one config-file option is required, %d were detected", program, len(options["config-file"]))
	}

	configurationFile := options["config-file"][0]
	theConfiguration, err := configuration.GetConfiguration(configurationFile)
	if nil != err {
		exitwithstatus.Message("%s: failed to read configuration from: %q  error: %s", program, configurationFile, err)
	}

	// start logging
	if err = logger.Initialise(theConfiguration.Logging); nil != err {
		exitwithstatus.Message("%s: logger setup failed with error: %s", program, err)
	}
	defer logger.Finalise()

	log := logger.New("main")
	defer log.Info("finished")
	log.Info("starting…")
	log.Infof("version: %s", version.Version)

	// ------------------
	// start of real main
	// ------------------

	// optional PID file
	// use if not running under a supervisor program like daemon(8)
	if "" != theConfiguration.PidFile {
		lockFile, err := os.OpenFile(theConfiguration.PidFile, os.O_WRONLY|os.O_EXCL|os.O_CREATE, os.ModeExclusive|0600)
		if err != nil {
			if os.IsExist(err) {
				exitwithstatus.Message("%s: another instance is already running", program)
			}
			exitwithstatus.Message("%s: PID file: %q creation failed, error: %s", program, theConfiguration.PidFile, err)
		}
		fmt.Fprintf(lockFile, "%d\n", os.Getpid())
		lockFile.Close()
		defer os.Remove(theConfiguration.PidFile)
	}

	// set the network before any background tasks are started
	err = mode.Initialise(theConfiguration.Network)
	if nil != err {
		log.Criticalf("mode initialise error: %s", err)
		exitwithstatus.Message("mode initialise error: %s", err)
	}
	defer mode.Finalise()

	// start a profiling http server
	if "" != theConfiguration.ProfileHTTP {
		go func() {
			log.Warnf("profile listener on: %s", theConfiguration.ProfileHTTP)
			err := http.ListenAndServe(theConfiguration.ProfileHTTP, nil)
			exitwithstatus.Message("profile error: %s", err)
		}()
	}

	log.Infof("network: %s", mode.NetworkName())
	log.Infof("database: %q", theConfiguration.Database.Name)

	// start the data storage
	log.Info("initialise storage")
	err = storage.Initialise(theConfiguration.Database.Name)
	if nil != err {
		log.Criticalf("storage initialise error: %s", err)
		exitwithstatus.Message("storage initialise error: %s", err)
	}
	defer storage.Finalise()

	// signing key, created on first start
	log.Info("initialise wallet")
	err = wallet.Initialise(theConfiguration.WalletKeyFile)
	if nil != err {
		log.Criticalf("wallet initialise error: %s", err)
		exitwithstatus.Message("wallet initialise error: %s", err)
	}
	defer wallet.Finalise()

	// blockchain oracle for squeak confirmation
	oracle, err := chain.NewBitcoindOracle(&theConfiguration.Bitcoin)
	if nil != err {
		log.Criticalf("bitcoind oracle error: %s", err)
		exitwithstatus.Message("bitcoind oracle error: %s", err)
	}

	log.Info("initialise verifier")
	err = verifier.Initialise(oracle)
	if nil != err {
		log.Criticalf("verifier initialise error: %s", err)
		exitwithstatus.Message("verifier initialise error: %s", err)
	}
	defer verifier.Finalise()

	log.Info("initialise admission")
	err = admission.Initialise(theConfiguration.AuthorQuota)
	if nil != err {
		log.Criticalf("admission initialise error: %s", err)
		exitwithstatus.Message("admission initialise error: %s", err)
	}
	defer admission.Finalise()

	// lightning backend for selling and buying keys
	lightningClient, err := lightning.NewLndClient(&theConfiguration.Payment.Lnd)
	if nil != err {
		log.Criticalf("lnd client error: %s", err)
		exitwithstatus.Message("lnd client error: %s", err)
	}

	log.Info("initialise payment")
	err = payment.Initialise(lightningClient, &theConfiguration.Payment)
	if nil != err {
		log.Criticalf("payment initialise error: %s", err)
		exitwithstatus.Message("payment initialise error: %s", err)
	}
	defer payment.Finalise()

	// initialise encryption
	err = zmqutil.StartAuthentication()
	if nil != err {
		log.Criticalf("zmq.AuthStart: error: %s", err)
		exitwithstatus.Message("zmq.AuthStart: error: %s", err)
	}

	// start up the peering background processes
	log.Info("initialise peer")
	err = peer.Initialise(&theConfiguration.Peering)
	if nil != err {
		log.Criticalf("peer initialise error: %s", err)
		exitwithstatus.Message("peer initialise error: %s", err)
	}
	defer peer.Finalise()

	// reconnect peers saved over the rpc
	for _, address := range rpc.SavedPeers() {
		if err := peer.ConnectTo(address); nil != err {
			log.Warnf("saved peer: %q connect error: %s", address, err)
		}
	}

	// start up the event publisher
	log.Info("initialise publish")
	err = publish.Initialise(&theConfiguration.Publishing)
	if nil != err {
		log.Criticalf("publish initialise error: %s", err)
		exitwithstatus.Message("publish initialise error: %s", err)
	}
	defer publish.Finalise()

	// start up the rpc listener
	log.Info("initialise rpc")
	err = rpc.Initialise(&theConfiguration.ClientRPC, version.Version, oracle)
	if nil != err {
		log.Criticalf("rpc initialise error: %s", err)
		exitwithstatus.Message("rpc initialise error: %s", err)
	}
	defer rpc.Finalise()

	// wait for CTRL-C before shutting down to allow manual testing
	if 0 == len(options["quiet"]) {
		fmt.Printf("\n\nWaiting for CTRL-C (SIGINT) or 'kill <pid>' (SIGTERM)…")
	}

	// turn Signals into channel messages
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	log.Infof("received signal: %v", sig)
	if 0 == len(options["quiet"]) {
		fmt.Printf("\nreceived signal: %v\n", sig)
		fmt.Printf("\nshutting down…\n")
	}

	log.Info("shutting down…")
	mode.Set(mode.Stopped)
}
