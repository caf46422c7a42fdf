// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/bitmark-inc/exitwithstatus"

	"github.com/squeaknet/squeakd/rpc/certificate"
	"github.com/squeaknet/squeakd/version"
	"github.com/squeaknet/squeakd/zmqutil"
)

const (
	publishPublicKeyFilename  = "publish.public"
	publishPrivateKeyFilename = "publish.private"

	rpcCertificateFilename = "rpc.crt"
	rpcPrivateKeyFilename  = "rpc.key"
)

// setup command handler
//
// commands that create key and certificate files; these cannot access
// the database, the configuration file or any running state
func processSetupCommand(program string, arguments []string) bool {

	command := "help"
	if len(arguments) > 0 {
		command = arguments[0]
		arguments = arguments[1:]
	}

	switch command {

	case "gen-publish-identity", "publish":
		publicFile := fileArgument(arguments, publishPublicKeyFilename)
		privateFile := replaceSuffix(publicFile, publishPublicKeyFilename, publishPrivateKeyFilename)

		err := zmqutil.MakeKeyPair(publicFile, privateFile)
		if nil != err {
			fmt.Printf("generate key pair: %q %q error: %s\n", publicFile, privateFile, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated key pair: %q %q\n", publicFile, privateFile)

	case "gen-rpc-cert", "rpc":
		certificateFile := fileArgument(arguments, rpcCertificateFilename)
		privateFile := replaceSuffix(certificateFile, rpcCertificateFilename, rpcPrivateKeyFilename)

		extraHosts := []string(nil)
		if len(arguments) > 1 {
			extraHosts = arguments[1:]
		}

		err := certificate.MakeSelfSignedCertificate("rpc", certificateFile, privateFile, 0 != len(extraHosts), extraHosts)
		if nil != err {
			fmt.Printf("generate certificate: %q error: %s\n", certificateFile, err)
			exitwithstatus.Exit(1)
		}
		fmt.Printf("generated certificate: %q key: %q\n", certificateFile, privateFile)

	case "version":
		fmt.Printf("%s\n", version.Version)

	default:
		switch command {
		case "help", "h", "?":
		default:
			fmt.Printf("error: no such command: %s\n", command)
		}
		fmt.Printf("usage: %s [--help] [--quiet] --config-file=FILE [command]\n", program)
		fmt.Printf("supported commands:\n")
		fmt.Printf("  help                                   (h)   - display this message\n")
		fmt.Printf("  version                                (v)   - display version\n")
		fmt.Printf("  gen-publish-identity [DIR]         (publish) - create the publisher key pair\n")
		fmt.Printf("  gen-rpc-cert [DIR [HOSTS...]]          (rpc) - create a self signed rpc certificate\n")
		return true
	}

	return true
}

// first argument as a directory prefix for a default file name
func fileArgument(arguments []string, defaultName string) string {
	if len(arguments) >= 1 && "" != arguments[0] {
		return arguments[0] + "/" + defaultName
	}
	return defaultName
}

func replaceSuffix(path string, oldSuffix string, newSuffix string) string {
	return path[:len(path)-len(oldSuffix)] + newSuffix
}
