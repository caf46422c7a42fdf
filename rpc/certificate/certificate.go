// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package certificate - TLS setup for the rpc listener
//
// either loads an operator supplied certificate pair or generates a
// self signed one on first start
package certificate

import (
	"crypto/tls"
	"io/ioutil"
	"os"
	"time"

	"golang.org/x/crypto/sha3"

	"github.com/bitmark-inc/certgen"
	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/fault"
)

const selfSignedValidity = 10 * 365 * 24 * time.Hour

// Get - load the certificate pair, creating a self signed one when
// neither file exists yet
//
// returns the TLS configuration and the certificate fingerprint that
// clients can pin
func Get(log *logger.L, name string, certificateFileName string, privateKeyFileName string) (*tls.Config, [32]byte, error) {
	var fin [32]byte

	if !fileExists(certificateFileName) && !fileExists(privateKeyFileName) {
		log.Infof("%s: generating self signed certificate: %q", name, certificateFileName)
		if err := MakeSelfSignedCertificate(name, certificateFileName, privateKeyFileName, false, nil); nil != err {
			log.Errorf("%s: certificate generate error: %s", name, err)
			return nil, fin, err
		}
	}

	keyPair, err := tls.LoadX509KeyPair(certificateFileName, privateKeyFileName)
	if nil != err {
		log.Errorf("%s: load keypair error: %s", name, err)
		return nil, fin, err
	}

	tlsConfiguration := &tls.Config{
		Certificates: []tls.Certificate{
			keyPair,
		},
	}

	fin = Fingerprint(keyPair.Certificate[0])

	return tlsConfiguration, fin, nil
}

// MakeSelfSignedCertificate - create a certificate pair on disk
func MakeSelfSignedCertificate(name string, certificateFileName string, privateKeyFileName string, override bool, extraHosts []string) error {

	if fileExists(certificateFileName) {
		return fault.CertificateFileExists
	}
	if fileExists(privateKeyFileName) {
		return fault.KeyFileAlreadyExists
	}

	org := "squeakd self signed cert for: " + name
	validUntil := time.Now().Add(selfSignedValidity)
	cert, key, err := certgen.NewTLSCertPair(org, validUntil, override, extraHosts)
	if nil != err {
		return err
	}

	if err := ioutil.WriteFile(certificateFileName, cert, 0644); nil != err {
		return err
	}
	if err := ioutil.WriteFile(privateKeyFileName, key, 0600); nil != err {
		os.Remove(certificateFileName)
		return err
	}

	return nil
}

// Fingerprint - the value clients pin
//
// openssl x509 -outform DER -in rpc.crt | sha3sum -a 256
func Fingerprint(certificate []byte) [32]byte {
	return sha3.Sum256(certificate)
}

func fileExists(name string) bool {
	_, err := os.Stat(name)
	return nil == err
}
