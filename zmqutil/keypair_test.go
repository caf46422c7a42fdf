// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/zmqutil"
)

func TestKeyPairFiles(t *testing.T) {
	dir, err := os.Getwd()
	assert.NoError(t, err, "getwd")
	publicFile := filepath.Join(dir, "test-public.key")
	privateFile := filepath.Join(dir, "test-private.key")
	defer os.Remove(publicFile)
	defer os.Remove(privateFile)

	err = zmqutil.MakeKeyPair(publicFile, privateFile)
	assert.NoError(t, err, "make key pair")

	publicKey, err := zmqutil.ReadPublicKeyFile(publicFile)
	assert.NoError(t, err, "read public")
	assert.Equal(t, 32, len(publicKey), "public key size")

	privateKey, err := zmqutil.ReadPrivateKeyFile(privateFile)
	assert.NoError(t, err, "read private")
	assert.Equal(t, 32, len(privateKey), "private key size")

	// the tag stops a private key being loaded as a public one
	_, err = zmqutil.ReadPublicKeyFile(privateFile)
	assert.Equal(t, fault.InvalidPublicKey, err, "tag mix up")
	_, err = zmqutil.ReadPrivateKeyFile(publicFile)
	assert.Equal(t, fault.InvalidPrivateKey, err, "tag mix up")

	// existing files must not be overwritten
	err = zmqutil.MakeKeyPair(publicFile, privateFile)
	assert.True(t, fault.IsErrExists(err), "overwrite refused")
}

func TestReadMissingKeyFile(t *testing.T) {
	_, err := zmqutil.ReadPublicKeyFile("no-such-file.key")
	assert.Equal(t, fault.KeyFileNotFound, err, "missing file")
}
