// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration_test

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/squeaknet/squeakd/configuration"
)

const configurationText = `
local M = {}

M.network = "local"
M.author_quota = 25

M.peering = {
    listen = { "127.0.0.1:26831" },
    connect = { "peer.example.com:26831" },
}

M.client_rpc = {
    listen = { "127.0.0.1:26830" },
}

M.payment = {
    price = 5000,
    lnd = {
        endpoint = "https://127.0.0.1:8080",
        macaroon_file = "admin.macaroon",
    },
}

M.bitcoin = {
    url = "http://127.0.0.1:18443",
    username = "rpcuser",
    password = "rpcpass",
}

return M
`

func TestGetConfiguration(t *testing.T) {
	dir, err := ioutil.TempDir("", "configuration-test")
	assert.NoError(t, err, "temp dir")
	defer os.RemoveAll(dir)

	fileName := filepath.Join(dir, "squeakd.conf")
	err = ioutil.WriteFile(fileName, []byte(configurationText), 0600)
	assert.NoError(t, err, "write configuration")

	options, err := configuration.GetConfiguration(fileName)
	assert.NoError(t, err, "parse")

	assert.Equal(t, "local", options.Network, "network")
	assert.Equal(t, uint64(25), options.AuthorQuota, "author quota")
	assert.Equal(t, []string{"127.0.0.1:26831"}, options.Peering.Listen, "peer listen")
	assert.Equal(t, []string{"peer.example.com:26831"}, options.Peering.Connect, "peer connect")
	assert.Equal(t, uint64(5000), options.Payment.Price, "price")
	assert.Equal(t, "rpcuser", options.Bitcoin.Username, "bitcoind user")

	// per network database default
	assert.Equal(t, filepath.Join(dir, "data", "local.leveldb"), options.Database.Name, "database path")

	// relative paths are rooted at the data directory
	assert.Equal(t, filepath.Join(dir, "wallet.key"), options.WalletKeyFile, "wallet key file")
	assert.Equal(t, filepath.Join(dir, "rpc.crt"), options.ClientRPC.Certificate, "rpc certificate")
	assert.Equal(t, filepath.Join(dir, "admin.macaroon"), options.Payment.Lnd.MacaroonFile, "macaroon path")
	assert.True(t, filepath.IsAbs(options.Logging.Directory), "log directory absolute")
}

func TestGetConfigurationRejectsUnknownNetwork(t *testing.T) {
	dir, err := ioutil.TempDir("", "configuration-test")
	assert.NoError(t, err, "temp dir")
	defer os.RemoveAll(dir)

	fileName := filepath.Join(dir, "squeakd.conf")
	err = ioutil.WriteFile(fileName, []byte(`return { network = "betanet" }`), 0600)
	assert.NoError(t, err, "write configuration")

	_, err = configuration.GetConfiguration(fileName)
	assert.Error(t, err, "unknown network refused")
}
