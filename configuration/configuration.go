// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package configuration

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/chain"
	"github.com/squeaknet/squeakd/mode"
	"github.com/squeaknet/squeakd/payment"
	"github.com/squeaknet/squeakd/peer"
	"github.com/squeaknet/squeakd/publish"
	"github.com/squeaknet/squeakd/rpc"
	"github.com/squeaknet/squeakd/util"
)

// file and directory defaults, relative to DataDirectory
const (
	defaultWalletKeyFile = "wallet.key"

	defaultPublishPublicKeyFile  = "publish.public"
	defaultPublishPrivateKeyFile = "publish.private"

	defaultRPCCertificateFile = "rpc.crt"
	defaultRPCKeyFile         = "rpc.key"

	defaultLevelDBDirectory = "data"

	defaultLogDirectory = "log"
	defaultLogFile      = "squeakd.log"
	defaultLogCount     = 10
	defaultLogSize      = 1024 * 1024

	defaultRPCClients  = 10
	defaultAuthorQuota = 10
)

var defaultLogLevels = map[string]string{
	logger.DefaultTag: "critical",
}

// DatabaseType - the leveldb location
type DatabaseType struct {
	Directory string `gluamapper:"directory" json:"directory"`
	Name      string `gluamapper:"name" json:"name"`
}

// Configuration - the daemon configuration file
type Configuration struct {
	DataDirectory string `gluamapper:"data_directory" json:"data_directory"`
	PidFile       string `gluamapper:"pidfile" json:"pidfile"`
	Network       string `gluamapper:"network" json:"network"`
	ProfileHTTP   string `gluamapper:"profile_http" json:"profile_http"`

	// relayed squeaks accepted per author per block
	AuthorQuota uint64 `gluamapper:"author_quota" json:"author_quota"`

	WalletKeyFile string `gluamapper:"wallet_key_file" json:"wallet_key_file"`

	Database DatabaseType `gluamapper:"database" json:"database"`

	ClientRPC  rpc.Configuration     `gluamapper:"client_rpc" json:"client_rpc"`
	Peering    peer.Configuration    `gluamapper:"peering" json:"peering"`
	Publishing publish.Configuration `gluamapper:"publishing" json:"publishing"`
	Payment    payment.Configuration `gluamapper:"payment" json:"payment"`
	Bitcoin    chain.Configuration   `gluamapper:"bitcoin" json:"bitcoin"`
	Logging    logger.Configuration  `gluamapper:"logging" json:"logging"`
}

// GetConfiguration - read, decode and validate the configuration file
func GetConfiguration(configurationFileName string) (*Configuration, error) {

	configurationFileName, err := filepath.Abs(filepath.Clean(configurationFileName))
	if nil != err {
		return nil, err
	}

	// directory of the configuration file for relative paths
	dataDirectory, _ := filepath.Split(configurationFileName)

	options := &Configuration{
		DataDirectory: ".",
		PidFile:       "",
		Network:       mode.Mainnet,
		AuthorQuota:   defaultAuthorQuota,
		WalletKeyFile: defaultWalletKeyFile,

		Database: DatabaseType{
			Directory: defaultLevelDBDirectory,
			Name:      "", // filled in from network below
		},

		ClientRPC: rpc.Configuration{
			MaximumConnections: defaultRPCClients,
			Certificate:        defaultRPCCertificateFile,
			PrivateKey:         defaultRPCKeyFile,
		},

		Publishing: publish.Configuration{
			PublicKey:  defaultPublishPublicKeyFile,
			PrivateKey: defaultPublishPrivateKeyFile,
		},

		Logging: logger.Configuration{
			Directory: defaultLogDirectory,
			File:      defaultLogFile,
			Size:      defaultLogSize,
			Count:     defaultLogCount,
			Levels:    defaultLogLevels,
		},
	}

	if err := ParseConfigurationFile(configurationFileName, options); nil != err {
		return nil, err
	}

	options.Network = strings.ToLower(options.Network)
	switch options.Network {
	case mode.Mainnet, mode.Testnet, mode.Local:
	default:
		return nil, fmt.Errorf("network: %q is not supported", options.Network)
	}

	// per network database unless the operator named one
	if "" == options.Database.Name {
		options.Database.Name = options.Network + ".leveldb"
	}

	// ensure absolute data directory
	if "" == options.DataDirectory || "~" == options.DataDirectory {
		return nil, fmt.Errorf("path: %q is not a valid directory", options.DataDirectory)
	} else if "." == options.DataDirectory {
		options.DataDirectory = dataDirectory
	} else {
		options.DataDirectory = filepath.Clean(options.DataDirectory)
	}

	// this directory must exist before the daemon starts
	if fileInfo, err := os.Stat(options.DataDirectory); nil != err {
		return nil, err
	} else if !fileInfo.IsDir() {
		return nil, fmt.Errorf("path: %q is not a directory", options.DataDirectory)
	}

	// peers.json and friends live in the data directory
	if "" == options.Peering.DataDirectory {
		options.Peering.DataDirectory = options.DataDirectory
	}

	// force relevant items to be absolute paths rooted at the
	// data directory
	mustBeAbsolute := []*string{
		&options.WalletKeyFile,
		&options.Database.Directory,
		&options.Peering.DataDirectory,
		&options.ClientRPC.Certificate,
		&options.ClientRPC.PrivateKey,
		&options.Publishing.PublicKey,
		&options.Publishing.PrivateKey,
		&options.Payment.Lnd.MacaroonFile,
		&options.Logging.Directory,
	}
	for _, f := range mustBeAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// optional absolute paths, blank or an absolute path
	optionalAbsolute := []*string{
		&options.PidFile,
	}
	for _, f := range optionalAbsolute {
		if "" != *f {
			*f = util.EnsureAbsolute(options.DataDirectory, *f)
		}
	}

	// database name must be a simple file name inside its directory
	if strings.ContainsRune(options.Database.Name, os.PathSeparator) {
		return nil, fmt.Errorf("database name: %q must not contain a path separator", options.Database.Name)
	}
	options.Database.Name = util.EnsureAbsolute(options.Database.Directory, options.Database.Name)
	if strings.ContainsRune(options.Logging.File, os.PathSeparator) {
		return nil, fmt.Errorf("log file: %q must not contain a path separator", options.Logging.File)
	}

	return options, nil
}
