// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc

import (
	"io"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/chain"
)

// the argument passed to the listener callback
type serverArgument struct {
	Log    *logger.L
	Server *rpc.Server
}

// createServer - register all rpc services
func createServer(log *logger.L, version string, oracle chain.Oracle) *rpc.Server {

	start := time.Now().UTC()

	server := rpc.NewServer()

	_ = server.Register(NewNode(log, start, version))
	_ = server.Register(NewSqueak(log, oracle))
	_ = server.Register(NewProfile(log))
	_ = server.Register(NewPeer(log))

	return server
}

// Callback - serve a single accepted connection
func Callback(conn io.ReadWriteCloser, argument interface{}) {

	serverArgument := argument.(*serverArgument)

	log := serverArgument.Log
	log.Debug("connection opened")

	globalData.connectionCount.Increment()
	defer globalData.connectionCount.Decrement()

	codec := jsonrpc.NewServerCodec(conn)
	defer codec.Close()
	serverArgument.Server.ServeCodec(codec)

	log.Debug("connection closed")
}
