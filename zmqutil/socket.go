// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package zmqutil

import (
	"strings"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/util"
)

const (
	heartbeatInterval = 15 * time.Second
	heartbeatTimeout  = 60 * time.Second
	heartbeatTTL      = 120 * time.Second
)

// NewBind - bind a list of listen addresses
//
// IPv4 and IPv6 traffic get separate sockets, at most one of each;
// either returned socket may be nil when no address of that family
// was configured
func NewBind(log *logger.L, socketType zmq.Type, zapDomain string, privateKey []byte, publicKey []byte, listen []string) (*zmq.Socket, *zmq.Socket, error) {

	socket4 := (*zmq.Socket)(nil)
	socket6 := (*zmq.Socket)(nil)

	err := error(nil)

	for i, address := range listen {
		canonical, e := util.CanonicalIPandPort(address)
		if nil != e {
			err = e
			goto fail
		}
		v6 := strings.HasPrefix(canonical, "[")
		bindTo := "tcp://" + canonical

		if v6 {
			if nil == socket6 {
				socket6, err = NewServerSocket(socketType, zapDomain, privateKey, publicKey, v6)
			}
		} else {
			if nil == socket4 {
				socket4, err = NewServerSocket(socketType, zapDomain, privateKey, publicKey, v6)
			}
		}
		if nil != err {
			goto fail
		}

		if v6 {
			err = socket6.Bind(bindTo)
		} else {
			err = socket4.Bind(bindTo)
		}
		if nil != err {
			log.Errorf("cannot bind[%d]: %q  error: %s", i, bindTo, err)
			goto fail
		}
		log.Infof("bind[%d]: %q  IPv6: %t", i, bindTo, v6)
	}
	return socket4, socket6, nil

fail:
	if nil != socket4 {
		socket4.Close()
	}
	if nil != socket6 {
		socket6.Close()
	}
	return nil, nil, err
}

// NewServerSocket - a CURVE server socket accepting any client
func NewServerSocket(socketType zmq.Type, zapDomain string, privateKey []byte, publicKey []byte, v6 bool) (*zmq.Socket, error) {

	socket, err := zmq.NewSocket(socketType)
	if nil != err {
		return nil, err
	}

	zmq.AuthCurveAdd(zapDomain, zmq.CURVE_ALLOW_ANY)

	socket.SetCurveServer(1)
	socket.SetCurveSecretkey(string(privateKey))
	socket.SetZapDomain(zapDomain)
	socket.SetIdentity(string(publicKey))
	socket.SetIpv6(v6)

	socket.SetHeartbeatIvl(heartbeatInterval)
	socket.SetHeartbeatTimeout(heartbeatTimeout)
	socket.SetHeartbeatTtl(heartbeatTTL)

	return socket, nil
}
