// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package publish

import (
	zmq "github.com/pebbe/zmq4"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/messagebus"
	"github.com/squeaknet/squeakd/zmqutil"
)

const (
	zapDomain = "publisher"

	// event topics as seen by subscribers
	topicSqueak  = "squeak"
	topicPayment = "payment"

	subscriptionSize = 64
)

type broadcaster struct {
	log     *logger.L
	socket4 *zmq.Socket
	socket6 *zmq.Socket
}

// bind the PUB sockets
func (brdc *broadcaster) initialise(privateKey []byte, publicKey []byte, broadcast []string) error {
	log := logger.New("broadcaster")
	brdc.log = log

	log.Info("initialising…")

	socket4, socket6, err := zmqutil.NewBind(log, zmq.PUB, zapDomain, privateKey, publicKey, broadcast)
	if nil != err {
		log.Errorf("bind error: %s", err)
		return err
	}
	brdc.socket4 = socket4
	brdc.socket6 = socket6

	return nil
}

// Run - relay bus events onto the PUB sockets until shutdown
func (brdc *broadcaster) Run(args interface{}, shutdown <-chan struct{}) {
	log := brdc.log

	log.Info("starting…")

	confirmed := messagebus.SqueakConfirmed.Chan(subscriptionSize)
	paid := messagebus.PaymentReceived.Chan(subscriptionSize)

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case message := <-confirmed:
			if hash, ok := message.Item.(digest.Digest); ok {
				brdc.publish(topicSqueak, hash)
			}

		case message := <-paid:
			if hash, ok := message.Item.(digest.Digest); ok {
				brdc.publish(topicPayment, hash)
			}
		}
	}

	messagebus.SqueakConfirmed.Unsubscribe(confirmed)
	messagebus.PaymentReceived.Unsubscribe(paid)

	if nil != brdc.socket4 {
		brdc.socket4.Close()
	}
	if nil != brdc.socket6 {
		brdc.socket6.Close()
	}

	log.Info("stopped")
}

// send one event as a two frame message: topic, hash
func (brdc *broadcaster) publish(topic string, hash digest.Digest) {
	brdc.log.Debugf("publish: %s %s", topic, hash)

	if nil != brdc.socket4 {
		if _, err := brdc.socket4.SendMessage(topic, hash.String()); nil != err {
			brdc.log.Errorf("IPv4 send error: %s", err)
		}
	}
	if nil != brdc.socket6 {
		if _, err := brdc.socket6.SendMessage(topic, hash.String()); nil != err {
			brdc.log.Errorf("IPv6 send error: %s", err)
		}
	}
}
