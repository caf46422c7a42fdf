// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package messagebus - fan-out message distribution
//
// each topic supports zero or more subscribers; a publish is
// delivered to every current subscriber, dropping the message for any
// subscriber whose channel is full so a slow listener can never stall
// the publisher
package messagebus

import (
	"sync"
)

// Message - the unit of distribution
type Message struct {
	From string      // component that published the message
	Item interface{} // payload, topic specific
}

// Topic - a single named distribution point
type Topic struct {
	sync.Mutex
	name        string
	subscribers []chan Message
}

// standard topics
var (
	// KeyChanged - the signing key was replaced
	KeyChanged = &Topic{name: "key-changed"}

	// FollowsChanged - the follow set was modified
	FollowsChanged = &Topic{name: "follows-changed"}

	// SqueakConfirmed - a stored squeak passed block verification
	SqueakConfirmed = &Topic{name: "squeak-confirmed"}

	// SqueakStored - a squeak was admitted to the store
	SqueakStored = &Topic{name: "squeak-stored"}

	// PaymentReceived - a sell offer was marked as paid
	PaymentReceived = &Topic{name: "payment-received"}
)

// Name - the topic name
func (topic *Topic) Name() string {
	return topic.name
}

// Chan - subscribe, returning a channel of the given buffer size
func (topic *Topic) Chan(size int) <-chan Message {
	if size <= 0 {
		size = 1
	}
	ch := make(chan Message, size)

	topic.Lock()
	topic.subscribers = append(topic.subscribers, ch)
	topic.Unlock()

	return ch
}

// Unsubscribe - remove a previously subscribed channel
func (topic *Topic) Unsubscribe(subscription <-chan Message) {
	topic.Lock()
	defer topic.Unlock()

	for i, ch := range topic.subscribers {
		if subscription == (<-chan Message)(ch) {
			topic.subscribers = append(topic.subscribers[:i], topic.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// Send - publish to all current subscribers
func (topic *Topic) Send(from string, item interface{}) {
	topic.Lock()
	defer topic.Unlock()

	for _, ch := range topic.subscribers {
		select {
		case ch <- Message{From: from, Item: item}:
		default: // subscriber queue full, message dropped for it
		}
	}
}
