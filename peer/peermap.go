// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer

import (
	"sync"
)

// linkMap maintains the pair between addresses and connected links
// in a thread-safe way
type linkMap struct {
	sync.RWMutex
	links map[string]*PeerLink
}

func newLinkMap() *linkMap {
	return &linkMap{
		links: map[string]*PeerLink{},
	}
}

func (m *linkMap) Add(addr string, l *PeerLink) {
	m.Lock()
	defer m.Unlock()
	m.links[addr] = l
}

func (m *linkMap) Get(addr string) *PeerLink {
	m.RLock()
	defer m.RUnlock()
	return m.links[addr]
}

func (m *linkMap) Exist(addr string) bool {
	m.RLock()
	defer m.RUnlock()
	_, ok := m.links[addr]
	return ok
}

func (m *linkMap) Len() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.links)
}

func (m *linkMap) Delete(addr string) {
	m.Lock()
	defer m.Unlock()
	delete(m.links, addr)
}

// Range iterates over a snapshot so a callback may add or remove
// links without deadlocking
func (m *linkMap) Range(callback func(addr string, l *PeerLink)) {
	m.RLock()
	snapshot := make(map[string]*PeerLink, len(m.links))
	for addr, l := range m.links {
		snapshot[addr] = l
	}
	m.RUnlock()

	for addr, l := range snapshot {
		callback(addr, l)
	}
}
