// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage_test

import (
	"bytes"
	"testing"

	"github.com/squeaknet/squeakd/storage"
)

func TestPutGetDelete(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.Squeaks

	key := []byte("key-one")
	value := []byte("value-one")

	if p.Has(key) {
		t.Fatal("key unexpectedly present")
	}

	p.Put(key, value)

	if !p.Has(key) {
		t.Fatal("key missing after put")
	}
	if !bytes.Equal(value, p.Get(key)) {
		t.Fatalf("get: %q expected: %q", p.Get(key), value)
	}

	p.Delete(key)
	if p.Has(key) {
		t.Fatal("key present after delete")
	}
	if nil != p.Get(key) {
		t.Fatal("get after delete returned data")
	}
}

// pools with the same keys must not collide
func TestPoolIsolation(t *testing.T) {
	setup(t)
	defer teardown(t)

	key := []byte("shared-key")

	storage.Pool.Offers.Put(key, []byte("offer"))
	storage.Pool.Payments.Put(key, []byte("payment"))

	if !bytes.Equal([]byte("offer"), storage.Pool.Offers.Get(key)) {
		t.Fatal("offers pool corrupted")
	}
	if !bytes.Equal([]byte("payment"), storage.Pool.Payments.Get(key)) {
		t.Fatal("payments pool corrupted")
	}

	storage.Pool.Offers.Delete(key)
	if nil == storage.Pool.Payments.Get(key) {
		t.Fatal("delete leaked across pools")
	}
}

func TestPutIfAbsent(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.Payments

	key := []byte("payment-hash")

	if !p.PutIfAbsent(key, []byte("first")) {
		t.Fatal("first insert rejected")
	}
	if p.PutIfAbsent(key, []byte("second")) {
		t.Fatal("duplicate insert accepted")
	}
	if !bytes.Equal([]byte("first"), p.Get(key)) {
		t.Fatal("duplicate insert overwrote record")
	}
}

func TestGetNPutN(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.Cursors

	key := []byte("settle-index")

	if _, ok := p.GetN(key); ok {
		t.Fatal("cursor unexpectedly present")
	}

	p.PutN(key, 42)

	n, ok := p.GetN(key)
	if !ok {
		t.Fatal("cursor missing")
	}
	if 42 != n {
		t.Fatalf("cursor: %d expected: 42", n)
	}
}

func TestRange(t *testing.T) {
	setup(t)
	defer teardown(t)

	p := storage.Pool.Profiles

	expected := map[string]string{
		"a": "alpha",
		"b": "bravo",
		"c": "charlie",
	}
	for k, v := range expected {
		p.Put([]byte(k), []byte(v))
	}

	// an entry in another pool must not appear
	storage.Pool.Peers.Put([]byte("z"), []byte("zulu"))

	seen := map[string]string{}
	err := p.Range(func(key []byte, value []byte) bool {
		seen[string(key)] = string(value)
		return true
	})
	if nil != err {
		t.Fatalf("range error: %v", err)
	}

	if len(expected) != len(seen) {
		t.Fatalf("range saw %d records expected %d", len(seen), len(expected))
	}
	for k, v := range expected {
		if seen[k] != v {
			t.Fatalf("range: %q = %q expected %q", k, seen[k], v)
		}
	}

	if 3 != p.Count() {
		t.Fatalf("count: %d expected 3", p.Count())
	}
}
