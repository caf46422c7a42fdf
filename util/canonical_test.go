// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util_test

import (
	"testing"

	"github.com/squeaknet/squeakd/util"
)

func TestCanonical(t *testing.T) {

	type item struct {
		in  string
		out string
	}

	testData := []item{
		{"127.0.0.1:1234", "127.0.0.1:1234"},
		{" 127.0.0.1 : 1234 ", "127.0.0.1:1234"}, // surrounding spaces are trimmed
		{"[::1]:1234", "[::1]:1234"},
		{"[2404:6800:4008:c07::66]:443", "[2404:6800:4008:c07::66]:443"},
		{"localhost:1234", ""},
		{"127.0.0.1:0", ""},
		{"127.0.0.1:65536", ""},
		{"127.0.0.1", ""},
	}

	for i, d := range testData {
		actual, err := util.CanonicalIPandPort(d.in)
		if "" == d.out {
			if nil == err {
				t.Errorf("%d: %q unexpectedly accepted as %q", i, d.in, actual)
			}
			continue
		}
		if nil != err {
			t.Errorf("%d: %q error: %v", i, d.in, err)
			continue
		}
		if d.out != actual {
			t.Errorf("%d: %q -> %q expected %q", i, d.in, actual, d.out)
		}
	}
}

func TestSplitHostAndPort(t *testing.T) {

	host, port, err := util.SplitHostAndPort("node.example.com:8555")
	if nil != err {
		t.Fatalf("split error: %v", err)
	}
	if "node.example.com" != host || 8555 != port {
		t.Fatalf("split: %q %d", host, port)
	}

	_, _, err = util.SplitHostAndPort("no-port")
	if nil == err {
		t.Fatal("missing port unexpectedly accepted")
	}
}
