// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"testing"

	"github.com/squeaknet/squeakd/fault"
)

// test that various errors are classified correctly
func TestClassification(t *testing.T) {

	errorList := []struct {
		err        error
		isExists   bool
		isInvalid  bool
		isNotFound bool
		isProtocol bool
		isRejected bool
		isRetry    bool
		isPayment  bool
	}{
		{fault.AlreadyPaid, true, false, false, false, false, false, false},
		{fault.BlockHashMismatch, false, true, false, false, false, false, false},
		{fault.SqueakNotFound, false, false, true, false, false, false, false},
		{fault.UnexpectedFrameType, false, false, false, true, false, false, false},
		{fault.QuotaExceeded, false, false, false, false, true, false, false},
		{fault.NotFollowed, false, false, false, false, true, false, false},
		{fault.OracleNotAvailable, false, false, false, false, false, true, false},
		{fault.PaymentDidNotSettle, false, false, false, false, false, false, true},
	}

	for i, item := range errorList {
		err := item.err
		if item.isExists != fault.IsErrExists(err) {
			t.Errorf("%d: exists mismatch for: %v", i, err)
		}
		if item.isInvalid != fault.IsErrInvalid(err) {
			t.Errorf("%d: invalid mismatch for: %v", i, err)
		}
		if item.isNotFound != fault.IsErrNotFound(err) {
			t.Errorf("%d: not found mismatch for: %v", i, err)
		}
		if item.isProtocol != fault.IsErrProtocol(err) {
			t.Errorf("%d: protocol mismatch for: %v", i, err)
		}
		if item.isRejected != fault.IsErrRejected(err) {
			t.Errorf("%d: rejected mismatch for: %v", i, err)
		}
		if item.isRetry != fault.IsErrRetry(err) {
			t.Errorf("%d: retry mismatch for: %v", i, err)
		}
		if item.isPayment != fault.IsErrPayment(err) {
			t.Errorf("%d: payment mismatch for: %v", i, err)
		}
	}
}

// each error must keep a stable message
func TestMessages(t *testing.T) {
	if "per block quota exceeded" != fault.QuotaExceeded.Error() {
		t.Errorf("unexpected message: %q", fault.QuotaExceeded.Error())
	}
	if "blockchain oracle not available" != fault.OracleNotAvailable.Error() {
		t.Errorf("unexpected message: %q", fault.OracleNotAvailable.Error())
	}
}
