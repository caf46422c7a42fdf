// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package payment_test

import (
	"crypto/rand"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/ed25519"

	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/fixtures"
	"github.com/squeaknet/squeakd/lightning"
	"github.com/squeaknet/squeakd/lightning/mocks"
	"github.com/squeaknet/squeakd/payment"
	"github.com/squeaknet/squeakd/squeakrecord"
	"github.com/squeaknet/squeakd/storage"
)

const databaseFileName = "test.leveldb"

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	rc := m.Run()
	fixtures.TeardownTestLogger()
	os.RemoveAll(databaseFileName)
	os.Exit(rc)
}

// testFeed - a scriptable settlement feed
type testFeed struct {
	settlements chan lightning.Settlement
	closed      chan struct{}
	once        sync.Once
}

func newTestFeed() *testFeed {
	return &testFeed{
		settlements: make(chan lightning.Settlement, 16),
		closed:      make(chan struct{}),
	}
}

func (f *testFeed) Receive() (lightning.Settlement, error) {
	select {
	case settlement := <-f.settlements:
		return settlement, nil
	case <-f.closed:
		return lightning.Settlement{}, errors.New("feed closed")
	}
}

func (f *testFeed) Close() {
	f.once.Do(func() { close(f.closed) })
}

func (f *testFeed) settle(paymentHash [32]byte, settleIndex uint64) {
	f.settlements <- lightning.Settlement{
		PaymentHash: paymentHash,
		SettleIndex: settleIndex,
		AmountMsat:  1000,
	}
}

func (f *testFeed) fail() {
	f.Close()
}

// a client whose invoices are payable in the tests: the preimage of
// the most recent invoice is remembered and returned by PayInvoice
func scriptedClient(ctl *gomock.Controller, feeds ...*testFeed) (*mocks.MockClient, *[]byte) {
	client := mocks.NewMockClient(ctl)
	lastPreimage := &[]byte{}

	client.EXPECT().
		CreateInvoice(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(preimage []byte, amountMsat uint64, expiry time.Duration) (lightning.Invoice, error) {
			*lastPreimage = append([]byte(nil), preimage...)
			return lightning.Invoice{
				PaymentRequest: "lnbcrt1testinvoice",
				PaymentHash:    squeakrecord.PaymentHash(preimage),
				CreationTime:   time.Now(),
				Expiry:         time.Hour,
			}, nil
		}).
		AnyTimes()

	calls := 0
	client.EXPECT().
		SubscribeSettled(gomock.Any()).
		DoAndReturn(func(fromSettleIndex uint64) (lightning.SettlementFeed, error) {
			if calls < len(feeds) {
				feed := feeds[calls]
				calls += 1
				return feed, nil
			}
			return newTestFeed(), nil
		}).
		AnyTimes()

	return client, lastPreimage
}

func setup(t *testing.T, client lightning.Client) {
	os.RemoveAll(databaseFileName)
	err := storage.Initialise(databaseFileName)
	if nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}
	err = payment.Initialise(client, &payment.Configuration{
		Price:         1000,
		InvoiceExpiry: 3600,
		SweepInterval: 3600,
		RetryDelay:    1,
		LightningHost: "seller.example.com",
		LightningPort: 9735,
	})
	if nil != err {
		t.Fatalf("payment initialise error: %s", err)
	}
}

func teardown(t *testing.T) {
	payment.Finalise()
	storage.Finalise()
	os.RemoveAll(databaseFileName)
}

// store a squeak with its content key, as authoring would
func storeSellable(t *testing.T) (digest.Digest, []byte) {
	_, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if nil != err {
		t.Fatalf("generate key error: %v", err)
	}
	s, contentKey, err := squeakrecord.New(privateKey, []byte("for sale"), nil, digest.Digest{}, 100, digest.NewDigest([]byte("block")))
	if nil != err {
		t.Fatalf("new squeak error: %v", err)
	}
	packed, err := s.Pack()
	if nil != err {
		t.Fatalf("pack error: %v", err)
	}
	hash := s.Hash()
	storage.Pool.Squeaks.Put(hash[:], packed)
	storage.Pool.SqueakKeys.Put(hash[:], contentKey)
	return hash, contentKey
}

func TestCreateOfferAndAccept(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	client, lastPreimage := scriptedClient(ctl)
	client.EXPECT().
		PayInvoice("lnbcrt1testinvoice").
		DoAndReturn(func(string) ([]byte, error) { return *lastPreimage, nil }).
		Times(1)

	setup(t, client)
	defer teardown(t)

	hash, contentKey := storeSellable(t)
	challenge := []byte("a buyer nonce")

	offer, err := payment.CreateOffer(hash, challenge, "buyer.example.com:8555")
	assert.NoError(t, err, "create offer")
	assert.Equal(t, hash, offer.SqueakHash, "squeak hash")
	assert.Equal(t, uint64(1000), offer.Price, "price")
	assert.Equal(t, "seller.example.com", offer.Host, "lightning host")
	assert.NotEmpty(t, offer.Proof, "proof")
	assert.NotEmpty(t, offer.KeyCiphertext, "key ciphertext")

	// invoice bookkeeping exists, unpaid
	received, err := payment.GetReceivedPayment(offer.PaymentHash)
	assert.NoError(t, err, "received payment row")
	assert.False(t, received.Paid, "not yet paid")

	unlocked, err := payment.AcceptOffer(offer, challenge, "seller.example.com:8444")
	assert.NoError(t, err, "accept offer")
	assert.Equal(t, contentKey, unlocked, "content key recovered")

	sent, err := payment.GetSentPayment(offer.PaymentHash)
	assert.NoError(t, err, "sent payment row")
	assert.True(t, sent.ValidPreimage, "preimage checked")
}

func TestAcceptOfferDoesNotBlockSellSide(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	client, lastPreimage := scriptedClient(ctl)

	paying := make(chan struct{})
	release := make(chan struct{})
	buyPreimage := []byte(nil)
	client.EXPECT().
		PayInvoice(gomock.Any()).
		DoAndReturn(func(string) ([]byte, error) {
			close(paying)
			<-release
			return buyPreimage, nil
		}).
		Times(1)

	setup(t, client)
	defer teardown(t)

	buyHash, buyKey := storeSellable(t)
	challenge := []byte("buyer one nonce")

	offer, err := payment.CreateOffer(buyHash, challenge, "buyer-one.example.com:8555")
	assert.NoError(t, err, "create offer")
	buyPreimage = append([]byte(nil), *lastPreimage...)

	type buyResult struct {
		key []byte
		err error
	}
	done := make(chan buyResult, 1)
	go func() {
		key, err := payment.AcceptOffer(offer, challenge, "seller.example.com:8444")
		done <- buyResult{key, err}
	}()

	// wait until the payment is parked inside the channel client
	select {
	case <-paying:
	case <-time.After(5 * time.Second):
		t.Fatal("payment never started")
	}

	// the sell side must keep answering while the buy is in flight
	sellHash, _ := storeSellable(t)
	second, err := payment.CreateOffer(sellHash, []byte("buyer two nonce"), "buyer-two.example.com:8555")
	assert.NoError(t, err, "sell during buy")
	assert.Equal(t, sellHash, second.SqueakHash, "second offer")

	close(release)
	select {
	case result := <-done:
		assert.NoError(t, result.err, "accept offer")
		assert.Equal(t, buyKey, result.key, "content key recovered")
	case <-time.After(5 * time.Second):
		t.Fatal("buy never finished")
	}
}

func TestAcceptOfferWrongPreimage(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	client, _ := scriptedClient(ctl)
	wrong := make([]byte, squeakrecord.PreimageSize)
	client.EXPECT().PayInvoice(gomock.Any()).Return(wrong, nil).Times(1)

	setup(t, client)
	defer teardown(t)

	hash, _ := storeSellable(t)
	challenge := []byte("a buyer nonce")

	offer, err := payment.CreateOffer(hash, challenge, "buyer.example.com:8555")
	assert.NoError(t, err, "create offer")

	_, err = payment.AcceptOffer(offer, challenge, "seller.example.com:8444")
	assert.Equal(t, fault.InvalidPreimage, err, "wrong preimage rejected")

	// the failed preimage is still recorded for diagnosis
	sent, err := payment.GetSentPayment(offer.PaymentHash)
	assert.NoError(t, err, "sent payment row")
	assert.False(t, sent.ValidPreimage, "marked invalid")
}

func TestAcceptOfferPaymentFailureIsRetryable(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	client, _ := scriptedClient(ctl)
	client.EXPECT().PayInvoice(gomock.Any()).Return(nil, fault.PaymentDidNotSettle).Times(1)

	setup(t, client)
	defer teardown(t)

	hash, _ := storeSellable(t)
	challenge := []byte("a buyer nonce")

	offer, err := payment.CreateOffer(hash, challenge, "buyer.example.com:8555")
	assert.NoError(t, err, "create offer")

	_, err = payment.AcceptOffer(offer, challenge, "seller.example.com:8444")
	assert.Equal(t, fault.PaymentDidNotSettle, err, "payment failure")
	assert.True(t, fault.IsErrPayment(err), "payment class, retryable")
	assert.False(t, fault.IsErrInvalid(err), "not a validation failure")
}

func TestCreateOfferRejections(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	client, _ := scriptedClient(ctl)
	setup(t, client)
	defer teardown(t)

	challenge := []byte("a buyer nonce")

	// unknown squeak
	_, err := payment.CreateOffer(digest.NewDigest([]byte("no such")), challenge, "buyer:1")
	assert.Equal(t, fault.SqueakNotFound, err, "unknown squeak")

	// stored but no key held
	hash, _ := storeSellable(t)
	storage.Pool.SqueakKeys.Delete(hash[:])
	_, err = payment.CreateOffer(hash, challenge, "buyer:1")
	assert.Equal(t, fault.NotForSale, err, "no key held")

	// key released publicly
	hash2, _ := storeSellable(t)
	err = payment.MakeKeyPublic(hash2)
	assert.NoError(t, err, "make public")
	_, err = payment.CreateOffer(hash2, challenge, "buyer:1")
	assert.Equal(t, fault.KeyAlreadyPublic, err, "free squeak")

	// missing challenge
	hash3, _ := storeSellable(t)
	_, err = payment.CreateOffer(hash3, nil, "buyer:1")
	assert.Equal(t, fault.InvalidChallenge, err, "no challenge")
}

func TestCreateOfferRefusedAfterSettlement(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	feed := newTestFeed()
	client, _ := scriptedClient(ctl, feed)

	setup(t, client)
	defer teardown(t)

	hash, _ := storeSellable(t)
	offer, err := payment.CreateOffer(hash, []byte("nonce"), "buyer:1")
	assert.NoError(t, err, "create offer")

	feed.settle(offer.PaymentHash, 7)
	assert.Eventually(t, func() bool {
		received, err := payment.GetReceivedPayment(offer.PaymentHash)
		return nil == err && received.Paid
	}, 5*time.Second, 10*time.Millisecond, "settlement applied")

	// this buyer already holds the key, never sell it twice
	_, err = payment.CreateOffer(hash, []byte("another nonce"), "buyer:1")
	assert.Equal(t, fault.AlreadyPaid, err, "repeat buyer refused")
	assert.True(t, fault.IsErrExists(err), "typed rejection")

	// a different buyer still gets an offer
	_, err = payment.CreateOffer(hash, []byte("nonce"), "buyer:2")
	assert.NoError(t, err, "other buyer unaffected")
}

func TestSettlementIsIdempotent(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	feed := newTestFeed()
	client, _ := scriptedClient(ctl, feed)

	setup(t, client)
	defer teardown(t)

	hash, _ := storeSellable(t)
	offer, err := payment.CreateOffer(hash, []byte("nonce"), "buyer:1")
	assert.NoError(t, err, "create offer")

	feed.settle(offer.PaymentHash, 41)

	assert.Eventually(t, func() bool {
		received, err := payment.GetReceivedPayment(offer.PaymentHash)
		return nil == err && received.Paid
	}, 5*time.Second, 10*time.Millisecond, "settlement applied")

	received, _ := payment.GetReceivedPayment(offer.PaymentHash)
	assert.Equal(t, uint64(41), received.SettleIndex, "settle index recorded")
	assert.Equal(t, uint64(41), payment.SettleCursor(), "cursor advanced")

	paidOffer, err := payment.GetOffer(offer.PaymentHash)
	assert.NoError(t, err, "offer present")
	assert.True(t, paidOffer.Paid, "offer marked paid")

	// replay of the same settlement must change nothing
	feed.settle(offer.PaymentHash, 41)
	feed.settle([32]byte{0xff}, 42) // unknown invoice, cursor still advances

	assert.Eventually(t, func() bool {
		return 42 == payment.SettleCursor()
	}, 5*time.Second, 10*time.Millisecond, "cursor at 42")

	received, _ = payment.GetReceivedPayment(offer.PaymentHash)
	assert.True(t, received.Paid, "still paid")
	assert.Equal(t, uint64(41), received.SettleIndex, "settle index unchanged")
}

func TestWatcherResubscribesFromDurableCursor(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	feed1 := newTestFeed()
	feed2 := newTestFeed()
	client, _ := scriptedClient(ctl, feed1, feed2)

	setup(t, client)
	defer teardown(t)

	hash, _ := storeSellable(t)
	offerA, err := payment.CreateOffer(hash, []byte("nonce a"), "buyer:1")
	assert.NoError(t, err, "offer a")
	offerB, err := payment.CreateOffer(hash, []byte("nonce b"), "buyer:2")
	assert.NoError(t, err, "offer b")

	// first feed delivers 41 then dies mid-stream
	feed1.settle(offerA.PaymentHash, 41)
	assert.Eventually(t, func() bool {
		return 41 == payment.SettleCursor()
	}, 5*time.Second, 10*time.Millisecond, "cursor at 41")
	feed1.fail()

	// after resubscribing from the durable cursor, 42 still arrives
	feed2.settle(offerB.PaymentHash, 42)
	assert.Eventually(t, func() bool {
		received, err := payment.GetReceivedPayment(offerB.PaymentHash)
		return nil == err && received.Paid && 42 == payment.SettleCursor()
	}, 10*time.Second, 10*time.Millisecond, "delivery resumes")

	receivedA, _ := payment.GetReceivedPayment(offerA.PaymentHash)
	assert.True(t, receivedA.Paid, "no double credit")
	assert.Equal(t, uint64(41), receivedA.SettleIndex, "settle index unchanged")
}

func TestSweepDeletesOnlyExpiredUnpaid(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	feed := newTestFeed()
	client := mocks.NewMockClient(ctl)
	client.EXPECT().SubscribeSettled(gomock.Any()).Return(feed, nil).AnyTimes()

	// invoices from this client expire immediately
	client.EXPECT().
		CreateInvoice(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(preimage []byte, amountMsat uint64, expiry time.Duration) (lightning.Invoice, error) {
			return lightning.Invoice{
				PaymentRequest: "lnbcrt1shortinvoice",
				PaymentHash:    squeakrecord.PaymentHash(preimage),
				CreationTime:   time.Now().Add(-time.Hour),
				Expiry:         time.Minute,
			}, nil
		}).
		AnyTimes()

	setup(t, client)
	defer teardown(t)

	hash, _ := storeSellable(t)
	expired, err := payment.CreateOffer(hash, []byte("nonce a"), "buyer:1")
	assert.NoError(t, err, "expired offer")
	paid, err := payment.CreateOffer(hash, []byte("nonce b"), "buyer:2")
	assert.NoError(t, err, "paid offer")

	// settle the second offer before sweeping
	feed.settle(paid.PaymentHash, 7)
	assert.Eventually(t, func() bool {
		received, err := payment.GetReceivedPayment(paid.PaymentHash)
		return nil == err && received.Paid
	}, 5*time.Second, 10*time.Millisecond, "paid before sweep")

	payment.Sweep()

	_, err = payment.GetOffer(expired.PaymentHash)
	assert.Equal(t, fault.OfferNotFound, err, "expired offer deleted")
	_, err = payment.GetReceivedPayment(expired.PaymentHash)
	assert.Equal(t, fault.PaymentNotFound, err, "expired bookkeeping deleted")

	// a paid offer outlives its expiry for ever
	_, err = payment.GetOffer(paid.PaymentHash)
	assert.NoError(t, err, "paid offer kept")

	// idempotent: nothing further to remove
	payment.Sweep()
	_, err = payment.GetOffer(paid.PaymentHash)
	assert.NoError(t, err, "still kept")
}
