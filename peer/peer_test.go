// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package peer_test

import (
	"crypto/rand"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/ed25519"

	"github.com/squeaknet/squeakd/admission"
	chainmocks "github.com/squeaknet/squeakd/chain/mocks"
	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fixtures"
	"github.com/squeaknet/squeakd/lightning"
	lightningmocks "github.com/squeaknet/squeakd/lightning/mocks"
	"github.com/squeaknet/squeakd/mode"
	"github.com/squeaknet/squeakd/payment"
	"github.com/squeaknet/squeakd/peer"
	"github.com/squeaknet/squeakd/squeakrecord"
	"github.com/squeaknet/squeakd/storage"
	"github.com/squeaknet/squeakd/verifier"
	"github.com/squeaknet/squeakd/wallet"
	"github.com/squeaknet/squeakd/wire"
)

const databaseFileName = "test.leveldb"

var testBlockHash = digest.NewDigest([]byte("test block"))

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	mode.Initialise(mode.Local)
	rc := m.Run()
	mode.Finalise()
	fixtures.TeardownTestLogger()
	os.RemoveAll(databaseFileName)
	os.Exit(rc)
}

// reserve a port for the node's listener
func freeAddress(t *testing.T) string {
	listen, err := net.Listen("tcp", "127.0.0.1:0")
	if nil != err {
		t.Fatalf("listen error: %v", err)
	}
	address := listen.Addr().String()
	listen.Close()
	return address
}

func setup(t *testing.T, ctl *gomock.Controller) string {
	return setupWithPing(t, ctl, 60)
}

func setupWithPing(t *testing.T, ctl *gomock.Controller, pingSeconds int) string {
	os.RemoveAll(databaseFileName)
	if err := storage.Initialise(databaseFileName); nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}

	oracle := chainmocks.NewMockOracle(ctl)
	oracle.EXPECT().BlockHash(gomock.Any()).Return(testBlockHash, nil).AnyTimes()
	if err := verifier.Initialise(oracle); nil != err {
		t.Fatalf("verifier initialise error: %s", err)
	}

	if err := admission.Initialise(10); nil != err {
		t.Fatalf("admission initialise error: %s", err)
	}

	client := lightningmocks.NewMockClient(ctl)
	client.EXPECT().
		SubscribeSettled(gomock.Any()).
		DoAndReturn(func(uint64) (lightning.SettlementFeed, error) {
			return blockedFeed{make(chan struct{})}, nil
		}).
		AnyTimes()
	client.EXPECT().
		CreateInvoice(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(preimage []byte, amountMsat uint64, expiry time.Duration) (lightning.Invoice, error) {
			return lightning.Invoice{
				PaymentRequest: "lnbcrt1peertestinvoice",
				PaymentHash:    squeakrecord.PaymentHash(preimage),
				CreationTime:   time.Now(),
				Expiry:         time.Hour,
			}, nil
		}).
		AnyTimes()
	if err := payment.Initialise(client, &payment.Configuration{
		Price:         1000,
		InvoiceExpiry: 3600,
		SweepInterval: 3600,
		RetryDelay:    3600,
		LightningHost: "127.0.0.1",
		LightningPort: 9735,
	}); nil != err {
		t.Fatalf("payment initialise error: %s", err)
	}

	address := freeAddress(t)
	if err := peer.Initialise(&peer.Configuration{
		Listen:        []string{address},
		DataDirectory: ".",
		SyncInterval:  3600,
		PingInterval:  pingSeconds,
	}); nil != err {
		t.Fatalf("peer initialise error: %s", err)
	}
	return address
}

func teardown(t *testing.T) {
	peer.Finalise()
	payment.Finalise()
	admission.Finalise()
	verifier.Finalise()
	storage.Finalise()
	os.RemoveAll(databaseFileName)
	os.RemoveAll("peers.json")
}

// blockedFeed keeps the settlement watcher parked during tests
type blockedFeed struct {
	closed chan struct{}
}

func (f blockedFeed) Receive() (lightning.Settlement, error) {
	<-f.closed
	return lightning.Settlement{}, fmt.Errorf("feed closed")
}

func (f blockedFeed) Close() {
	select {
	case <-f.closed:
	default:
		close(f.closed)
	}
}

// remote - a scripted peer driven directly by the test
type remote struct {
	t     *testing.T
	conn  net.Conn
	magic [4]byte
}

func dialNode(t *testing.T, address string) *remote {
	conn, err := net.Dial("tcp", address)
	if nil != err {
		t.Fatalf("dial error: %v", err)
	}
	return &remote{
		t:     t,
		conn:  conn,
		magic: wire.MagicForNetwork(mode.Local),
	}
}

func (r *remote) send(msg wire.Message) {
	err := wire.WriteMessage(r.conn, r.magic, msg)
	if nil != err {
		r.t.Fatalf("send error: %v", err)
	}
}

// receive - next frame, failing the test on timeout
func (r *remote) receive() wire.Message {
	r.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	msg, err := wire.ReadMessage(r.conn, r.magic)
	if nil != err {
		r.t.Fatalf("receive error: %v", err)
	}
	return msg
}

// receiveCommand - skip frames until one of the wanted command arrives
func (r *remote) receiveCommand(command string) wire.Message {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		msg := r.receive()
		if msg.Command() == command {
			return msg
		}
	}
	r.t.Fatalf("no %q frame", command)
	return nil
}

// expectClosed - the node must drop the connection
func (r *remote) expectClosed() {
	r.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, err := wire.ReadMessage(r.conn, r.magic)
		if nil != err {
			return
		}
	}
}

// handshake - two-way version/verack
func (r *remote) handshake() {
	r.send(&wire.MessageVersion{
		Protocol:  wire.ProtocolVersion,
		Nonce:     42,
		UserAgent: "test-remote/1.0",
		Timestamp: time.Now().Unix(),
	})
	sawVersion := false
	sawVerack := false
	for !sawVersion || !sawVerack {
		switch r.receive().(type) {
		case *wire.MessageVersion:
			sawVersion = true
			r.send(&wire.MessageVerack{})
		case *wire.MessageVerack:
			sawVerack = true
		}
	}
}

func (r *remote) close() {
	r.conn.Close()
}

func storeSqueak(t *testing.T, privateKey ed25519.PrivateKey, body string) (digest.Digest, []byte) {
	s, contentKey, err := squeakrecord.New(privateKey, []byte(body), nil, digest.Digest{}, 100, testBlockHash)
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
	return hash, packed
}

func TestHandshakeGate(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	address := setup(t, ctl)
	defer teardown(t)

	// any frame other than version/verack before the handshake is
	// fatal to the connection
	r := dialNode(t, address)
	defer r.close()
	r.send(&wire.MessagePing{Nonce: 7})
	r.expectClosed()
}

func TestHandshakeAndPing(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	address := setup(t, ctl)
	defer teardown(t)

	r := dialNode(t, address)
	defer r.close()
	r.handshake()

	r.send(&wire.MessagePing{Nonce: 99})
	pong := r.receiveCommand(wire.CommandPong).(*wire.MessagePong)
	assert.Equal(t, uint64(99), pong.Nonce, "pong nonce")
}

func TestMissedPongClosesLink(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	address := setupWithPing(t, ctl, 1)
	defer teardown(t)

	r := dialNode(t, address)
	defer r.close()
	r.handshake()

	// swallow every ping: the next due ping finds the previous one
	// unanswered and the node tears the link down
	r.conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	for {
		if _, err := wire.ReadMessage(r.conn, r.magic); nil != err {
			break
		}
	}

	assert.Eventually(t, func() bool {
		return 0 == len(peer.ActivePeers())
	}, 5*time.Second, 10*time.Millisecond, "link torn down")
}

func TestInvRequestsOnlyUnknown(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	address := setup(t, ctl)
	defer teardown(t)

	_, privateKey, _ := ed25519.GenerateKey(rand.Reader)
	h1, _ := storeSqueak(t, privateKey, "already stored")
	h2 := digest.NewDigest([]byte("not stored"))

	r := dialNode(t, address)
	defer r.close()
	r.handshake()

	r.send(&wire.MessageInv{Items: []wire.InvItem{
		{Type: wire.InvTypeSqueak, Hash: h1},
		{Type: wire.InvTypeSqueak, Hash: h2},
	}})

	getdata := r.receiveCommand(wire.CommandGetData).(*wire.MessageGetData)
	assert.Equal(t, 1, len(getdata.Items), "only the unknown hash")
	assert.Equal(t, h2, getdata.Items[0].Hash, "h2 requested")
}

func TestGetDataServesAndEchoesMissing(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	address := setup(t, ctl)
	defer teardown(t)

	_, privateKey, _ := ed25519.GenerateKey(rand.Reader)
	stored, packed := storeSqueak(t, privateKey, "present")
	missing := digest.NewDigest([]byte("long gone"))

	r := dialNode(t, address)
	defer r.close()
	r.handshake()

	r.send(&wire.MessageGetData{Items: []wire.InvItem{
		{Type: wire.InvTypeSqueak, Hash: stored},
		{Type: wire.InvTypeSqueak, Hash: missing},
	}})

	squeakMsg := r.receiveCommand(wire.CommandSqueak).(*wire.MessageSqueak)
	assert.Equal(t, packed, squeakMsg.Payload, "stored squeak served")

	notfound := r.receiveCommand(wire.CommandNotFound).(*wire.MessageNotFound)
	assert.Equal(t, 1, len(notfound.Items), "one missing")
	assert.Equal(t, missing, notfound.Items[0].Hash, "missing echoed")
}

func TestSqueakAdmissionAndRelay(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	address := setup(t, ctl)
	defer teardown(t)

	publicKey, privateKey, _ := ed25519.GenerateKey(rand.Reader)
	err := wallet.StoreProfile(&wallet.Profile{Name: "author", PublicKey: publicKey, Following: true})
	assert.NoError(t, err, "follow author")

	s, _, err := squeakrecord.New(privateKey, []byte("relay me"), nil, digest.Digest{}, 100, testBlockHash)
	assert.NoError(t, err, "new squeak")
	packed, err := s.Pack()
	assert.NoError(t, err, "pack")
	hash := s.Hash()

	origin := dialNode(t, address)
	defer origin.close()
	origin.handshake()

	other := dialNode(t, address)
	defer other.close()
	other.handshake()

	origin.send(&wire.MessageSqueak{Payload: packed})

	assert.Eventually(t, func() bool {
		return storage.Pool.Squeaks.Has(hash[:])
	}, 5*time.Second, 10*time.Millisecond, "admitted")

	// once confirmed, the squeak is announced to the other peer
	// but never echoed back to its origin
	inv := other.receiveCommand(wire.CommandInv).(*wire.MessageInv)
	assert.Equal(t, 1, len(inv.Items), "one item")
	assert.Equal(t, hash, inv.Items[0].Hash, "relayed hash")
}

func TestGetOfferReturnsOffer(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	address := setup(t, ctl)
	defer teardown(t)

	_, privateKey, _ := ed25519.GenerateKey(rand.Reader)
	hash, _ := storeSqueak(t, privateKey, "for sale over the wire")

	r := dialNode(t, address)
	defer r.close()
	r.handshake()

	r.send(&wire.MessageGetOffer{Hash: hash, Challenge: []byte("remote challenge")})

	offer := r.receiveCommand(wire.CommandOffer).(*wire.MessageOffer)
	assert.Equal(t, hash, offer.Hash, "squeak hash")
	assert.Equal(t, uint64(1000), offer.Price, "price")
	assert.NotEmpty(t, offer.Invoice, "invoice")
	assert.NotEmpty(t, offer.Proof, "proof")
	assert.NotEmpty(t, offer.KeyCiphertext, "key ciphertext")
	assert.True(t, offer.Expiry > time.Now().Unix(), "future expiry")

	// an unknown squeak gets notfound, not an offer
	unknown := digest.NewDigest([]byte("nothing here"))
	r.send(&wire.MessageGetOffer{Hash: unknown, Challenge: []byte("remote challenge")})
	notfound := r.receiveCommand(wire.CommandNotFound).(*wire.MessageNotFound)
	assert.Equal(t, unknown, notfound.Items[0].Hash, "rejected buy")
}

func TestGetSqueaksLocator(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	address := setup(t, ctl)
	defer teardown(t)

	wantedKey, wantedPrivate, _ := ed25519.GenerateKey(rand.Reader)
	_, otherPrivate, _ := ed25519.GenerateKey(rand.Reader)

	wantedHash, _ := storeSqueak(t, wantedPrivate, "interesting author")
	storeSqueak(t, otherPrivate, "unrelated author")

	r := dialNode(t, address)
	defer r.close()
	r.handshake()

	locator := [32]byte{}
	copy(locator[:], wantedKey)
	r.send(&wire.MessageGetSqueaks{Locator: [][32]byte{locator}})

	inv := r.receiveCommand(wire.CommandInv).(*wire.MessageInv)
	assert.Equal(t, 1, len(inv.Items), "only the wanted author")
	assert.Equal(t, wantedHash, inv.Items[0].Hash, "wanted hash")
}
