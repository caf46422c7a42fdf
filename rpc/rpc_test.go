// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package rpc_test

import (
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/admission"
	"github.com/squeaknet/squeakd/chain"
	chainmocks "github.com/squeaknet/squeakd/chain/mocks"
	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/fixtures"
	"github.com/squeaknet/squeakd/lightning"
	lightningmocks "github.com/squeaknet/squeakd/lightning/mocks"
	"github.com/squeaknet/squeakd/mode"
	"github.com/squeaknet/squeakd/payment"
	"github.com/squeaknet/squeakd/rpc"
	"github.com/squeaknet/squeakd/squeakrecord"
	"github.com/squeaknet/squeakd/storage"
	"github.com/squeaknet/squeakd/verifier"
	"github.com/squeaknet/squeakd/wallet"
)

const (
	databaseFileName = "test.leveldb"
	keyFileName      = "test-wallet.key"
)

var testBlockHash = digest.NewDigest([]byte("rpc test block"))

func TestMain(m *testing.M) {
	fixtures.SetupTestLogger()
	mode.Initialise(mode.Local)
	mode.Set(mode.Normal)
	rc := m.Run()
	mode.Finalise()
	fixtures.TeardownTestLogger()
	os.Exit(rc)
}

type services struct {
	node    *rpc.Node
	squeak  *rpc.Squeak
	profile *rpc.Profile
}

func setup(t *testing.T, ctl *gomock.Controller) *services {
	os.RemoveAll(databaseFileName)
	os.Remove(keyFileName)

	if err := storage.Initialise(databaseFileName); nil != err {
		t.Fatalf("storage initialise error: %s", err)
	}

	oracle := chainmocks.NewMockOracle(ctl)
	oracle.EXPECT().BestBlock().Return(chain.Block{Height: 500, Hash: testBlockHash}, nil).AnyTimes()
	oracle.EXPECT().BlockHash(gomock.Any()).Return(testBlockHash, nil).AnyTimes()

	if err := verifier.Initialise(oracle); nil != err {
		t.Fatalf("verifier initialise error: %s", err)
	}
	if err := admission.Initialise(10); nil != err {
		t.Fatalf("admission initialise error: %s", err)
	}
	if err := wallet.Initialise(keyFileName); nil != err {
		t.Fatalf("wallet initialise error: %s", err)
	}

	client := lightningmocks.NewMockClient(ctl)
	client.EXPECT().
		CreateInvoice(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(preimage []byte, amountMsat uint64, expiry time.Duration) (lightning.Invoice, error) {
			return lightning.Invoice{
				PaymentRequest: "lnbcrt1rpctestinvoice",
				PaymentHash:    squeakrecord.PaymentHash(preimage),
				CreationTime:   time.Now(),
				Expiry:         time.Hour,
			}, nil
		}).
		AnyTimes()
	client.EXPECT().
		SubscribeSettled(gomock.Any()).
		Return(nil, fault.ProcessError("test: no feed")).
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

	log := logger.New("rpc-test")
	return &services{
		node:    rpc.NewNode(log, time.Now(), "1.0.0-test"),
		squeak:  rpc.NewSqueak(log, oracle),
		profile: rpc.NewProfile(log),
	}
}

func teardown(t *testing.T) {
	payment.Finalise()
	wallet.Finalise()
	admission.Finalise()
	verifier.Finalise()
	storage.Finalise()
	os.RemoveAll(databaseFileName)
	os.Remove(keyFileName)
}

func TestSqueakCreateGetDelete(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	s := setup(t, ctl)
	defer teardown(t)

	created := rpc.CreateReply{}
	err := s.squeak.Create(&rpc.CreateArguments{Body: "hello over rpc"}, &created)
	assert.NoError(t, err, "create")
	assert.Equal(t, uint64(500), created.BlockHeight, "tip height")
	assert.True(t, created.Confirmed, "confirmed synchronously")

	got := rpc.GetReply{}
	err = s.squeak.Get(&rpc.GetArguments{Hash: created.Hash}, &got)
	assert.NoError(t, err, "get")
	assert.Equal(t, "hello over rpc", got.Body, "decrypted body")
	assert.Equal(t, "confirmed", got.Status, "status")
	assert.True(t, got.HasKey, "author keeps the key")
	assert.Equal(t, wallet.Address(wallet.PublicKey()), got.Author, "author address")

	deleted := rpc.DeleteReply{}
	err = s.squeak.Delete(&rpc.DeleteArguments{Hash: created.Hash}, &deleted)
	assert.NoError(t, err, "delete")
	assert.True(t, deleted.Deleted, "deleted")

	err = s.squeak.Get(&rpc.GetArguments{Hash: created.Hash}, &rpc.GetReply{})
	assert.Equal(t, fault.SqueakNotFound, err, "gone")
}

func TestSqueakMakePublicIsIrreversible(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	s := setup(t, ctl)
	defer teardown(t)

	created := rpc.CreateReply{}
	err := s.squeak.Create(&rpc.CreateArguments{Body: "free for all"}, &created)
	assert.NoError(t, err, "create")

	public := rpc.MakePublicReply{}
	err = s.squeak.MakePublic(&rpc.MakePublicArguments{Hash: created.Hash}, &public)
	assert.NoError(t, err, "make public")
	assert.True(t, public.Public, "public")

	err = s.squeak.MakePublic(&rpc.MakePublicArguments{Hash: created.Hash}, &rpc.MakePublicReply{})
	assert.Equal(t, fault.KeyAlreadyPublic, err, "second release refused")
}

func TestSqueakGetUnknown(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	s := setup(t, ctl)
	defer teardown(t)

	unknown := digest.NewDigest([]byte("never stored"))
	err := s.squeak.Get(&rpc.GetArguments{Hash: unknown.String()}, &rpc.GetReply{})
	assert.Equal(t, fault.SqueakNotFound, err, "unknown hash")
}

func TestProfileLifecycle(t *testing.T) {
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	s := setup(t, ctl)
	defer teardown(t)

	address := wallet.Address(wallet.PublicKey())

	stored := rpc.StoreReply{}
	err := s.profile.Store(&rpc.StoreArguments{Name: "me", Address: address, Following: false}, &stored)
	assert.NoError(t, err, "store")
	assert.True(t, stored.Stored, "stored")

	got := rpc.ProfileRecord{}
	err = s.profile.Get(&rpc.GetProfileArguments{Address: address}, &got)
	assert.NoError(t, err, "get")
	assert.Equal(t, "me", got.Name, "name")
	assert.False(t, got.Following, "not yet followed")

	followed := rpc.FollowReply{}
	err = s.profile.Follow(&rpc.FollowArguments{Address: address, Following: true}, &followed)
	assert.NoError(t, err, "follow")
	assert.True(t, wallet.IsFollowed(wallet.PublicKey()), "follow flag set")

	list := rpc.ListReply{}
	err = s.profile.List(&rpc.ListArguments{}, &list)
	assert.NoError(t, err, "list")
	assert.Equal(t, 1, len(list.Profiles), "one profile")

	deleted := rpc.DeleteProfileReply{}
	err = s.profile.Delete(&rpc.DeleteProfileArguments{Address: address}, &deleted)
	assert.NoError(t, err, "delete")
	assert.False(t, wallet.IsFollowed(wallet.PublicKey()), "gone")
}
