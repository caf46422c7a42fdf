// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"reflect"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/fault"
)

// exported storage pools
//
// note all must be exported (i.e. initial capital) or initialisation will panic
type pools struct {
	Squeaks      *PoolHandle `prefix:"S"` // squeak hash -> packed squeak
	SqueakKeys   *PoolHandle `prefix:"K"` // squeak hash -> content key
	SqueakStatus *PoolHandle `prefix:"V"` // squeak hash -> confirmation state
	PublicKeys   *PoolHandle `prefix:"B"` // squeak hash -> publicly released content key
	Offers       *PoolHandle `prefix:"O"` // payment hash -> sell offer
	OfferIndex   *PoolHandle `prefix:"X"` // squeak hash + counterparty -> payment hash
	Payments     *PoolHandle `prefix:"P"` // payment hash -> received payment
	SentPayments *PoolHandle `prefix:"T"` // payment hash -> sent payment
	Peers        *PoolHandle `prefix:"E"` // host:port -> peer entry
	Profiles     *PoolHandle `prefix:"F"` // public key -> profile
	Quota        *PoolHandle `prefix:"Q"` // author + height -> admission count
	Cursors      *PoolHandle `prefix:"C"` // name -> 8 byte counter
}

// Pool - the set of exported pools
var Pool pools

// holds the database handle
var poolData struct {
	sync.RWMutex
	db  *leveldb.DB
	log *logger.L
}

// Initialise - open up the database connection
//
// this must be called before any pool is accessed
func Initialise(database string) error {
	poolData.Lock()
	defer poolData.Unlock()

	if nil != poolData.db {
		return fault.AlreadyInitialised
	}

	poolData.log = logger.New("storage")
	poolData.log.Info("starting…")

	db, err := leveldb.OpenFile(database, nil)
	if nil != err {
		poolData.log.Criticalf("cannot open database: %q  error: %s", database, err)
		return err
	}
	poolData.db = db

	// this will be a struct type
	poolType := reflect.TypeOf(Pool)

	// get write access by using pointer + Elem()
	poolValue := reflect.ValueOf(&Pool).Elem()

	// create all of the pools
	for i := 0; i < poolType.NumField(); i += 1 {

		fieldInfo := poolType.Field(i)
		prefixTag := fieldInfo.Tag.Get("prefix")
		if 1 != len(prefixTag) {
			logger.Panicf("pool: %v has invalid prefix: %q", fieldInfo, prefixTag)
		}

		handle := newPool(db, prefixTag[0])
		poolValue.Field(i).Set(reflect.ValueOf(handle))
	}

	return nil
}

// Finalise - close the database connection
func Finalise() {
	poolData.Lock()
	defer poolData.Unlock()

	if nil == poolData.db {
		return
	}

	poolData.log.Info("shutting down…")

	poolData.db.Close()
	poolData.db = nil

	// zero out the pool handles so a stray access panics cleanly
	poolValue := reflect.ValueOf(&Pool).Elem()
	poolType := reflect.TypeOf(Pool)
	for i := 0; i < poolType.NumField(); i += 1 {
		poolValue.Field(i).Set(reflect.Zero(poolType.Field(i).Type))
	}

	poolData.log.Info("finished")
	poolData.log.Flush()
}
