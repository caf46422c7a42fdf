// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package storage

import (
	"encoding/binary"
	"encoding/hex"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/fault"
)

// write-through cache lifetime
const (
	cacheExpiry  = 2 * time.Minute
	cacheCleanup = 5 * time.Minute
)

// PoolHandle - access to a prefixed key space inside the database
type PoolHandle struct {
	prefix   byte
	database *leveldb.DB
	cache    *cache.Cache
}

// Element - a binary key/value pair returned by Range
type Element struct {
	Key   []byte
	Value []byte
}

func newPool(database *leveldb.DB, prefix byte) *PoolHandle {
	return &PoolHandle{
		prefix:   prefix,
		database: database,
		cache:    cache.New(cacheExpiry, cacheCleanup),
	}
}

// prepend the prefix onto the key
func (p *PoolHandle) prefixKey(key []byte) []byte {
	prefixedKey := make([]byte, 1, len(key)+1)
	prefixedKey[0] = p.prefix
	return append(prefixedKey, key...)
}

func (p *PoolHandle) cacheKey(key []byte) string {
	return hex.EncodeToString(key)
}

// Put - store a key/value bytes pair to the database
func (p *PoolHandle) Put(key []byte, value []byte) {
	if nil == p || nil == p.database {
		logger.Panic("pool.Put nil database")
		return
	}
	err := p.database.Put(p.prefixKey(key), value, nil)
	logger.PanicIfError("pool.Put", err)

	stored := make([]byte, len(value))
	copy(stored, value)
	p.cache.Set(p.cacheKey(key), stored, cache.DefaultExpiration)
}

// PutIfAbsent - store only when the key does not already exist
//
// returns false when a record was already present; this is how
// unique-key conflicts (e.g. duplicate payment hashes) are surfaced
func (p *PoolHandle) PutIfAbsent(key []byte, value []byte) bool {
	if p.Has(key) {
		return false
	}
	p.Put(key, value)
	return true
}

// Delete - remove a key from the database
func (p *PoolHandle) Delete(key []byte) {
	if nil == p || nil == p.database {
		logger.Panic("pool.Delete nil database")
		return
	}
	err := p.database.Delete(p.prefixKey(key), nil)
	logger.PanicIfError("pool.Delete", err)
	p.cache.Delete(p.cacheKey(key))
}

// Get - read a value for a given key
//
// returns nil if the key does not exist
func (p *PoolHandle) Get(key []byte) []byte {
	if nil == p || nil == p.database {
		return nil
	}

	if cached, found := p.cache.Get(p.cacheKey(key)); found {
		return cached.([]byte)
	}

	value, err := p.database.Get(p.prefixKey(key), nil)
	if leveldb.ErrNotFound == err {
		return nil
	}
	logger.PanicIfError("pool.Get", err)

	p.cache.Set(p.cacheKey(key), value, cache.DefaultExpiration)
	return value
}

// Has - check if a key exists
func (p *PoolHandle) Has(key []byte) bool {
	if nil == p || nil == p.database {
		return false
	}

	if _, found := p.cache.Get(p.cacheKey(key)); found {
		return true
	}

	has, err := p.database.Has(p.prefixKey(key), nil)
	logger.PanicIfError("pool.Has", err)
	return has
}

// GetN - read a record and decode as big endian uint64
//
// second return is false if the record was not found
func (p *PoolHandle) GetN(key []byte) (uint64, bool) {
	buffer := p.Get(key)
	if nil == buffer {
		return 0, false
	}
	if 8 != len(buffer) {
		logger.Panicf("pool.GetN: %x invalid length: %d", key, len(buffer))
	}
	return binary.BigEndian.Uint64(buffer), true
}

// PutN - store a uint64 as an 8 byte big endian record
func (p *PoolHandle) PutN(key []byte, value uint64) {
	buffer := make([]byte, 8)
	binary.BigEndian.PutUint64(buffer, value)
	p.Put(key, buffer)
}

// Range - iterate over all records in the pool, in key order
//
// the callback receives the key without its pool prefix; returning
// false stops the iteration early; keys and values are copied so the
// callback may retain them
func (p *PoolHandle) Range(fn func(key []byte, value []byte) bool) error {
	if nil == p || nil == p.database {
		return fault.NotInitialised
	}

	iter := p.database.NewIterator(ldb_util.BytesPrefix([]byte{p.prefix}), nil)
	defer iter.Release()

	for iter.Next() {
		key := make([]byte, len(iter.Key())-1)
		copy(key, iter.Key()[1:])
		value := make([]byte, len(iter.Value()))
		copy(value, iter.Value())
		if !fn(key, value) {
			break
		}
	}
	return iter.Error()
}

// Count - number of records currently in the pool
//
// walks the pool, only for occasional status reporting
func (p *PoolHandle) Count() int {
	n := 0
	_ = p.Range(func(key []byte, value []byte) bool {
		n += 1
		return true
	})
	return n
}
