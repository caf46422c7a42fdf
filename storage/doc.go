// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - maintain the on-disk data store
//
// all records are kept in a single leveldb database with each pool
// distinguished by a one byte prefix on the key; values are opaque
// bytes, the owning package does the packing
//
// the store is the single source of record: no other component keeps
// a private copy of squeaks, offers, payments, peers or profiles
package storage
