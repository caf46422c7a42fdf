// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chain - access to the blockchain oracle
//
// the node never validates chain consensus itself; it only asks a
// trusted oracle for the best block and for the hash at a given
// height, to bind squeaks to chain time
package chain

import (
	"github.com/squeaknet/squeakd/digest"
)

// Block - one block reference returned by the oracle
type Block struct {
	Height uint64
	Hash   digest.Digest
}

// Oracle - the operations the node needs from a blockchain backend
//
// concrete backends are selected at construction time; all
// implementations must return fault.OracleNotAvailable for transient
// connectivity problems so callers can distinguish retry from reject
type Oracle interface {
	// BestBlock - current chain tip
	BestBlock() (Block, error)

	// BlockHash - hash of the block at the given height
	BlockHash(height uint64) (digest.Digest, error)
}
