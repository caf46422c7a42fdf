// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/squeaknet/squeakd/digest"
	"github.com/squeaknet/squeakd/fault"
)

// Configuration - connection details for a bitcoind style daemon
type Configuration struct {
	URL      string `gluamapper:"url" json:"url"`
	Username string `gluamapper:"username" json:"username"`
	Password string `gluamapper:"password" json:"password"`
}

// request timeout
const bitcoindTimeout = 30 * time.Second

// BitcoindOracle - JSON-RPC client for bitcoind
type BitcoindOracle struct {
	sync.Mutex

	log    *logger.L
	client *http.Client
	url    string

	// authentication
	username string
	password string

	// identifier for the RPC
	id uint64
}

// NewBitcoindOracle - create an oracle backed by a bitcoind daemon
func NewBitcoindOracle(configuration *Configuration) (*BitcoindOracle, error) {

	if "" == configuration.URL {
		return nil, fault.MissingParameters
	}

	return &BitcoindOracle{
		log:      logger.New("bitcoind"),
		client:   &http.Client{Timeout: bitcoindTimeout},
		url:      configuration.URL,
		username: configuration.Username,
		password: configuration.Password,
	}, nil
}

// the generic JSON-RPC reply wrapper
type bitcoindReply struct {
	Id     uint64          `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// perform one JSON-RPC call
//
// any transport level failure is mapped to OracleNotAvailable so the
// caller treats it as retry-later, never as permanent rejection
func (b *BitcoindOracle) call(method string, params []interface{}, reply interface{}) error {

	b.Lock()
	b.id += 1
	id := b.id
	b.Unlock()

	arguments := struct {
		Id     uint64        `json:"id"`
		Method string        `json:"method"`
		Params []interface{} `json:"params"`
	}{
		Id:     id,
		Method: method,
		Params: params,
	}

	body, err := json.Marshal(arguments)
	if nil != err {
		return err
	}

	request, err := http.NewRequest("POST", b.url, bytes.NewReader(body))
	if nil != err {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	if "" != b.username {
		request.SetBasicAuth(b.username, b.password)
	}

	response, err := b.client.Do(request)
	if nil != err {
		b.log.Warnf("rpc: %s transport error: %s", method, err)
		return fault.OracleNotAvailable
	}
	defer response.Body.Close()

	data, err := ioutil.ReadAll(response.Body)
	if nil != err {
		b.log.Warnf("rpc: %s read error: %s", method, err)
		return fault.OracleNotAvailable
	}

	var r bitcoindReply
	if err := json.Unmarshal(data, &r); nil != err {
		b.log.Errorf("rpc: %s invalid reply: %s", method, err)
		return fault.OracleNotAvailable
	}
	if nil != r.Error {
		b.log.Errorf("rpc: %s error: %d %s", method, r.Error.Code, r.Error.Message)
		return fault.BlockNotAvailable
	}

	return json.Unmarshal(r.Result, reply)
}

// BestBlock - current chain tip
func (b *BitcoindOracle) BestBlock() (Block, error) {

	var height uint64
	if err := b.call("getblockcount", nil, &height); nil != err {
		return Block{}, err
	}

	hash, err := b.BlockHash(height)
	if nil != err {
		return Block{}, err
	}

	return Block{Height: height, Hash: hash}, nil
}

// BlockHash - hash of the block at the given height
//
// bitcoind returns the display (big endian) hex form; it is scanned
// into the internal little endian order here, at the boundary
func (b *BitcoindOracle) BlockHash(height uint64) (digest.Digest, error) {

	var hexHash string
	err := b.call("getblockhash", []interface{}{height}, &hexHash)
	if nil != err {
		return digest.Digest{}, err
	}

	var d digest.Digest
	if _, err := fmt.Sscan(hexHash, &d); nil != err {
		return digest.Digest{}, fault.InvalidBlockHeight
	}
	return d, nil
}
