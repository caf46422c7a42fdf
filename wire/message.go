// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/squeaknet/squeakd/fault"
	"github.com/squeaknet/squeakd/mode"
)

// ProtocolVersion - current version of the payload encodings
const ProtocolVersion uint32 = 1

// MaximumPayloadSize - hard upper bound for a single frame payload
const MaximumPayloadSize = 4 * 1024 * 1024

// sizes of the header fields
const (
	commandSize = 12
	headerSize  = 4 + commandSize + 4 + 4
)

// network magic values
var (
	MainnetMagic = [4]byte{0x53, 0x51, 0x4b, 0x30} // "SQK0"
	TestnetMagic = [4]byte{0x53, 0x51, 0x4b, 0x54} // "SQKT"
	LocalMagic   = [4]byte{0x53, 0x51, 0x4b, 0x4c} // "SQKL"
)

// MagicForNetwork - the frame magic for a named network
func MagicForNetwork(network string) [4]byte {
	switch network {
	case mode.Testnet:
		return TestnetMagic
	case mode.Local:
		return LocalMagic
	default:
		return MainnetMagic
	}
}

// Message - one decodable frame payload
type Message interface {
	Command() string
	Encode(w io.Writer) error
	Decode(r io.Reader) error
}

// makeEmptyMessage - create the payload struct for a command
func makeEmptyMessage(command string) (Message, error) {
	switch command {
	case CommandVersion:
		return &MessageVersion{}, nil
	case CommandVerack:
		return &MessageVerack{}, nil
	case CommandPing:
		return &MessagePing{}, nil
	case CommandPong:
		return &MessagePong{}, nil
	case CommandAddr:
		return &MessageAddr{}, nil
	case CommandGetAddr:
		return &MessageGetAddr{}, nil
	case CommandInv:
		return &MessageInv{}, nil
	case CommandGetData:
		return &MessageGetData{}, nil
	case CommandNotFound:
		return &MessageNotFound{}, nil
	case CommandGetSqueaks:
		return &MessageGetSqueaks{}, nil
	case CommandSqueak:
		return &MessageSqueak{}, nil
	case CommandGetOffer:
		return &MessageGetOffer{}, nil
	case CommandOffer:
		return &MessageOffer{}, nil
	default:
		return nil, fault.UnknownCommand
	}
}

// checksum - first four bytes of SHA-256d over the payload
func checksum(payload []byte) [4]byte {
	var sum [4]byte
	copy(sum[:], chainhash.DoubleHashB(payload)[0:4])
	return sum
}

// WriteMessage - frame and send one message
func WriteMessage(w io.Writer, magic [4]byte, msg Message) error {

	payload := &bytes.Buffer{}
	if err := msg.Encode(payload); nil != err {
		return err
	}
	if payload.Len() > MaximumPayloadSize {
		return fault.MessageTooLong
	}

	header := make([]byte, 0, headerSize)
	header = append(header, magic[:]...)

	command := make([]byte, commandSize)
	copy(command, msg.Command())
	header = append(header, command...)

	length := make([]byte, 4)
	binary.LittleEndian.PutUint32(length, uint32(payload.Len()))
	header = append(header, length...)

	sum := checksum(payload.Bytes())
	header = append(header, sum[:]...)

	if _, err := w.Write(header); nil != err {
		return err
	}
	_, err := w.Write(payload.Bytes())
	return err
}

// ReadMessage - receive and decode one message
//
// blocks until a full frame arrives or the reader fails
func ReadMessage(r io.Reader, magic [4]byte) (Message, error) {

	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); nil != err {
		return nil, err
	}

	if !bytes.Equal(header[0:4], magic[:]) {
		return nil, fault.WrongNetworkMagic
	}

	command := string(bytes.TrimRight(header[4:4+commandSize], "\x00"))

	length := binary.LittleEndian.Uint32(header[16:20])
	if length > MaximumPayloadSize {
		return nil, fault.MessageTooLong
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); nil != err {
		return nil, err
	}

	sum := checksum(payload)
	if !bytes.Equal(sum[:], header[20:24]) {
		return nil, fault.ChecksumMismatch
	}

	msg, err := makeEmptyMessage(command)
	if nil != err {
		return nil, err
	}
	if err := msg.Decode(bytes.NewReader(payload)); nil != err {
		return nil, err
	}
	return msg, nil
}
