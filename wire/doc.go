// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package wire - the framed peer protocol
//
// every frame is a 24 byte header followed by the payload:
//
//	magic    4 bytes  network identifier
//	command 12 bytes  ASCII command, NUL padded
//	length   4 bytes  payload length, little endian
//	checksum 4 bytes  first 4 bytes of SHA-256d of the payload
//
// integers inside payloads are little endian; variable length fields
// use the compact varint encoding from btcsuite wire
package wire
