// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package util - miscellaneous helpers shared by peer and rpc setup
package util

import (
	"net"
	"strconv"
	"strings"

	"github.com/squeaknet/squeakd/fault"
)

// CanonicalIPandPort - make the IP:Port canonical
//
// examples:
//   IPv4:  127.0.0.1:1234
//   IPv6:  [::1]:1234
func CanonicalIPandPort(hostPort string) (string, error) {

	host, port, err := net.SplitHostPort(hostPort)
	if nil != err {
		return "", err
	}

	IP := net.ParseIP(strings.Trim(host, " "))
	if nil == IP {
		return "", fault.InvalidIpAddress
	}

	numericPort, err := strconv.Atoi(strings.Trim(port, " "))
	if nil != err {
		return "", err
	}
	if numericPort < 1 || numericPort > 65535 {
		return "", fault.InvalidPortNumber
	}

	if nil != IP.To4() {
		return IP.String() + ":" + strconv.Itoa(numericPort), nil
	}
	return "[" + IP.String() + "]:" + strconv.Itoa(numericPort), nil
}

// SplitHostAndPort - host name (unresolved) and numeric port
//
// unlike CanonicalIPandPort the host part is not required to be a
// literal IP address, so configured peers can be named by DNS
func SplitHostAndPort(hostPort string) (string, uint16, error) {

	host, port, err := net.SplitHostPort(hostPort)
	if nil != err {
		return "", 0, err
	}

	host = strings.Trim(host, " ")
	if "" == host {
		return "", 0, fault.InvalidIpAddress
	}

	numericPort, err := strconv.Atoi(strings.Trim(port, " "))
	if nil != err {
		return "", 0, err
	}
	if numericPort < 1 || numericPort > 65535 {
		return "", 0, fault.InvalidPortNumber
	}

	return host, uint16(numericPort), nil
}
