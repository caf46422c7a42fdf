// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"fmt"

	"github.com/urfave/cli"
)

// render a reply, indented when verbose
func printJSON(c *cli.Context, reply interface{}) error {
	var b []byte
	var err error
	if c.GlobalBool("verbose") {
		b, err = json.MarshalIndent(reply, "", "  ")
	} else {
		b, err = json.Marshal(reply)
	}
	if nil != err {
		return err
	}
	fmt.Fprintf(c.App.Writer, "%s\n", b)
	return nil
}
