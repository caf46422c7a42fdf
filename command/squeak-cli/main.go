// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// operator client for a running squeakd
package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/squeaknet/squeakd/version"
)

func main() {

	app := cli.NewApp()
	app.Name = "squeak-cli"
	app.Usage = "command line interface to a squeakd node"
	app.Version = version.Version
	app.HideVersion = true

	app.Writer = os.Stdout
	app.ErrWriter = os.Stderr

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "connect, c",
			Value: "127.0.0.1:26830",
			Usage: " squeakd rpc `HOST:PORT`",
		},
		cli.BoolFlag{
			Name:  "verbose, v",
			Usage: " verbose result",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:   "info",
			Usage:  "display node status",
			Action: runInfo,
		},
		{
			Name:      "create",
			Usage:     "author and store a new squeak",
			ArgsUsage: "BODY",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "recipient, r",
					Value: "",
					Usage: " recipient address for a private squeak `ADDRESS`",
				},
				cli.StringFlag{
					Name:  "reply-to, R",
					Value: "",
					Usage: " hash of the squeak replied to `HASH`",
				},
			},
			Action: runCreate,
		},
		{
			Name:      "get",
			Usage:     "fetch a stored squeak",
			ArgsUsage: "HASH",
			Action:    runGet,
		},
		{
			Name:      "buy",
			Usage:     "buy the decryption key from a connected peer",
			ArgsUsage: "HASH",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "peer, p",
					Value: "",
					Usage: "*peer to buy from `HOST:PORT`",
				},
			},
			Action: runBuy,
		},
		{
			Name:      "delete",
			Usage:     "remove a stored squeak",
			ArgsUsage: "HASH",
			Action:    runDelete,
		},
		{
			Name:      "make-public",
			Usage:     "release a decryption key for free, irreversible",
			ArgsUsage: "HASH",
			Action:    runMakePublic,
		},
		{
			Name:  "profile",
			Usage: "contact profile management",
			Subcommands: []cli.Command{
				{
					Name:      "store",
					Usage:     "create or replace a profile",
					ArgsUsage: "ADDRESS",
					Flags: []cli.Flag{
						cli.StringFlag{
							Name:  "name, n",
							Value: "",
							Usage: " display name `NAME`",
						},
						cli.BoolFlag{
							Name:  "follow, f",
							Usage: " accept relayed squeaks from this author",
						},
					},
					Action: runProfileStore,
				},
				{
					Name:      "get",
					Usage:     "fetch one profile",
					ArgsUsage: "ADDRESS",
					Action:    runProfileGet,
				},
				{
					Name:   "list",
					Usage:  "list all profiles",
					Action: runProfileList,
				},
				{
					Name:      "follow",
					Usage:     "start accepting relayed squeaks from an author",
					ArgsUsage: "ADDRESS",
					Action:    runProfileFollow,
				},
				{
					Name:      "unfollow",
					Usage:     "stop accepting relayed squeaks from an author",
					ArgsUsage: "ADDRESS",
					Action:    runProfileUnfollow,
				},
				{
					Name:      "delete",
					Usage:     "remove a profile",
					ArgsUsage: "ADDRESS",
					Action:    runProfileDelete,
				},
			},
		},
		{
			Name:  "peer",
			Usage: "peer connection management",
			Subcommands: []cli.Command{
				{
					Name:   "list",
					Usage:  "list active and saved peers",
					Action: runPeerList,
				},
				{
					Name:      "connect",
					Usage:     "dial a peer",
					ArgsUsage: "HOST:PORT",
					Flags: []cli.Flag{
						cli.BoolFlag{
							Name:  "save, s",
							Usage: " reconnect on daemon restart",
						},
					},
					Action: runPeerConnect,
				},
				{
					Name:      "disconnect",
					Usage:     "drop a peer and forget it",
					ArgsUsage: "HOST:PORT",
					Action:    runPeerDisconnect,
				},
			},
		},
	}

	err := app.Run(os.Args)
	if nil != err {
		os.Exit(1)
	}
}
