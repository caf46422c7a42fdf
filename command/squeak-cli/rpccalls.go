// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"crypto/tls"
	netrpc "net/rpc"
	"net/rpc/jsonrpc"

	"github.com/urfave/cli"

	"github.com/squeaknet/squeakd/rpc"
)

// dial the node named by the global connect flag
//
// the rpc certificate is normally self signed so verification is
// skipped; for production use pin the fingerprint out of band
func dialNode(c *cli.Context) (*netrpc.Client, error) {
	conn, err := tls.Dial("tcp", c.GlobalString("connect"), &tls.Config{
		InsecureSkipVerify: true,
	})
	if nil != err {
		return nil, err
	}
	return jsonrpc.NewClient(conn), nil
}

func runInfo(c *cli.Context) error {
	client, err := dialNode(c)
	if nil != err {
		return err
	}
	defer client.Close()

	reply := rpc.InfoReply{}
	if err := client.Call("Node.Info", &rpc.InfoArguments{}, &reply); nil != err {
		return err
	}
	return printJSON(c, reply)
}

func runCreate(c *cli.Context) error {
	body := c.Args().First()
	if "" == body {
		return cli.NewExitError("missing BODY argument", 1)
	}

	client, err := dialNode(c)
	if nil != err {
		return err
	}
	defer client.Close()

	arguments := rpc.CreateArguments{
		Body:      body,
		Recipient: c.String("recipient"),
		ReplyTo:   c.String("reply-to"),
	}
	reply := rpc.CreateReply{}
	if err := client.Call("Squeak.Create", &arguments, &reply); nil != err {
		return err
	}
	return printJSON(c, reply)
}

func runGet(c *cli.Context) error {
	hash := c.Args().First()
	if "" == hash {
		return cli.NewExitError("missing HASH argument", 1)
	}

	client, err := dialNode(c)
	if nil != err {
		return err
	}
	defer client.Close()

	reply := rpc.GetReply{}
	if err := client.Call("Squeak.Get", &rpc.GetArguments{Hash: hash}, &reply); nil != err {
		return err
	}
	return printJSON(c, reply)
}

func runBuy(c *cli.Context) error {
	hash := c.Args().First()
	if "" == hash {
		return cli.NewExitError("missing HASH argument", 1)
	}
	peer := c.String("peer")
	if "" == peer {
		return cli.NewExitError("missing --peer option", 1)
	}

	client, err := dialNode(c)
	if nil != err {
		return err
	}
	defer client.Close()

	reply := rpc.BuyReply{}
	if err := client.Call("Squeak.Buy", &rpc.BuyArguments{Hash: hash, Peer: peer}, &reply); nil != err {
		return err
	}
	return printJSON(c, reply)
}

func runDelete(c *cli.Context) error {
	hash := c.Args().First()
	if "" == hash {
		return cli.NewExitError("missing HASH argument", 1)
	}

	client, err := dialNode(c)
	if nil != err {
		return err
	}
	defer client.Close()

	reply := rpc.DeleteReply{}
	if err := client.Call("Squeak.Delete", &rpc.DeleteArguments{Hash: hash}, &reply); nil != err {
		return err
	}
	return printJSON(c, reply)
}

func runMakePublic(c *cli.Context) error {
	hash := c.Args().First()
	if "" == hash {
		return cli.NewExitError("missing HASH argument", 1)
	}

	client, err := dialNode(c)
	if nil != err {
		return err
	}
	defer client.Close()

	reply := rpc.MakePublicReply{}
	if err := client.Call("Squeak.MakePublic", &rpc.MakePublicArguments{Hash: hash}, &reply); nil != err {
		return err
	}
	return printJSON(c, reply)
}

func runProfileStore(c *cli.Context) error {
	address := c.Args().First()
	if "" == address {
		return cli.NewExitError("missing ADDRESS argument", 1)
	}

	client, err := dialNode(c)
	if nil != err {
		return err
	}
	defer client.Close()

	arguments := rpc.StoreArguments{
		Name:      c.String("name"),
		Address:   address,
		Following: c.Bool("follow"),
	}
	reply := rpc.StoreReply{}
	if err := client.Call("Profile.Store", &arguments, &reply); nil != err {
		return err
	}
	return printJSON(c, reply)
}

func runProfileGet(c *cli.Context) error {
	address := c.Args().First()
	if "" == address {
		return cli.NewExitError("missing ADDRESS argument", 1)
	}

	client, err := dialNode(c)
	if nil != err {
		return err
	}
	defer client.Close()

	reply := rpc.ProfileRecord{}
	if err := client.Call("Profile.Get", &rpc.GetProfileArguments{Address: address}, &reply); nil != err {
		return err
	}
	return printJSON(c, reply)
}

func runProfileList(c *cli.Context) error {
	client, err := dialNode(c)
	if nil != err {
		return err
	}
	defer client.Close()

	reply := rpc.ListReply{}
	if err := client.Call("Profile.List", &rpc.ListArguments{}, &reply); nil != err {
		return err
	}
	return printJSON(c, reply)
}

func setFollow(c *cli.Context, following bool) error {
	address := c.Args().First()
	if "" == address {
		return cli.NewExitError("missing ADDRESS argument", 1)
	}

	client, err := dialNode(c)
	if nil != err {
		return err
	}
	defer client.Close()

	arguments := rpc.FollowArguments{Address: address, Following: following}
	reply := rpc.FollowReply{}
	if err := client.Call("Profile.Follow", &arguments, &reply); nil != err {
		return err
	}
	return printJSON(c, reply)
}

func runProfileFollow(c *cli.Context) error {
	return setFollow(c, true)
}

func runProfileUnfollow(c *cli.Context) error {
	return setFollow(c, false)
}

func runProfileDelete(c *cli.Context) error {
	address := c.Args().First()
	if "" == address {
		return cli.NewExitError("missing ADDRESS argument", 1)
	}

	client, err := dialNode(c)
	if nil != err {
		return err
	}
	defer client.Close()

	reply := rpc.DeleteProfileReply{}
	if err := client.Call("Profile.Delete", &rpc.DeleteProfileArguments{Address: address}, &reply); nil != err {
		return err
	}
	return printJSON(c, reply)
}

func runPeerList(c *cli.Context) error {
	client, err := dialNode(c)
	if nil != err {
		return err
	}
	defer client.Close()

	reply := rpc.PeerListReply{}
	if err := client.Call("Peer.List", &rpc.PeerListArguments{}, &reply); nil != err {
		return err
	}
	return printJSON(c, reply)
}

func runPeerConnect(c *cli.Context) error {
	address := c.Args().First()
	if "" == address {
		return cli.NewExitError("missing HOST:PORT argument", 1)
	}

	client, err := dialNode(c)
	if nil != err {
		return err
	}
	defer client.Close()

	arguments := rpc.ConnectArguments{Address: address, Save: c.Bool("save")}
	reply := rpc.ConnectReply{}
	if err := client.Call("Peer.Connect", &arguments, &reply); nil != err {
		return err
	}
	return printJSON(c, reply)
}

func runPeerDisconnect(c *cli.Context) error {
	address := c.Args().First()
	if "" == address {
		return cli.NewExitError("missing HOST:PORT argument", 1)
	}

	client, err := dialNode(c)
	if nil != err {
		return err
	}
	defer client.Close()

	reply := rpc.DisconnectReply{}
	if err := client.Call("Peer.Disconnect", &rpc.DisconnectArguments{Address: address}, &reply); nil != err {
		return err
	}
	return printJSON(c, reply)
}
