// Copyright 2026 Converter Systems LLC. All rights reserved.

package main

import (
	"github.com/awcullen/opcua/client"
	"github.com/awcullen/uaexplore/explorer"
	"github.com/spf13/cobra"
)

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <nodeid>",
		Short: "Print every attribute of a node",
		Long: `Print every attribute of a node.

Examples:
  uaexplore dump i=2258
  uaexplore dump "ns=2;s=Demo.Static.Scalar.Double"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNodeID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withClient(ctx, func(ch *client.Client) error {
				return explorer.NewDumper().Dump(ctx, cmd.OutOrStdout(), explorer.NewNode(ch, id), 0)
			})
		},
	}
}
