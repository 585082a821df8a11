// Copyright 2026 Converter Systems LLC. All rights reserved.

package main

import (
	"github.com/awcullen/opcua/client"
	"github.com/awcullen/uaexplore/explorer"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <nodeid>",
		Short: "Print the value of a node at each poll interval until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseNodeID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return a.withClient(ctx, func(ch *client.Client) error {
				return explorer.NewWatcher(a.cfg.PollInterval).Watch(ctx, cmd.OutOrStdout(), explorer.NewNode(ch, id))
			})
		},
	}
}
