// Copyright 2026 Converter Systems LLC. All rights reserved.

package main

import (
	"fmt"

	"github.com/awcullen/opcua/client"
	"github.com/awcullen/opcua/ua"
	"github.com/awcullen/uaexplore/explorer"
	"github.com/spf13/cobra"
)

func newBrowseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Connect and list the children of the Objects folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return a.withClient(ctx, func(ch *client.Client) error {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Connected to %s\n", ch.EndpointURL())
				fmt.Fprintf(out, "Root node: %s\n", ua.ObjectIDRootFolder)
				fmt.Fprintf(out, "Objects node: %s\n", ua.ObjectIDObjectsFolder)

				children, err := explorer.NewNode(ch, ua.ObjectIDObjectsFolder).WithLogger(a.logger).Children(ctx)
				if err != nil {
					return err
				}
				for _, c := range children {
					name, err := c.ReadBrowseName(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "  %s\n", name.Name)
				}
				return nil
			})
		},
	}
}
