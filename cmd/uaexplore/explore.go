// Copyright 2026 Converter Systems LLC. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/awcullen/opcua/client"
	"github.com/awcullen/opcua/ua"
	"github.com/awcullen/uaexplore/explorer"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newExploreCmd(a *app) *cobra.Command {
	var (
		dump  bool
		watch bool
		from  string
	)

	cmd := &cobra.Command{
		Use:   "explore",
		Short: "Walk the address space interactively until a node without children is reached",
		Long: `Walk the address space interactively until a node without children is reached.

At each level the children of the current node are listed with their index. Enter an
index to descend or q to quit. The node reached is printed, or dumped or watched.

Examples:
  uaexplore explore
  uaexplore explore --dump
  uaexplore explore --watch --from "ns=2;s=Demo"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := ua.NodeID(ua.ObjectIDObjectsFolder)
			if from != "" {
				id, err := parseNodeID(from)
				if err != nil {
					return err
				}
				start = id
			}

			opts := []explorer.Option{
				explorer.WithPrompt(term.IsTerminal(int(os.Stdin.Fd()))),
				explorer.WithVisitFunc(func(n *explorer.Node, depth int) {
					a.logger.WithFields(logrus.Fields{"node": n, "depth": depth}).Debug("Visit")
				}),
			}
			if a.cfg.DetectCycles {
				opts = append(opts, explorer.WithCycleDetection())
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			return a.withClient(ctx, func(ch *client.Client) error {
				e := explorer.New(cmd.InOrStdin(), out, opts...)
				leaf, err := e.Explore(ctx, explorer.NewNode(ch, start).WithLogger(a.logger))
				if err != nil || leaf == nil {
					return err
				}
				switch {
				case dump:
					return explorer.NewDumper().Dump(ctx, out, leaf, 0)
				case watch:
					return explorer.NewWatcher(a.cfg.PollInterval).Watch(ctx, out, leaf)
				}
				name, err := leaf.ReadBrowseName(ctx)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(out, "%s (%s)\n", name.Name, leaf)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&dump, "dump", false, "dump the node reached")
	cmd.Flags().BoolVar(&watch, "watch", false, "watch the value of the node reached")
	cmd.Flags().StringVar(&from, "from", "", "node id to start from (default Objects folder)")
	cmd.MarkFlagsMutuallyExclusive("dump", "watch")
	return cmd
}
