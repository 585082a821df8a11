// Copyright 2026 Converter Systems LLC. All rights reserved.

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/awcullen/opcua/client"
	"github.com/awcullen/opcua/ua"
	"github.com/awcullen/uaexplore/config"
	"github.com/awcullen/uaexplore/session"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app holds what every subcommand needs once the root command has loaded the configuration.
type app struct {
	v       *viper.Viper
	envFile string
	cfg     *config.Config
	logger  *logrus.Logger
}

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		// restore default handling so a second signal terminates the process.
		<-ctx.Done()
		stop()
	}()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New(), logger: logrus.New()}
	a.logger.SetOutput(os.Stderr)
	a.logger.SetLevel(logrus.WarnLevel)

	rootCmd := &cobra.Command{
		Use:          "uaexplore",
		Short:        "Explore the address space of an OPC UA server",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v, a.envFile)
			if err != nil {
				return err
			}
			level, err := logrus.ParseLevel(cfg.LogLevel)
			if err != nil {
				return errors.Wrapf(err, "Error parsing log level")
			}
			a.logger.SetLevel(level)
			a.cfg = cfg
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file read beneath the environment")
	if err := config.BindFlags(a.v, rootCmd.PersistentFlags()); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(newCertCmd(a))
	rootCmd.AddCommand(newBrowseCmd(a))
	rootCmd.AddCommand(newExploreCmd(a))
	rootCmd.AddCommand(newDumpCmd(a))
	rootCmd.AddCommand(newWatchCmd(a))
	return rootCmd
}

// withClient opens a session, runs f and closes the session.
// Cancellation by signal is a normal exit.
func (a *app) withClient(ctx context.Context, f func(ch *client.Client) error) error {
	ch, err := session.Dial(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}
	err = f(ch)
	if errors.Is(err, context.Canceled) {
		a.logger.Info("Stopping client...")
		err = nil
	}
	// the session is closed even when ctx was cancelled by a signal.
	session.Close(context.Background(), ch, a.logger)
	return err
}

// parseNodeID parses a node id such as "i=85" or "ns=2;s=Demo.Static.Scalar.Float".
func parseNodeID(s string) (ua.NodeID, error) {
	id := ua.ParseNodeID(s)
	if id == nil {
		return nil, errors.Errorf("invalid node id '%s'", s)
	}
	return id, nil
}
