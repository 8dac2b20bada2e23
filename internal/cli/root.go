// Package cli implements the gridmove command-line surface. It only parses
// arguments and prints results; all semantics live in internal/grid.
package cli

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"

	"itemgrid.ai/internal/grid"
	"itemgrid.ai/internal/transport/ws"
)

var (
	hubURL    string
	actorName string
	verbose   bool
	debug     bool
)

var rootCmd = &cobra.Command{
	Use:           "gridmove",
	Short:         "Move, count, and balance items across grid inventory nodes",
	SilenceUsage:  true,
	SilenceErrors: false,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&hubURL, "url", "ws://localhost:8440/v1/ws", "hub ws url")
	rootCmd.PersistentFlags().StringVar(&actorName, "actor", "gridmove", "actor name (node id for a registered actor)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log each transfer")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "escalate the first soft failure to a hard stop")

	rootCmd.AddCommand(moveCmd)
	rootCmd.AddCommand(queryCmd)
}

// connect dials the hub and builds an engine around the session.
func connect(ctx context.Context) (*grid.Engine, *ws.Client, error) {
	client, err := ws.Dial(ctx, hubURL, actorName)
	if err != nil {
		return nil, nil, err
	}
	logger := log.New(os.Stdout, "[gridmove] ", log.LstdFlags|log.Lmicroseconds)
	e := grid.NewEngine(client, logger)
	e.Strict = debug
	return e, client, nil
}
