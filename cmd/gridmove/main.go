// Package main is the entry point for the gridmove CLI.
package main

import (
	"os"

	"itemgrid.ai/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
