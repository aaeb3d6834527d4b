// Package main is the entry point for the force-cost CLI.
package main

import (
	"context"
	"os"
	"os/signal"

	"force-cost/cmd/cli/cmd"
	"force-cost/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cmd.Execute(ctx)
	stop()
	logging.Sync()
	if err != nil {
		os.Exit(1)
	}
}
