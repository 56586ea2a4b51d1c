package main

import (
	"context"
	"os"
	"os/signal"
)

var (
	// Version, BuildDate and Commit are set at link time.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
