// Package main is the entry point for the extcmd command line tool.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		printError(root.ErrOrStderr(), err)
		switch {
		case errors.Is(err, context.Canceled):
			return 130
		case errors.Is(err, errCommandFailed):
			return 2
		default:
			return 1
		}
	}
	return 0
}
