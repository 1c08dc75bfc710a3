// Package main is the entrypoint for the socialctl operator CLI.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/micropost/micropost/internal/app"
	"github.com/micropost/micropost/internal/cli"
	"github.com/micropost/micropost/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	newApp := func(ctx context.Context) (*app.App, error) {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		logger := app.NewLogger(cfg, os.Stderr)
		slog.SetDefault(logger)
		return app.New(ctx, cfg, logger)
	}

	code := cli.Execute(ctx, newApp, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
