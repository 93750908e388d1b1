package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/evyataryagoni/iptracker/internal/app"
	"github.com/evyataryagoni/iptracker/internal/cli"
	"github.com/evyataryagoni/iptracker/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	build := func() (*app.App, error) {
		cfg := config.Load()
		if os.Getenv("LOG_LEVEL") == "" {
			cfg.LogLevel = "warn" // keep the terminal for the result card
		}
		return app.New(cfg, app.NewLogger(cfg))
	}

	err := cli.NewIPTrackerCLI(build).ExecuteContext(ctx)
	if err != nil {
		if !errors.Is(err, cli.ErrLookupFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}
