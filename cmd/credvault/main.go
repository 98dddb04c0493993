package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"

	"github.com/MKhiriev/credvault/internal/app"
	"github.com/MKhiriev/credvault/internal/client"
	"github.com/MKhiriev/credvault/internal/config"
	"github.com/MKhiriev/credvault/internal/logger"
	"github.com/MKhiriev/credvault/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	stop()

	memguard.Purge()
	os.Exit(code)
}

func run(ctx context.Context, args []string) int {
	cfg, rest, err := config.GetStructuredConfig(args)
	if errors.Is(err, flag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "usage: credvault [global flags] <command> [args]")
		config.PrintFlags(os.Stderr)
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "credvault: %v\n", err)
		return 2
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "credvault: %v\n", err)
		return 1
	}

	ctx = log.WithContext(ctx)

	var cli client.Client
	cli, err = client.NewApp(cfg, client.WithBuildInfo(
		models.NewAppBuildInfo(buildVersion, buildDate, buildCommit),
	))
	if err != nil {
		log.Err(err).Msg("init client app error")
		fmt.Fprintf(os.Stderr, "credvault: %s\n", app.Message(err))
		return app.ExitCode(err)
	}

	if err := cli.Run(ctx, rest); err != nil {
		fmt.Fprintf(os.Stderr, "credvault: %s\n", app.Message(err))
		return app.ExitCode(err)
	}
	return 0
}

func newLogger(cfg *config.StructuredConfig) (*logger.Logger, error) {
	if cfg.Log.File == "" {
		return logger.NewLogger("credvault").WithLevel(cfg.LogLevel()), nil
	}

	log, err := logger.NewFileLogger("credvault", cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return log.WithLevel(cfg.LogLevel()), nil
}
