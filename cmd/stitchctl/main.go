package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kelseyhightower/envconfig"

	"github.com/stitchline/stitchline-erp/cmd/stitchctl/cli"
	"github.com/stitchline/stitchline-erp/internal/client"
)

type opsConfig struct {
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := client.LoadConfig()
	if err != nil {
		logger.Error("load config", slog.Any("error", err))
		return cli.ExitError
	}
	var ops opsConfig
	if err := envconfig.Process("", &ops); err != nil {
		logger.Error("load config", slog.Any("error", err))
		return cli.ExitError
	}

	api := client.New(cfg)
	session := client.NewSession(api, client.FileTokenStore{Path: cfg.TokenFile})
	jobsCLI := cli.NewJobsCLI(ops.RedisAddr)
	defer func() {
		if err := jobsCLI.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	return cli.New(api, session, jobsCLI).Run(ctx, os.Args[1:], cli.Options{})
}
