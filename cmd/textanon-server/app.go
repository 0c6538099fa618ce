package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"textanon/pkg/config"
	"textanon/pkg/hub"
	"textanon/pkg/moderation"
	"textanon/pkg/observability"
	"textanon/pkg/server"
)

// run is the main entry point after CLI parsing.
func run(opts Options) int {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return 1
	}

	logger, err := observability.SetupLogger(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("failed to setup logger: " + err.Error() + "\n")
		return 1
	}
	defer func() { _ = logger.Sync() }()

	zap.L().Info("textanon-server started", zap.String("app", cfg.AppName))
	zap.L().Info("effective configuration", zap.Any("config", cfg))

	var mask rune
	if r := []rune(cfg.Moderation.Mask); len(r) == 1 {
		mask = r[0]
	}
	filter, err := moderation.New(moderation.Options{
		Mask:         mask,
		Words:        cfg.Moderation.Words,
		WordlistFile: cfg.Moderation.WordlistFile,
	})
	if err != nil {
		zap.L().Error("failed to build moderation filter", zap.Error(err))
		return 1
	}

	h := hub.New(filter, hub.Options{
		RequeueWithoutPartner: cfg.Relay.RequeueWithoutPartner,
	}, logger)

	srv, err := server.New(cfg.Server, h, logger)
	if err != nil {
		zap.L().Error("failed to build server", zap.Error(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		zap.L().Error("server error", zap.Error(err))
		return 1
	}
	zap.L().Info("shutdown complete")
	return 0
}
