package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/qwqdev/livestatus/pkg/zlog"
	httpPublisher "github.com/qwqdev/livestatus/services/reporter_service/internal/adapters/out/http"
	"github.com/qwqdev/livestatus/services/reporter_service/internal/adapters/out/probe"
	"github.com/qwqdev/livestatus/services/reporter_service/internal/application"
	"github.com/qwqdev/livestatus/services/reporter_service/internal/config"
	"github.com/qwqdev/livestatus/services/reporter_service/internal/lock"
)

func main() {
	configPath := pflag.StringP("config", "c", config.DefaultPath, "path to client-settings.yml")
	osName := pflag.String("os-name", "", "device identity reported as os_name (defaults to runtime OS)")
	pflag.Parse()

	cfg, created, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] failed to load settings: %v\n", err)
		os.Exit(1)
	}

	logger, err := zlog.InitGlobal(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// 单实例
	fileLock, err := lock.Acquire(cfg.LockFile)
	if err != nil {
		logger.Fatal("failed to acquire application lock", zap.Error(err))
	}
	defer fileLock.Release()
	logger.Info("successfully acquired application lock", zap.String("path", cfg.LockFile))

	if created {
		logger.Info("default settings written", zap.String("path", *configPath))
	}
	if cfg.Key == "" {
		logger.Warn("shared key is empty, the server will reject every report")
	}

	reporter := application.NewReporter(
		probe.NewCommandProbe(cfg.Probe.TitleCommand, cfg.Probe.AppCommand, *osName),
		httpPublisher.NewStatusPublisher(cfg.URL, cfg.Key, cfg.RequestTimeout),
		cfg.Interval(),
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := reporter.Run(ctx); err != nil {
		logger.Error("reporter exited", zap.Error(err))
	}
}
