package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/qwqdev/livestatus/pkg/zlog"
	httpAdapter "github.com/qwqdev/livestatus/services/status_service/internal/adapters/in/http"
	"github.com/qwqdev/livestatus/services/status_service/internal/adapters/out/memory"
	"github.com/qwqdev/livestatus/services/status_service/internal/application"
	"github.com/qwqdev/livestatus/services/status_service/internal/config"
	"github.com/qwqdev/livestatus/services/status_service/internal/domain/entity"
	"github.com/qwqdev/livestatus/services/status_service/internal/domain/filter"
)

const bucketIdleTimeout = time.Hour

func main() {
	configPath := pflag.StringP("config", "c", config.DefaultPath, "path to server-settings.yml")
	pflag.Parse()

	// 加载配置，任何配置错误都在监听端口之前退出
	cfg, created, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] failed to load settings: %v\n", err)
		os.Exit(1)
	}

	// 规则在启动期一次性编译
	redactor, err := filter.Compile(cfg.FilterRules)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger, err := zlog.InitGlobal(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if created {
		logger.Info("default settings written", zap.String("path", *configPath))
	}
	logger.Info("successfully initialized the settings",
		zap.String("mode", string(cfg.Mode)),
		zap.Duration("timeout", cfg.Timeout()),
		zap.Int("filter_rules", redactor.Len()),
	)

	// 指标
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if cfg.Log.EnableMetric {
		if err := zlog.RegisterMetrics(reg); err != nil {
			logger.Fatal("failed to register log metrics", zap.Error(err))
		}
	}
	metrics, err := httpAdapter.NewMetrics(reg)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}

	// 组装用例
	store := memory.NewStoreForMode(cfg.Mode)
	statusUseCase := application.NewStatusUseCase(redactor, store, cfg.Timeout())

	var limiter *httpAdapter.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = httpAdapter.NewRateLimiter(httpAdapter.RateLimiterConfig{
			GlobalQPS:  cfg.RateLimit.GlobalQPS,
			IPQPSLimit: cfg.RateLimit.IPQPS,
			BurstSize:  cfg.RateLimit.Burst,
		}, metrics)
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpAdapter.NewRouter(httpAdapter.RouterDeps{
		Handler:     httpAdapter.NewStatusHandler(statusUseCase, cfg.Mode == entity.ModeSingle, metrics),
		Secret:      cfg.Key,
		RateLimiter: limiter,
		Metrics:     metrics,
		Gatherer:    reg,
	})

	srv := &http.Server{
		Addr:         cfg.Host,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if limiter != nil {
		go sweepBuckets(ctx, limiter, logger)
	}

	go func() {
		logger.Info("LiveStatus backend listening", zap.String("addr", cfg.Host))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// 优雅关闭
	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server exited properly")
}

// sweepBuckets 定期清理闲置的限流桶
func sweepBuckets(ctx context.Context, limiter *httpAdapter.RateLimiter, logger *zap.Logger) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Cleanup(bucketIdleTimeout); n > 0 {
				logger.Debug("rate limit buckets cleaned", zap.Int("removed", n))
			}
		}
	}
}
