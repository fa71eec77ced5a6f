package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/qwqdev/livestatus/pkg/status"
	"github.com/qwqdev/livestatus/services/reporter_service/internal/ports/out"
)

// Reporter 周期性采集并上报
type Reporter struct {
	probe     out.Probe
	publisher out.StatusPublisher
	interval  time.Duration
	logger    *zap.Logger

	mu      sync.Mutex
	running bool
}

// NewReporter 创建上报器
func NewReporter(probe out.Probe, publisher out.StatusPublisher, interval time.Duration, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.L()
	}
	return &Reporter{
		probe:     probe,
		publisher: publisher,
		interval:  interval,
		logger:    logger,
	}
}

// Run 阻塞运行，直到 ctx 取消；先等一个周期再上报第一次
func (r *Reporter) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("reporter already running")
	}
	r.running = true
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reporter started", zap.Duration("interval", r.interval))
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reporter stopped")
			return nil
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick 采集并上报一次；采集失败时上报 N/A，上报失败只记日志
func (r *Reporter) Tick(ctx context.Context) (status.Status, error) {
	st, err := r.probe.Current(ctx)
	if err != nil {
		r.logger.Debug("probe failed, falling back to N/A", zap.Error(err))
		st = status.NA()
	}

	if err := r.publisher.Publish(ctx, st); err != nil {
		r.logger.Error("failed to send status", zap.Error(err))
		return st, err
	}

	r.logger.Info("sent status", zap.String("title", st.Title), zap.String("app_name", st.AppName))
	return st, nil
}
