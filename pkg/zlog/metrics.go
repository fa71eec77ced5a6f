package zlog

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zapcore"
)

// entryCounter 按服务和级别统计真正写出的日志条数
var entryCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "livestatus",
		Name:      "log_entries_total",
		Help:      "Number of log entries written, by service and level.",
	},
	[]string{"service", "level"},
)

// RegisterMetrics 把日志计数器挂到 reg 上，重复注册视为成功
func RegisterMetrics(reg prometheus.Registerer) error {
	err := reg.Register(entryCounter)
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return nil
	}
	return err
}

// countingCore 在内层 core 写出一条日志后计数，被级别过滤掉的条目不计
type countingCore struct {
	zapcore.Core
	service string
}

func (c countingCore) With(fields []zapcore.Field) zapcore.Core {
	return countingCore{Core: c.Core.With(fields), service: c.service}
}

func (c countingCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c countingCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	if err := c.Core.Write(ent, fields); err != nil {
		return err
	}
	entryCounter.WithLabelValues(c.service, ent.Level.String()).Inc()
	return nil
}

// wrapWithMetric enable_metric 打开时才计数
func wrapWithMetric(core zapcore.Core, cfg Config) zapcore.Core {
	if !cfg.EnableMetric {
		return core
	}
	return countingCore{Core: core, service: cfg.Service}
}
