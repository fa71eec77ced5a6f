package zlog

import (
	"os"
	"path/filepath"

	// 日志轮转工具库，能按照文件大小、天数、备份数量自动切分日志文件，也可以对旧日志进行 gzip 压缩
	"gopkg.in/natefinch/lumberjack.v2"

	"go.uber.org/zap/zapcore"
)

// buildWriteSyncer 根据配置组装所有输出
func buildWriteSyncer(cfg Config) (zapcore.WriteSyncer, error) {
	var syncers []zapcore.WriteSyncer

	if cfg.Stdout {
		syncers = append(syncers, zapcore.Lock(zapcore.AddSync(os.Stdout)))
	}

	if p := cfg.File.Path; p != "" {
		// lumberjack 不会自己建目录
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, err
		}
		lj := &lumberjack.Logger{
			Filename:   p,
			MaxSize:    cfg.File.MaxSizeMB,
			MaxAge:     cfg.File.MaxAgeDay,
			MaxBackups: cfg.File.MaxBackups,
			Compress:   cfg.File.Compress,
			LocalTime:  true,
		}
		syncers = append(syncers, zapcore.AddSync(lj))
	}

	return zapcore.NewMultiWriteSyncer(syncers...), nil
}
