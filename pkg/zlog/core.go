package zlog

import (
	"strings"

	// 使用 uber 开源的 zap 日志库
	"go.uber.org/zap"         // 更高层的 api
	"go.uber.org/zap/zapcore" // 底层构件
)

// New 创建一个 *zap.Logger，不替换全局
// opts 可传可不传
func New(cfg Config, opts ...zap.Option) (*zap.Logger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// 初始化全局可变日志级别
	initLevel(cfg.Level)

	// console 编码面向人看，json 编码面向采集
	var encCfg zapcore.EncoderConfig
	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Encoding) == "console" {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeCaller = zapcore.ShortCallerEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	} else {
		encCfg = zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeCaller = zapcore.ShortCallerEncoder
		encoder = zapcore.NewJSONEncoder(encCfg)
	}

	ws, err := buildWriteSyncer(cfg)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, ws, dynamicLevel)

	// Prometheus 埋点
	core = wrapWithMetric(core, cfg)

	allOpts := append(opts,
		zap.AddCaller(),
		zap.Fields(zap.String("service", cfg.Service)),
	)

	return zap.New(core, allOpts...), nil
}
