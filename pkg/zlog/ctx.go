package zlog

import (
	"context"

	"go.uber.org/zap"
)

// loggerKey 请求级 logger 在 ctx 中的键
type loggerKey struct{}

// WithContext 把 l 绑定到 ctx 上，l 为 nil 时原样返回
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	if l == nil {
		return ctx
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, l)
}

// With 在 ctx 已绑定的 logger 上追加字段，返回新 ctx 和派生出的 logger
func With(ctx context.Context, fields ...zap.Field) (context.Context, *zap.Logger) {
	l := FromContext(ctx).With(fields...)
	return WithContext(ctx, l), l
}

// FromContext 取出请求级 logger，未绑定时使用全局 logger
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
			return l
		}
	}
	return zap.L()
}

// C 是 FromContext 的简写
func C(ctx context.Context) *zap.Logger { return FromContext(ctx) }
