package zlog

import (
	"net/http"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var dynamicLevel = zap.NewAtomicLevel() // 全局可变级别
var levelName atomic.Value              // 存一下字符串形式

func initLevel(lvl string) {
	l, _ := parseLevel(lvl)
	dynamicLevel.SetLevel(l)
	levelName.Store(strings.ToLower(lvl))
}

// parseLevel 将字符串转 zapcore.Level，不认识的级别按 info 处理并返回 false
func parseLevel(lvl string) (zapcore.Level, bool) {
	switch strings.ToLower(lvl) {
	case "debug":
		return zap.DebugLevel, true
	case "info":
		return zap.InfoLevel, true
	case "warn":
		return zap.WarnLevel, true
	case "error":
		return zap.ErrorLevel, true
	default:
		return zap.InfoLevel, false
	}
}

// SetLevel 热更新日志级别，级别非法时返回 false 且不做修改
func SetLevel(lvl string) bool {
	l, ok := parseLevel(lvl)
	if !ok {
		return false
	}
	dynamicLevel.SetLevel(l)
	levelName.Store(strings.ToLower(lvl))
	return true
}

// GetLevel 返回当前级别字符串
func GetLevel() string {
	if v, ok := levelName.Load().(string); ok {
		return v
	}
	return "info"
}

// LevelHTTPHandler 用于注册到 /log/level (PUT: ?v=debug|info|warn|error)
func LevelHTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			lvl := r.URL.Query().Get("v")
			if lvl == "" {
				lvl = r.FormValue("v")
			}
			if !SetLevel(lvl) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte("unknown level"))
				return
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		_, _ = w.Write([]byte(GetLevel()))
	}
}
