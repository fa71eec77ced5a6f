package zlog

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper" // 配置管理工具库
)

// FileConfig 本地轮转文件策略
// tag 被 viper 用来匹配字段
type FileConfig struct {
	Path       string `mapstructure:"path"`        // 日志文件路径，为空则不落盘
	MaxSizeMB  int    `mapstructure:"max_size"`    // 单个日志文件最大容量（MB）
	MaxBackups int    `mapstructure:"max_backups"` // 保留旧文件数量
	MaxAgeDay  int    `mapstructure:"max_age"`     // 最长保存天数
	Compress   bool   `mapstructure:"compress"`    // 是否压缩旧日志文件
}

// Config 日志配置，作为宿主服务配置里的一个子节（通常是 log）
type Config struct {
	Service      string     `mapstructure:"service"`       // 归属服务名
	Level        string     `mapstructure:"level"`         // 日志级别，debug|info|warn|error
	Encoding     string     `mapstructure:"encoding"`      // 输出格式，json|console
	Stdout       bool       `mapstructure:"stdout"`        // 是否把日志同时输出到控制台
	File         FileConfig `mapstructure:"file"`          // 文件相关配置
	EnableMetric bool       `mapstructure:"enable_metric"` // 是否上报 Prometheus 指标
}

// SetDefaults 在宿主 viper 的 prefix 节点下注册日志默认值
// 默认按天清理、保留 7 份，和旧版客户端/服务端的日志策略保持一致
func SetDefaults(v *viper.Viper, prefix, service string) {
	key := func(k string) string { return prefix + "." + k }

	v.SetDefault(key("service"), service)
	v.SetDefault(key("level"), "info")
	v.SetDefault(key("encoding"), "console")
	v.SetDefault(key("stdout"), true)
	v.SetDefault(key("file.path"), filepath.Join("logs", service+".log"))
	v.SetDefault(key("file.max_size"), 100)
	v.SetDefault(key("file.max_backups"), 7)
	v.SetDefault(key("file.max_age"), 7)
	v.SetDefault(key("file.compress"), false)
	v.SetDefault(key("enable_metric"), true)
}

// Validate 严格校验，并对文件相关的非法数值回填默认值
func (cfg *Config) Validate() error {
	if cfg.Service == "" {
		return fmt.Errorf("配置错误：service 不能为空")
	}

	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("配置错误：level 只能是 debug/info/warn/error，当前为 %q", cfg.Level)
	}

	switch cfg.Encoding {
	case "json", "console":
	default:
		return fmt.Errorf("配置错误：encoding 只能是 json/console，当前为 %q", cfg.Encoding)
	}

	// 不输出到控制台时必须落盘
	if !cfg.Stdout && cfg.File.Path == "" {
		return fmt.Errorf("配置错误：stdout 为 false 时，file.path 不能为空")
	}

	if cfg.File.Path != "" {
		if cfg.File.MaxSizeMB <= 0 {
			cfg.File.MaxSizeMB = 100
		}
		if cfg.File.MaxBackups < 0 {
			cfg.File.MaxBackups = 7
		}
		if cfg.File.MaxAgeDay < 0 {
			cfg.File.MaxAgeDay = 7
		}
	}

	return nil
}
