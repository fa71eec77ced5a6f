package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/qwqdev/livestatus/pkg/zlog"
	"github.com/qwqdev/livestatus/services/status_service/internal/domain/entity"
	"github.com/qwqdev/livestatus/services/status_service/internal/domain/filter"
	statusErr "github.com/qwqdev/livestatus/services/status_service/pkg/errors"
)

const (
	// DefaultPath 默认配置文件位置
	DefaultPath = "config/server-settings.yml"
	// EnvPrefix 环境变量前缀，例如 LIVESTATUS_TIMEOUT_SECS
	EnvPrefix = "LIVESTATUS"

	serviceName = "status-service"
)

// RateLimitConfig 写接口限流
type RateLimitConfig struct {
	Enabled   bool  `mapstructure:"enabled"`
	GlobalQPS int64 `mapstructure:"global_qps"`
	IPQPS     int64 `mapstructure:"ip_qps"`
	Burst     int64 `mapstructure:"burst"`
}

// Config 服务端配置
type Config struct {
	Host         string          `mapstructure:"host"`
	Key          string          `mapstructure:"key"`
	TimeoutSecs  int             `mapstructure:"timeout_secs"`
	FilterRules  []filter.Rule   `mapstructure:"filter_rule"`
	Mode         entity.Mode     `mapstructure:"mode"`
	ReadTimeout  time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout time.Duration   `mapstructure:"write_timeout"`
	RateLimit    RateLimitConfig `mapstructure:"rate_limit"`
	Log          zlog.Config     `mapstructure:"log"`
}

// Timeout 新鲜度阈值
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "127.0.0.1:1239")
	v.SetDefault("timeout_secs", 20)
	v.SetDefault("filter_rule", []map[string]string{})
	v.SetDefault("mode", string(entity.ModeMulti))
	v.SetDefault("read_timeout", "5s")
	v.SetDefault("write_timeout", "5s")
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.global_qps", 100)
	v.SetDefault("rate_limit.ip_qps", 5)
	v.SetDefault("rate_limit.burst", 10)
	zlog.SetDefaults(v, "log", serviceName)
}

// Load 读取配置；文件不存在时先写入一份默认配置（附带随机生成的密钥）
// 任何解析或校验失败都返回 ConfigurationError，调用方应直接退出
func Load(path string) (*Config, bool, error) {
	created, err := ensureFile(path)
	if err != nil {
		return nil, false, statusErr.NewConfigurationError(path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, created, statusErr.NewConfigurationError(path, fmt.Errorf("读取配置文件失败：%w", err))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, created, statusErr.NewConfigurationError(path, fmt.Errorf("解析配置失败：%w", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, created, err
	}
	return &cfg, created, nil
}

// ensureFile 首次运行时落一份默认配置，返回是否新建
func ensureFile(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("创建配置目录失败：%w", err)
	}

	// 单独的实例，避免把环境变量覆盖写进文件
	v := viper.New()
	setDefaults(v)
	v.Set("key", uuid.NewString())
	if err := v.SafeWriteConfigAs(path); err != nil {
		return false, fmt.Errorf("写入默认配置失败：%w", err)
	}
	return true, nil
}

// Validate 严格校验
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return statusErr.NewConfigurationError("host", fmt.Errorf("%w: 不能为空", statusErr.ErrInvalidConfig))
	}
	if strings.TrimSpace(c.Key) == "" {
		return statusErr.NewConfigurationError("key", fmt.Errorf("%w: 共享密钥不能为空", statusErr.ErrInvalidConfig))
	}
	if c.TimeoutSecs <= 0 {
		return statusErr.NewConfigurationError("timeout_secs", fmt.Errorf("%w: 必须大于 0，当前为 %d", statusErr.ErrInvalidConfig, c.TimeoutSecs))
	}
	if !c.Mode.Valid() {
		return statusErr.NewConfigurationError("mode", fmt.Errorf("%w: 只能是 multi/single，当前为 %q", statusErr.ErrInvalidConfig, c.Mode))
	}
	if c.RateLimit.Enabled && (c.RateLimit.GlobalQPS <= 0 || c.RateLimit.IPQPS <= 0 || c.RateLimit.Burst < 0) {
		return statusErr.NewConfigurationError("rate_limit", fmt.Errorf("%w: qps 必须大于 0，burst 不能为负", statusErr.ErrInvalidConfig))
	}
	if err := c.Log.Validate(); err != nil {
		return statusErr.NewConfigurationError("log", err)
	}
	return nil
}
