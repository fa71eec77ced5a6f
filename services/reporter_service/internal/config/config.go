package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/qwqdev/livestatus/pkg/zlog"
)

const (
	// DefaultPath 默认配置文件位置
	DefaultPath = "config/client-settings.yml"
	// EnvPrefix 环境变量前缀，例如 LIVESTATUS_CLIENT_URL
	EnvPrefix = "LIVESTATUS_CLIENT"

	serviceName = "status-reporter"
)

// ProbeConfig 活动窗口采集命令
type ProbeConfig struct {
	TitleCommand string `mapstructure:"title_command"`
	AppCommand   string `mapstructure:"app_command"`
}

// Config 客户端配置
type Config struct {
	URL                string        `mapstructure:"url"`
	Key                string        `mapstructure:"key"`
	UpdateIntervalSecs int           `mapstructure:"update_interval_secs"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	LockFile           string        `mapstructure:"lock_file"`
	Probe              ProbeConfig   `mapstructure:"probe"`
	Log                zlog.Config   `mapstructure:"log"`
}

// Interval 上报周期
func (c *Config) Interval() time.Duration {
	return time.Duration(c.UpdateIntervalSecs) * time.Second
}

// defaultProbe 各平台的默认采集命令，只有 linux 有现成的命令行工具
func defaultProbe() ProbeConfig {
	switch runtime.GOOS {
	case "linux":
		return ProbeConfig{
			TitleCommand: "xdotool getactivewindow getwindowname",
			AppCommand:   "cat /proc/$(xdotool getactivewindow getwindowpid)/comm",
		}
	case "darwin":
		return ProbeConfig{
			TitleCommand: `osascript -e 'tell application "System Events" to get name of first window of (first application process whose frontmost is true)'`,
			AppCommand:   `osascript -e 'tell application "System Events" to get name of first application process whose frontmost is true'`,
		}
	default:
		return ProbeConfig{}
	}
}

func setDefaults(v *viper.Viper) {
	probe := defaultProbe()

	v.SetDefault("url", "http://127.0.0.1:1239/api/status")
	v.SetDefault("key", "")
	v.SetDefault("update_interval_secs", 5)
	v.SetDefault("request_timeout", "10s")
	v.SetDefault("lock_file", "status_reporter.lock")
	v.SetDefault("probe.title_command", probe.TitleCommand)
	v.SetDefault("probe.app_command", probe.AppCommand)
	zlog.SetDefaults(v, "log", serviceName)
}

// Load 读取配置；文件不存在时写入默认配置，返回是否新建
func Load(path string) (*Config, bool, error) {
	created, err := ensureFile(path)
	if err != nil {
		return nil, false, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, created, fmt.Errorf("读取配置文件失败：%w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, created, fmt.Errorf("解析配置失败：%w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, created, err
	}
	return &cfg, created, nil
}

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

	v := viper.New()
	setDefaults(v)
	if err := v.SafeWriteConfigAs(path); err != nil {
		return false, fmt.Errorf("写入默认配置失败：%w", err)
	}
	return true, nil
}

// Validate 严格校验
func (c *Config) Validate() error {
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("配置错误：url 不是合法地址：%q", c.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("配置错误：url 只支持 http/https，当前为 %q", u.Scheme)
	}
	if c.UpdateIntervalSecs <= 0 {
		return fmt.Errorf("配置错误：update_interval_secs 必须大于 0，当前为 %d", c.UpdateIntervalSecs)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("配置错误：request_timeout 必须大于 0")
	}
	if c.LockFile == "" {
		return fmt.Errorf("配置错误：lock_file 不能为空")
	}
	return c.Log.Validate()
}
