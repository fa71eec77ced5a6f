package errors

import (
	"errors"
	"fmt"
)

var (
	// 请求相关
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidBody  = errors.New("invalid status body")

	// 配置相关
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrInvalidFilterRule = errors.New("invalid filter rule")
)

// ConfigurationError 启动期的致命配置错误，Field 指出出错的配置项
type ConfigurationError struct {
	Field string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("配置错误：%s: %v", e.Field, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Is 让所有 ConfigurationError 都能被 errors.Is(err, ErrInvalidConfig) 识别
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigurationError 构造配置错误
func NewConfigurationError(field string, err error) error {
	return &ConfigurationError{Field: field, Err: err}
}
