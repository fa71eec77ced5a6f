// Package filter 按配置的正则规则对自由文本做脱敏
package filter

import (
	"fmt"
	"regexp"

	"github.com/qwqdev/livestatus/pkg/status"
	statusErr "github.com/qwqdev/livestatus/services/status_service/pkg/errors"
)

// Rule 一条脱敏规则，Replacement 支持 $1 / ${name} 引用捕获组
type Rule struct {
	Regex       string `mapstructure:"regex" json:"regex"`
	Replacement string `mapstructure:"replacement" json:"replacement"`
}

type compiledRule struct {
	rule Rule
	re   *regexp.Regexp
}

// Redactor 编译好的规则列表，构造后只读，可被并发使用
type Redactor struct {
	rules []compiledRule
}

// Compile 在启动期一次性编译所有规则，任意一条非法即返回 ConfigurationError
func Compile(rules []Rule) (*Redactor, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Regex)
		if err != nil {
			return nil, statusErr.NewConfigurationError(
				fmt.Sprintf("filter_rule[%d].regex", i),
				fmt.Errorf("%w: %q (replacement %q): %v", statusErr.ErrInvalidFilterRule, r.Regex, r.Replacement, err),
			)
		}
		compiled = append(compiled, compiledRule{rule: r, re: re})
	}
	return &Redactor{rules: compiled}, nil
}

// Redact 按声明顺序依次替换，上一条的输出是下一条的输入
func (r *Redactor) Redact(text string) string {
	if r == nil {
		return text
	}
	for _, cr := range r.rules {
		text = cr.re.ReplaceAllString(text, cr.rule.Replacement)
	}
	return text
}

// RedactStatus 对 title、app_name、os_name 分别脱敏，force_status_type 是控制标签，原样保留
func (r *Redactor) RedactStatus(s status.Status) status.Status {
	return status.Status{
		Title:           r.Redact(s.Title),
		AppName:         r.Redact(s.AppName),
		OSName:          r.Redact(s.OSName),
		ForceStatusType: s.ForceStatusType,
	}
}

// Rules 返回原始规则副本，仅用于诊断输出
func (r *Redactor) Rules() []Rule {
	if r == nil {
		return nil
	}
	out := make([]Rule, len(r.rules))
	for i, cr := range r.rules {
		out[i] = cr.rule
	}
	return out
}

// Len 规则条数
func (r *Redactor) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}
