package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwqdev/livestatus/pkg/status"
	statusErr "github.com/qwqdev/livestatus/services/status_service/pkg/errors"
)

func mustCompile(t *testing.T, rules ...Rule) *Redactor {
	t.Helper()
	r, err := Compile(rules)
	require.NoError(t, err)
	return r
}

func TestRedactAppliesRulesSequentially(t *testing.T) {
	r := mustCompile(t, Rule{Regex: "a", Replacement: "b"}, Rule{Regex: "b", Replacement: "c"})
	assert.Equal(t, "c", r.Redact("a"))
}

func TestRedactEmptyRuleSetIsIdentity(t *testing.T) {
	r := mustCompile(t)
	for _, in := range []string{"", "N/A", "secret-42 window", "  spaces  "} {
		assert.Equal(t, in, r.Redact(in))
	}

	var nilRedactor *Redactor
	assert.Equal(t, "x", nilRedactor.Redact("x"))
}

func TestRedactReplacesAllMatches(t *testing.T) {
	r := mustCompile(t, Rule{Regex: `secret-\d+`, Replacement: "REDACTED"})
	assert.Equal(t, "REDACTED window", r.Redact("secret-42 window"))
	assert.Equal(t, "REDACTED and REDACTED", r.Redact("secret-1 and secret-22"))
	assert.Equal(t, "", r.Redact(""))
}

func TestRedactCaptureGroups(t *testing.T) {
	r := mustCompile(t, Rule{Regex: `(\w+)@(\w+)\.com`, Replacement: "${1}@***"})
	assert.Equal(t, "mail alice@***", r.Redact("mail alice@example.com"))
}

func TestRedactZeroWidthMatch(t *testing.T) {
	r := mustCompile(t, Rule{Regex: `x*`, Replacement: "-"})
	assert.Equal(t, "-a-b-", r.Redact("ab"))
}

func TestRedactStatusLeavesForceTypeAlone(t *testing.T) {
	r := mustCompile(t, Rule{Regex: "N/A", Replacement: "?"})
	got := r.RedactStatus(status.Status{Title: "N/A", AppName: "N/A", OSName: "N/A", ForceStatusType: "N/A"})

	assert.Equal(t, status.Status{Title: "?", AppName: "?", OSName: "?", ForceStatusType: "N/A"}, got)
}

func TestRedactStatusFieldsAreIndependent(t *testing.T) {
	r := mustCompile(t, Rule{Regex: "^Notes$", Replacement: "App"})
	got := r.RedactStatus(status.WithOS("Notes", "Notes", "mac"))

	assert.Equal(t, "App", got.Title)
	assert.Equal(t, "App", got.AppName)
	assert.Equal(t, "mac", got.OSName)
}

func TestCompileRejectsInvalidPattern(t *testing.T) {
	_, err := Compile([]Rule{{Regex: "ok"}, {Regex: "(unclosed", Replacement: "x"}})
	require.Error(t, err)

	assert.True(t, errors.Is(err, statusErr.ErrInvalidConfig))
	assert.True(t, errors.Is(err, statusErr.ErrInvalidFilterRule))

	var cfgErr *statusErr.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "filter_rule[1].regex", cfgErr.Field)
}

func TestRulesKeepsDeclaredOrder(t *testing.T) {
	rules := []Rule{{Regex: "1", Replacement: "a"}, {Regex: "2", Replacement: "b"}}
	r := mustCompile(t, rules...)

	assert.Equal(t, rules, r.Rules())
	assert.Equal(t, 2, r.Len())
}
