package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultsOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "client-settings.yml")

	cfg, created, err := Load(path)
	require.NoError(t, err)
	assert.True(t, created)
	assert.FileExists(t, path)

	assert.Equal(t, "http://127.0.0.1:1239/api/status", cfg.URL)
	assert.Equal(t, 5*time.Second, cfg.Interval())
	assert.Equal(t, 10*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "status_reporter.lock", cfg.LockFile)
	assert.Equal(t, "status-reporter", cfg.Log.Service)
	assert.Equal(t, defaultProbe(), cfg.Probe)
}

func TestLoadReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client-settings.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
url: https://status.example.com/api/status
key: s3cret
update_interval_secs: 15
probe:
  title_command: echo title
  app_command: echo app
`), 0o644))

	cfg, created, err := Load(path)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "https://status.example.com/api/status", cfg.URL)
	assert.Equal(t, "s3cret", cfg.Key)
	assert.Equal(t, 15*time.Second, cfg.Interval())
	assert.Equal(t, ProbeConfig{TitleCommand: "echo title", AppCommand: "echo app"}, cfg.Probe)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]string{
		"relative url":  "url: /api/status\n",
		"bad scheme":    "url: ftp://host/api\n",
		"zero interval": "update_interval_secs: 0\n",
		"no lock file":  "lock_file: ''\n",
		"bad yaml":      "url: [\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "client-settings.yml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

			_, _, err := Load(path)
			assert.Error(t, err)
		})
	}
}
