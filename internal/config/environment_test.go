package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(koanf.New("."))
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.APP.Environment)
	assert.Equal(t, zerolog.DebugLevel, cfg.APP.LogLevel)
	assert.Equal(t, 8082, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "filters/caught.json", cfg.Dataset.Path)
	assert.True(t, cfg.Dataset.UseBloom)
	assert.True(t, cfg.Dataset.AllowLegacyFormat)
	assert.InDelta(t, 0.01, cfg.Dataset.BloomFPRate, 1e-9)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "http://localhost:8082", cfg.Server.GetServerURL())
}

func TestLoadTOMLOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[APP]
environment = "production"

[Server]
port = 9090

[Dataset]
path = "/var/lib/phishcheck/caught.json"
reload_cron = ""
use_bloom = false
workers = 4
`), 0o644))

	k := koanf.New(".")
	require.NoError(t, k.Load(file.Provider(path), toml.Parser()))

	cfg, err := load(k)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.APP.Environment)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/var/lib/phishcheck/caught.json", cfg.Dataset.Path)
	assert.Empty(t, cfg.Dataset.ReloadCron)
	assert.False(t, cfg.Dataset.UseBloom)
	assert.Equal(t, 4, cfg.Dataset.Workers)
	// untouched keys keep their defaults
	assert.True(t, cfg.Dataset.ReloadOnlyOnChange)
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("PHISHCHECK_TEST_KEY", "value")
	assert.Equal(t, "value", GetEnv("PHISHCHECK_TEST_KEY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("PHISHCHECK_TEST_MISSING", "fallback"))
}
