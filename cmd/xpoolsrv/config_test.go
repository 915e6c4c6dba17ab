package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, src, err := LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, src.Path())
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xpoolsrv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pool:
  size: 8
server:
  sleep_delay: 250ms
  allow_cidrs: ["127.0.0.1/32"]
limit:
  rate: 10
log:
  format: json
`), 0o600))

	cfg, src, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, src.Path())
	assert.Equal(t, 8, cfg.Pool.Size)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.SleepDelay)
	assert.Equal(t, []string{"127.0.0.1/32"}, cfg.Server.AllowCIDRs)
	assert.Equal(t, 10, cfg.Limit.Rate)
	assert.Equal(t, time.Second, cfg.Limit.Period, "default kept")
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "127.0.0.1:7878", cfg.Server.Addr, "default kept")
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Errors(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"pool":{"size":{"x":1}}}`), 0o600))
	_, _, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero pool", func(c *Config) { c.Pool.Size = 0 }},
		{"negative queue", func(c *Config) { c.Pool.QueueSize = -1 }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
		{"negative sleep", func(c *Config) { c.Server.SleepDelay = -time.Second }},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = 0 }},
		{"zero bind attempts", func(c *Config) { c.Server.BindAttempts = 0 }},
		{"bad cidr", func(c *Config) { c.Server.AllowCIDRs = []string{"10.0.0.0/33"} }},
		{"limit without period", func(c *Config) { c.Limit.Rate, c.Limit.Period = 5, 0 }},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }},
		{"sample rate above one", func(c *Config) { c.Log.AccessSampleRate = 1.5 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), errInvalidConfig)
		})
	}
}
