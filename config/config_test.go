package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ModeContainer, cfg.Mode)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, Ports{Pub: 5561, Pull: 5562, HTTP: 8080}, cfg.Ports)
	assert.Equal(t, Timeouts{
		Receive:          time.Second,
		HandshakeBackoff: 100 * time.Millisecond,
		Handshake:        10 * time.Second,
		Await:            10 * time.Second,
		Startup:          time.Minute,
	}, cfg.Timeouts)
	assert.Equal(t, "lake-relay.service", cfg.Service.Unit)
	assert.Equal(t, "/etc/init/lake.conf", cfg.Service.UnitConfig)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bbtest.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: unit
host: lake.local
ports:
  pub: 6000
timeouts:
  await: 3s
`), 0o600))
	t.Setenv("BBTEST_PORTS_PULL", "6001")
	t.Setenv("BBTEST_TIMEOUTS_RECEIVE", "250ms")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ModeUnit, cfg.Mode)
	assert.Equal(t, "lake.local", cfg.Host)
	assert.Equal(t, 6000, cfg.Ports.Pub)
	assert.Equal(t, 6001, cfg.Ports.Pull)
	assert.Equal(t, 3*time.Second, cfg.Timeouts.Await)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeouts.Receive)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"unknown mode", func(c *Config) { c.Mode = "k8s" }, "mode must be one of"},
		{"missing host", func(c *Config) { c.Host = "" }, "host is required"},
		{"port out of range", func(c *Config) { c.Ports.Pub = 70000 }, "ports.pub must be at most 65535"},
		{"zero port", func(c *Config) { c.Ports.Pull = 0 }, "ports.pull must be at least 1"},
		{"same ports", func(c *Config) { c.Ports.Pull = c.Ports.Pub }, "ports.pull must differ from pub"},
		{"zero timeout", func(c *Config) { c.Timeouts.Await = 0 }, "timeouts.await must be greater than 0"},
		{"container without image", func(c *Config) { c.Service.Image = "" }, "service.image is required"},
		{"unit without unit", func(c *Config) {
			c.Mode = ModeUnit
			c.Service.Unit = ""
		}, "service.unit and service.unit_config are required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}

	t.Run("external needs neither image nor unit", func(t *testing.T) {
		cfg := base
		cfg.Mode = ModeExternal
		cfg.Service.Image = ""
		cfg.Service.Unit = ""
		assert.NoError(t, cfg.Validate())
	})
}
