package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ec-console/rpc"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)

	active, idx := cfg.Active()
	assert.Equal(t, 0, idx)
	assert.Equal(t, rpc.DefaultURL, active.URL)
	assert.Equal(t, rpc.DefaultModulePath, cfg.ModulePath)
	assert.Equal(t, rpc.DefaultPassword, cfg.Password)
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.True(t, cfg.GuardActions)
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ec.json")

	cfg, err := Load("")
	require.NoError(t, err)
	cfg.Endpoints = append(cfg.Endpoints, Endpoint{Name: "Remote", URL: "http://10.0.0.2:2187/getModuleResponse"})
	cfg.Activate(1)
	cfg.Logger = true
	cfg.RefreshSeconds = 0
	require.NoError(t, Save(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Endpoints, 2)
	active, idx := loaded.Active()
	assert.Equal(t, 1, idx)
	assert.Equal(t, "Remote", active.Name)
	assert.True(t, loaded.Logger)
	assert.Zero(t, loaded.RefreshInterval())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EC_PASSWORD", "from-env")
	t.Setenv("EC_NODE_URL", "http://127.0.0.1:9999/getModuleResponse")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Password)

	active, _ := cfg.Active()
	assert.Equal(t, "http://127.0.0.1:9999/getModuleResponse", active.URL)
	assert.Equal(t, "Environment", active.Name)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Endpoints:      []Endpoint{{Name: "n", URL: "http://localhost:2187/getModuleResponse", Active: true}},
			ModulePath:     "ec.ixi-1.0.jar",
			TimeoutSeconds: 5,
		}
	}
	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no endpoints", func(c *Config) { c.Endpoints = nil }},
		{"bad url", func(c *Config) { c.Endpoints[0].URL = "not a url" }},
		{"missing name", func(c *Config) { c.Endpoints[0].Name = "" }},
		{"two active", func(c *Config) { c.Endpoints = append(c.Endpoints, Endpoint{Name: "b", URL: "http://b/x", Active: true}) }},
		{"zero timeout", func(c *Config) { c.TimeoutSeconds = 0 }},
		{"negative refresh", func(c *Config) { c.RefreshSeconds = -1 }},
		{"no module path", func(c *Config) { c.ModulePath = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestPageString(t *testing.T) {
	assert.Equal(t, "Cluster", PageCluster.String())
	assert.Equal(t, "Page(42)", Page(42).String())
}
