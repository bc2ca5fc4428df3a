package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ec-console/rpc"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Page is a top-level screen.
type Page int

const (
	PageWallet Page = iota
	PageActors
	PageCluster
	PageTransfers
	PageTransactions
	PageMarkers
	PageTangle
	PageSettings
)

var pageNames = [...]string{"Wallet", "Actors", "Cluster", "Transfers", "Transactions", "Markers", "Tangle", "Settings"}

func (p Page) String() string {
	if int(p) < len(pageNames) {
		return pageNames[p]
	}
	return fmt.Sprintf("Page(%d)", int(p))
}

// Endpoint is one node the console can talk to.
type Endpoint struct {
	Name   string `mapstructure:"name" json:"name"`
	URL    string `mapstructure:"url" json:"url"`
	Active bool   `mapstructure:"active" json:"active"`
}

// Validate checks a single endpoint.
func (e Endpoint) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required),
		validation.Field(&e.URL, validation.Required, is.URL),
	)
}

// Config is the console configuration. Wallet seeds are never stored.
type Config struct {
	Endpoints      []Endpoint `mapstructure:"endpoints" json:"endpoints"`
	NodeURL        string     `mapstructure:"node_url" json:"-"`
	ModulePath     string     `mapstructure:"module_path" json:"module_path"`
	Password       string     `mapstructure:"password" json:"password"`
	TimeoutSeconds int        `mapstructure:"timeout_seconds" json:"timeout_seconds"`
	RefreshSeconds int        `mapstructure:"refresh_seconds" json:"refresh_seconds"`
	GuardActions   bool       `mapstructure:"guard_actions" json:"guard_actions"`
	Logger         bool       `mapstructure:"logger" json:"logger"`
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Endpoints, validation.Required),
		validation.Field(&c.ModulePath, validation.Required),
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1), validation.Max(300)),
		validation.Field(&c.RefreshSeconds, validation.Min(0), validation.Max(3600)),
	); err != nil {
		return err
	}
	active := 0
	for _, e := range c.Endpoints {
		if e.Active {
			active++
		}
	}
	if active > 1 {
		return fmt.Errorf("endpoints: %d marked active, at most one allowed", active)
	}
	return nil
}

// Timeout is the transport timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RefreshInterval is the auto-refresh period, zero when disabled.
func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSeconds) * time.Second
}

// Active returns the active endpoint, or the first one.
func (c *Config) Active() (Endpoint, int) {
	for i, e := range c.Endpoints {
		if e.Active {
			return e, i
		}
	}
	if len(c.Endpoints) > 0 {
		return c.Endpoints[0], 0
	}
	return Endpoint{}, -1
}

// Activate marks endpoint i as the only active one.
func (c *Config) Activate(i int) {
	if i < 0 || i >= len(c.Endpoints) {
		return
	}
	for j := range c.Endpoints {
		c.Endpoints[j].Active = j == i
	}
}

// DefaultPath is where the console keeps its configuration.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".ec-console.json")
}

// Load reads configuration from defaults, then the file at path if it
// exists, then EC_* environment variables (EC_PASSWORD, EC_NODE_URL, ...).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("endpoints", []map[string]any{{"name": "Local node", "url": rpc.DefaultURL, "active": true}})
	v.SetDefault("node_url", "")
	v.SetDefault("module_path", rpc.DefaultModulePath)
	v.SetDefault("password", rpc.DefaultPassword)
	v.SetDefault("timeout_seconds", int(rpc.DefaultTimeout/time.Second))
	v.SetDefault("refresh_seconds", 5)
	v.SetDefault("guard_actions", true)
	v.SetDefault("logger", false)

	v.SetEnvPrefix("EC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("json")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if cfg.NodeURL != "" {
		cfg.useNodeURL(cfg.NodeURL)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// useNodeURL activates url, adding it when it is not configured yet.
func (c *Config) useNodeURL(url string) {
	for i, e := range c.Endpoints {
		if e.URL == url {
			c.Activate(i)
			return
		}
	}
	c.Endpoints = append(c.Endpoints, Endpoint{Name: "Environment", URL: url})
	c.Activate(len(c.Endpoints) - 1)
}

// Save writes cfg to path as JSON.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
