// Package config provides YAML-based configuration loading for Benchline.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Benchline configuration, loaded from benchline.yaml.
type Config struct {
	Shop      string          `yaml:"shop"`
	DB        DBConfig        `yaml:"db"`
	Holidays  []string        `yaml:"holidays"` // YYYY-MM-DD
	Reconcile ReconcileConfig `yaml:"reconcile"`
	Notify    NotifyConfig    `yaml:"notify"`
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DBConfig holds database connection settings. The sqlite driver is the
// local default; mysql serves shared multi-machine installs.
type DBConfig struct {
	Driver   string `yaml:"driver"` // sqlite or mysql
	Path     string `yaml:"path"`   // sqlite file path
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// ReconcileConfig controls the periodic work-log reconciler.
type ReconcileConfig struct {
	Cron string `yaml:"cron"` // 5-field cron expression
}

// NotifyConfig selects how schedule events are pushed to humans.
type NotifyConfig struct {
	Command string        `yaml:"command"` // shell command template
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack Web API credentials for outbound notifications.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// DiscordConfig holds Discord bot credentials for outbound notifications.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// DashboardConfig holds settings for the web dashboard.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.DB.Driver == "" {
		c.DB.Driver = "sqlite"
	}
	if c.DB.Path == "" {
		c.DB.Path = "benchline.db"
	}
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.Database == "" && c.Shop != "" {
		c.DB.Database = "benchline_" + c.Shop
	}
	if c.DB.User == "" {
		c.DB.User = "root"
	}
	if c.Reconcile.Cron == "" {
		c.Reconcile.Cron = "0 6 * * 1-5"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	if c.Shop == "" {
		return fmt.Errorf("config: shop is required")
	}
	switch c.DB.Driver {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("config: db.driver must be sqlite or mysql, got %q", c.DB.Driver)
	}
	if c.DB.Driver == "mysql" && c.DB.Database == "" {
		return fmt.Errorf("config: db.database is required for mysql")
	}
	for _, h := range c.Holidays {
		if _, err := time.Parse("2006-01-02", h); err != nil {
			return fmt.Errorf("config: invalid holiday date %q (want YYYY-MM-DD)", h)
		}
	}
	return nil
}

// HolidaySet parses the configured holidays into a day-keyed set.
func (c *Config) HolidaySet() map[time.Time]bool {
	set := make(map[time.Time]bool, len(c.Holidays))
	for _, h := range c.Holidays {
		d, err := time.Parse("2006-01-02", h)
		if err != nil {
			continue
		}
		set[d.UTC()] = true
	}
	return set
}
