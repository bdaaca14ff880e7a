package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const fullYAML = `
shop: nordbench

db:
  driver: mysql
  host: 10.0.0.5
  port: 3307
  database: benchline_nordbench
  user: bench
  password: secret

holidays:
  - "2024-12-25"
  - "2024-12-26"

reconcile:
  cron: "30 5 * * 1-6"

notify:
  command: "notify-send 'Benchline' '{{.Title}}'"
  slack:
    bot_token: xoxb-abc
    channel: C123

dashboard:
  port: 9090
`

const minimalYAML = `
shop: oak
`

func TestParse_FullConfig(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Shop != "nordbench" {
		t.Errorf("Shop = %q, want %q", cfg.Shop, "nordbench")
	}
	if cfg.DB.Driver != "mysql" {
		t.Errorf("DB.Driver = %q, want mysql", cfg.DB.Driver)
	}
	if cfg.DB.Host != "10.0.0.5" {
		t.Errorf("DB.Host = %q, want %q", cfg.DB.Host, "10.0.0.5")
	}
	if cfg.DB.Port != 3307 {
		t.Errorf("DB.Port = %d, want %d", cfg.DB.Port, 3307)
	}
	if len(cfg.Holidays) != 2 {
		t.Fatalf("len(Holidays) = %d, want 2", len(cfg.Holidays))
	}
	if cfg.Reconcile.Cron != "30 5 * * 1-6" {
		t.Errorf("Reconcile.Cron = %q, want %q", cfg.Reconcile.Cron, "30 5 * * 1-6")
	}
	if cfg.Notify.Slack.Channel != "C123" {
		t.Errorf("Notify.Slack.Channel = %q, want C123", cfg.Notify.Slack.Channel)
	}
	if cfg.Dashboard.Port != 9090 {
		t.Errorf("Dashboard.Port = %d, want 9090", cfg.Dashboard.Port)
	}
}

func TestParse_MinimalDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DB.Driver != "sqlite" {
		t.Errorf("DB.Driver = %q, want sqlite", cfg.DB.Driver)
	}
	if cfg.DB.Path != "benchline.db" {
		t.Errorf("DB.Path = %q, want benchline.db", cfg.DB.Path)
	}
	if cfg.DB.Database != "benchline_oak" {
		t.Errorf("DB.Database = %q, want benchline_oak", cfg.DB.Database)
	}
	if cfg.Reconcile.Cron != "0 6 * * 1-5" {
		t.Errorf("Reconcile.Cron = %q, want default", cfg.Reconcile.Cron)
	}
	if cfg.Dashboard.Port != 8080 {
		t.Errorf("Dashboard.Port = %d, want 8080", cfg.Dashboard.Port)
	}
}

func TestParse_MissingShop(t *testing.T) {
	_, err := Parse([]byte("db:\n  driver: sqlite\n"))
	if err == nil {
		t.Fatal("expected error for missing shop")
	}
	if !strings.Contains(err.Error(), "shop is required") {
		t.Errorf("error = %v, want mention of shop", err)
	}
}

func TestParse_BadDriver(t *testing.T) {
	_, err := Parse([]byte("shop: oak\ndb:\n  driver: postgres\n"))
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
	if !strings.Contains(err.Error(), "db.driver") {
		t.Errorf("error = %v, want mention of db.driver", err)
	}
}

func TestParse_BadHoliday(t *testing.T) {
	_, err := Parse([]byte("shop: oak\nholidays: [\"25.12.2024\"]\n"))
	if err == nil {
		t.Fatal("expected error for malformed holiday")
	}
	if !strings.Contains(err.Error(), "holiday") {
		t.Errorf("error = %v, want mention of holiday", err)
	}
}

func TestHolidaySet(t *testing.T) {
	cfg, err := Parse([]byte(fullYAML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set := cfg.HolidaySet()
	xmas := time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC)
	if !set[xmas] {
		t.Error("expected 2024-12-25 in holiday set")
	}
	if len(set) != 2 {
		t.Errorf("len(set) = %d, want 2", len(set))
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "benchline.yaml")
	if err := os.WriteFile(path, []byte(minimalYAML), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Shop != "oak" {
		t.Errorf("Shop = %q, want oak", cfg.Shop)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
