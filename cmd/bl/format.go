package main

import (
	"fmt"
	"time"

	"github.com/zulandar/benchline/internal/config"
	"github.com/zulandar/benchline/internal/db"
	"gorm.io/gorm"
)

// connectFromConfig loads config and returns a GORM DB connection.
func connectFromConfig(configPath string) (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	gormDB, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	return cfg, gormDB, nil
}

// parseDate parses a YYYY-MM-DD argument.
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return d, nil
}

// formatDate renders a date as YYYY-MM-DD, or "-" when nil.
func formatDate(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format("2006-01-02")
}

// formatMoney renders an amount with two decimals.
func formatMoney(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// formatWindow renders a planned start/end pair.
func formatWindow(start, end *time.Time) string {
	if start == nil || end == nil {
		return "-"
	}
	return fmt.Sprintf("%s..%s", start.Format("2006-01-02"), end.Format("2006-01-02"))
}
