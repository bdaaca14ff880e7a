package main

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := parseDate("2024-06-03")
	if err != nil {
		t.Fatalf("parseDate: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.June || d.Day() != 3 {
		t.Errorf("parseDate = %v, want 2024-06-03", d)
	}

	if _, err := parseDate("03/06/2024"); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestFormatDate(t *testing.T) {
	if got := formatDate(nil); got != "-" {
		t.Errorf("formatDate(nil) = %q, want -", got)
	}
	d := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	if got := formatDate(&d); got != "2024-06-03" {
		t.Errorf("formatDate = %q, want 2024-06-03", got)
	}
}

func TestFormatWindow(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 6, 7, 0, 0, 0, 0, time.UTC)

	if got := formatWindow(&start, &end); got != "2024-06-03..2024-06-07" {
		t.Errorf("formatWindow = %q", got)
	}
	if got := formatWindow(nil, &end); got != "-" {
		t.Errorf("formatWindow with nil start = %q, want -", got)
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{50, "50.00"},
		{1234.5, "1234.50"},
	}
	for _, tt := range tests {
		if got := formatMoney(tt.in); got != tt.want {
			t.Errorf("formatMoney(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseQuantities(t *testing.T) {
	groups, err := parseQuantities("6, 4")
	if err != nil {
		t.Fatalf("parseQuantities: %v", err)
	}
	if len(groups) != 2 || groups[0] != 6 || groups[1] != 4 {
		t.Errorf("parseQuantities = %v, want [6 4]", groups)
	}

	if _, err := parseQuantities("6,four"); err == nil {
		t.Error("expected error for non-integer quantity")
	}
}

func TestParseItemSpec(t *testing.T) {
	spec, err := parseItemSpec("table:10:120.5")
	if err != nil {
		t.Fatalf("parseItemSpec: %v", err)
	}
	if spec.Product != "table" || spec.Quantity != 10 || spec.UnitPrice != 120.5 {
		t.Errorf("parseItemSpec = %+v", spec)
	}

	spec, err = parseItemSpec("bench:4")
	if err != nil {
		t.Fatalf("parseItemSpec: %v", err)
	}
	if spec.UnitPrice != 0 {
		t.Errorf("unit price = %v, want 0 when omitted", spec.UnitPrice)
	}

	for _, raw := range []string{"table", "table:x", "table:1:2:3"} {
		if _, err := parseItemSpec(raw); err == nil {
			t.Errorf("parseItemSpec(%q) should fail", raw)
		}
	}
}
