package core

import (
	"testing"
	"time"
)

func TestMonthCatalogRoundTrip(t *testing.T) {
	for n := 1; n <= 12; n++ {
		name := MonthName(n)
		if name == "" {
			t.Fatalf("month %d has no name", n)
		}
		if got := MonthNumber(name); got != n {
			t.Fatalf("MonthNumber(%q) = %d, want %d", name, got, n)
		}
		if len([]rune(MonthShortName(n))) != 3 {
			t.Fatalf("short name for %d = %q", n, MonthShortName(n))
		}
	}
	if MonthName(3) != "Março" || MonthShortName(2) != "Fev" {
		t.Fatalf("unexpected names: %q %q", MonthName(3), MonthShortName(2))
	}
}

func TestMonthCatalogDefaults(t *testing.T) {
	for _, n := range []int{0, 13, -1} {
		if MonthName(n) != "" || MonthShortName(n) != "" {
			t.Fatalf("expected empty name for %d", n)
		}
	}
	if got := MonthNumber("Smarch"); got != 1 {
		t.Fatalf("unknown name should default to 1, got %d", got)
	}
	if got := MonthNumber("  março "); got != 3 {
		t.Fatalf("case-insensitive lookup failed: %d", got)
	}
	if _, err := ParseMonth("Smarch"); err != ErrInvalidMonth {
		t.Fatalf("expected ErrInvalidMonth, got %v", err)
	}
}

func TestParseMonthParam(t *testing.T) {
	cases := []struct {
		in  string
		out int
		ok  bool
	}{
		{"3", 3, true},
		{"12", 12, true},
		{"Dezembro", 12, true},
		{"0", 0, false},
		{"13", 0, false},
		{"foo", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMonthParam(tc.in)
		if tc.ok && (err != nil || got != tc.out) {
			t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestAvailableYears(t *testing.T) {
	got := AvailableYears(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	if len(got) != 3 || got[0] != 2024 || got[2] != 2026 {
		t.Fatalf("unexpected years: %v", got)
	}
	if got := AvailableYears(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)); len(got) != 0 {
		t.Fatalf("expected no years before %d, got %v", FirstYear, got)
	}
}
