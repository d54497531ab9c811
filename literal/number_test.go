package literal

import (
	"math"
	"testing"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		lit  string
		want float64
	}{
		{"3.14", 3.14},
		{"0x1f", 31},
		{"0o17", 15},
		{"0b101", 5},
		{"2_000", 2000},
		{"1e3", 1000},
		{".5", 0.5},
	}
	for _, tt := range tests {
		got, err := ParseNumber(tt.lit)
		if err != nil {
			t.Errorf("ParseNumber(%q) error: %v", tt.lit, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.lit, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		f    float64
		want string
	}{
		{4, "4"},
		{-1, "-1"},
		{3.5, "3.5"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.f); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}
