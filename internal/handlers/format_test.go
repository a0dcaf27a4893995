package handlers

import "testing"

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "Rp0"},
		{999, "Rp999"},
		{1000, "Rp1,000"},
		{1234567.8, "Rp1,234,568"},
		{1000000000, "Rp1,000,000,000"},
		{-1234.4, "Rp-1,234"},
		{-999, "Rp-999"},
		{0.4, "Rp0"},
		{0.5, "Rp1"},
	}

	for _, tt := range tests {
		if got := FormatCurrency(tt.in); got != tt.want {
			t.Errorf("FormatCurrency(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPct(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{50, "+50.00%"},
		{-25.5, "-25.50%"},
		{0, "+0.00%"},
		{0.005, "+0.01%"},
		{123.456, "+123.46%"},
	}

	for _, tt := range tests {
		if got := FormatPct(tt.in); got != tt.want {
			t.Errorf("FormatPct(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
