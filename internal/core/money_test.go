package core

import "testing"

func TestParseSignedCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"12.34", 1234, true},
		{"12,34", 1234, true},
		{"-12.34", -1234, true},
		{"+12.34", 1234, true},
		{"0", 0, true},
		{"-0.005", -1, true},
		{"12.345", 1235, true}, // half-up at the third decimal
		{"12.344", 1234, true},
		{"12.346", 1235, true},
		{".50", 50, true},
		{"-150", -15000, true},
		{" 20 ", 2000, true},
		{"", 0, false},
		{"not-a-number", 0, false},
		{"1.2.3", 0, false},
		{"12a", 0, false},
		{"-", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseSignedCents(tc.in)
		if tc.ok && err != nil {
			t.Fatalf("ParseSignedCents(%q) unexpected error: %v", tc.in, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("ParseSignedCents(%q) expected error, got %d", tc.in, got)
		}
		if tc.ok && got != tc.want {
			t.Fatalf("ParseSignedCents(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{-1234, "-12.34"},
		{0, "0.00"},
		{5, "0.05"},
		{-5, "-0.05"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestCentsFromFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{12.34, 1234},
		{-12.34, -1234},
		{0.005, 1},
		{-0.005, -1},
		{0, 0},
	}
	for _, tc := range cases {
		if got := CentsFromFloat(tc.in); got != tc.want {
			t.Fatalf("CentsFromFloat(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
