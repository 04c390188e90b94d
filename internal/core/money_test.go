package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.344", 1234, true},
		{" 2.50 ", 250, true},
		{"1200.00", 120000, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"0", 0, false},
		{"0.004", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	cases := []struct {
		in  float64
		out int64
	}{
		{42.75, 4275},
		{35, 3500},
		{15.99, 1599},
		{0.1 + 0.2, 30},
		{0, 0},
		{-5, -500},
	}
	for _, tc := range cases {
		if got := MoneyFromFloat(tc.in); got.Cents != tc.out {
			t.Fatalf("MoneyFromFloat(%v) = %d, want %d", tc.in, got.Cents, tc.out)
		}
	}
}

func TestMoneyFormatting(t *testing.T) {
	m := Money{Cents: 127775}
	if m.String() != "1277.75" {
		t.Fatalf("String() = %q", m.String())
	}
	if m.Float() != 1277.75 {
		t.Fatalf("Float() = %v", m.Float())
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(Money{Cents: 50}, Money{}); got != 0 {
		t.Fatalf("zero whole should yield 0, got %v", got)
	}
	if got := Percent(Money{Cents: 1}, Money{Cents: 3}); got != 33.3333 {
		t.Fatalf("1/3 = %v, want 33.3333", got)
	}
	if got := Percent(Money{Cents: 250}, Money{Cents: 1000}); got != 25 {
		t.Fatalf("250/1000 = %v, want 25", got)
	}
}
