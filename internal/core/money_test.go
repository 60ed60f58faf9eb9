package core

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"12,5", "12.50", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.50", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.001", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
		{"1e5", "", false},
		{"1e999999999", "", false},
		{"1E-2", "", false},
		{"999999999999.99", "999999999999.99", true},
		{"1000000000000", "", false},
		{"1" + strings.Repeat("0", 40), "", false},
		{"0." + strings.Repeat("1", 40), "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestParseStoredAmount(t *testing.T) {
	for in, want := range map[string]string{
		"10":     "10.00",
		"-3.5":   "-3.50",
		"0":      "0.00",
		"5,499":  "5.50",
		" 7.10 ": "7.10",
	} {
		got, err := ParseStoredAmount(in)
		if err != nil || got.String() != want {
			t.Fatalf("%q expected %s, got %s (err=%v)", in, want, got, err)
		}
	}
	for _, in := range []string{"ten", "1e5", "-1e999999999", "-1000000000000"} {
		if _, err := ParseStoredAmount(in); !errors.Is(err, ErrInvalidAmount) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", in, err)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := MoneyFromCents(1000)
	b := MoneyFromCents(550)
	sum := a.Add(b)
	if sum.String() != "15.50" {
		t.Fatalf("sum = %s, want 15.50", sum)
	}
	if sum.Cents() != 1550 {
		t.Fatalf("cents = %d, want 1550", sum.Cents())
	}
	if !sum.Equal(MoneyFromCents(1550)) {
		t.Fatalf("expected equal amounts")
	}
	if (Money{}).Validate() == nil {
		t.Fatalf("zero money should not validate")
	}
}
