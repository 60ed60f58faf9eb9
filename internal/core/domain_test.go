package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseEntry(t *testing.T) {
	cases := []struct {
		in     string
		item   string
		amount string
		err    error
	}{
		{"Coffee, 3.50", "Coffee", "3.50", nil},
		{"  Lunch at work ,12 ", "Lunch at work", "12.00", nil},
		{"Pizza, 12,5", "Pizza", "12.50", nil}, // split happens on the first comma
		{"Coffee 3.50", "", "", ErrMissingSeparator},
		{"", "", "", ErrMissingSeparator},
		{" , 3.50", "", "", ErrEmptyItem},
		{"Coffee, ", "", "", ErrInvalidAmount},
		{"Coffee, three", "", "", ErrInvalidAmount},
		{strings.Repeat("x", MaxItemLength+1) + ", 1", "", "", ErrItemTooLong},
	}
	for _, tc := range cases {
		item, amount, err := ParseEntry(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Fatalf("%q expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q unexpected error: %v", tc.in, err)
		}
		if item != tc.item || amount.String() != tc.amount {
			t.Fatalf("%q got (%q, %s), want (%q, %s)", tc.in, item, amount, tc.item, tc.amount)
		}
	}
}

func TestNewExpense(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 589793238, time.Local)
	e, err := NewExpense(now, "Food", "Bagel, 2.40")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !e.Timestamp.Equal(now.Truncate(time.Second)) {
		t.Fatalf("timestamp = %v", e.Timestamp)
	}
	if e.Category != "Food" || e.Item != "Bagel" || e.Amount.String() != "2.40" {
		t.Fatalf("unexpected expense: %+v", e)
	}
	if _, err := NewExpense(now, "", "Bagel"); !errors.Is(err, ErrMissingSeparator) {
		t.Fatalf("expected ErrMissingSeparator, got %v", err)
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{Timestamp: time.Now(), Item: "ok", Amount: MoneyFromCents(100)}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Item: "a", Amount: MoneyFromCents(1)}, // zero timestamp
		{Timestamp: time.Now(), Item: " ", Amount: MoneyFromCents(1)},
		{Timestamp: time.Now(), Item: "a"},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := (Expense{}).CategoryLabel(); got != Uncategorized {
		t.Fatalf("empty category label = %q", got)
	}
	if got := (Expense{Category: "Food"}).CategoryLabel(); got != "Food" {
		t.Fatalf("label = %q", got)
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	ts := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	s := FormatTimestamp(ts)
	if s != "2025-01-02 03:04:05" {
		t.Fatalf("formatted = %q", s)
	}
	got, err := ParseTimestamp(s, time.UTC)
	if err != nil || !got.Equal(ts) {
		t.Fatalf("parsed = %v err=%v", got, err)
	}
	if d, err := ParseTimestamp("2025-01-02", time.UTC); err != nil || d.Hour() != 0 {
		t.Fatalf("date-only parse = %v err=%v", d, err)
	}
	if _, err := ParseTimestamp("yesterday", time.UTC); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
}
