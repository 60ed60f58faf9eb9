package core

import (
	"testing"
	"time"
)

func TestParseWindow(t *testing.T) {
	for in, want := range map[string]Window{
		"1m":       OneMonth,
		"1 month":  OneMonth,
		"2M":       TwoMonths,
		"6 Months": SixMonths,
		"all":      AllTime,
		"All Time": AllTime,
	} {
		got, err := ParseWindow(in)
		if err != nil || got != want {
			t.Fatalf("%q -> %v err=%v", in, got, err)
		}
	}
	if _, err := ParseWindow("3m"); err == nil {
		t.Fatalf("expected error for unknown window")
	}
}

func TestWindowIncludes(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		w    Window
		ts   time.Time
		want bool
	}{
		{"1 month keeps 10 days", OneMonth, now.AddDate(0, 0, -10), true},
		{"1 month drops 40 days", OneMonth, now.AddDate(0, 0, -40), false},
		{"1 month keeps cutoff", OneMonth, now.AddDate(0, -1, 0), true},
		{"2 months keeps 50 days", TwoMonths, now.AddDate(0, 0, -50), true},
		{"2 months drops 70 days", TwoMonths, now.AddDate(0, 0, -70), false},
		{"6 months keeps 170 days", SixMonths, now.AddDate(0, 0, -170), true},
		{"6 months drops 200 days", SixMonths, now.AddDate(0, 0, -200), false},
		{"all time keeps ancient rows", AllTime, time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"future rows are kept", OneMonth, now.Add(time.Hour), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.Includes(tt.ts, now); got != tt.want {
				t.Errorf("Includes(%v) = %v, want %v", tt.ts, got, tt.want)
			}
		})
	}
}

func TestAllTimeHasNoCutoff(t *testing.T) {
	if _, bounded := AllTime.Cutoff(time.Now()); bounded {
		t.Fatalf("all time should be unbounded")
	}
	if !AllTime.Unbounded() || OneMonth.Unbounded() {
		t.Fatalf("unexpected Unbounded results")
	}
}
