package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentBot, Output: &buf})
	l.Info("hello", FieldUserID, "42")
	out := buf.String()
	if !strings.Contains(out, "component=bot") || !strings.Contains(out, "user_id=42") {
		t.Fatalf("unexpected output: %s", out)
	}

	buf.Reset()
	l.WithComponent(ComponentSheets).Warn("careful")
	if !strings.Contains(buf.String(), "component=sheets") {
		t.Fatalf("component not replaced: %s", buf.String())
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Format: "json", Component: "x", Output: &buf})
	l.Debug("dbg")
	if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
		t.Fatalf("expected JSON output, got %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestContextRoundTrip(t *testing.T) {
	l := Discard().WithComponent(ComponentBot)
	ctx := NewContext(context.Background(), l)
	if got := FromContext(ctx); got.Component() != ComponentBot {
		t.Fatalf("component = %q", got.Component())
	}
	if got := FromContext(context.Background()); got.Component() != "unknown" {
		t.Fatalf("fallback component = %q", got.Component())
	}
}

func TestFieldsBuilder(t *testing.T) {
	f := NewFields().WithComponent(ComponentBot).WithSender("discord", "c1", "u1").WithExpense("Food", "tea", "2.00")
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("unexpected slice length")
	}
	if f[FieldPlatform] != "discord" || f[FieldAmount] != "2.00" {
		t.Fatalf("unexpected fields: %v", f)
	}
}
