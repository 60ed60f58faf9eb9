package cli

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"spesebot/internal/config"
	"spesebot/internal/log"
)

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger(&config.Config{LogLevel: "debug", LogFormat: "json"}, log.ComponentBot, io.Discard)
	if logger.Component() != log.ComponentBot {
		t.Errorf("component = %q, want %q", logger.Component(), log.ComponentBot)
	}
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level to be enabled")
	}

	quiet := SetupLogger(&config.Config{LogLevel: "warn"}, log.ComponentApp, io.Discard)
	if quiet.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info level to be disabled at warn")
	}
}

func TestOpenPublisherDisabled(t *testing.T) {
	if c := OpenPublisher(log.Discard(), &config.Config{}); c != nil {
		t.Fatal("expected no publisher without AMQP_URL")
	}
}

func TestOpenBackendMemory(t *testing.T) {
	cfg := &config.Config{DataBackend: "memory", Categories: []string{"Food"}}
	res, err := OpenBackend(context.Background(), log.Discard(), cfg)
	if err != nil {
		t.Fatalf("OpenBackend: %v", err)
	}
	defer res.Close()
	if res.Store == nil {
		t.Fatal("expected a store")
	}

	if _, err := OpenBackend(context.Background(), log.Discard(), &config.Config{DataBackend: "floppy", Categories: []string{"Food"}}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestSignalContextFollowsParent(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	ctx, stop := SignalContext(parent, log.Discard())
	defer stop()

	cancel()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with its parent")
	}
}

func TestWaitWithTimeout(t *testing.T) {
	if !WaitWithTimeout(log.Discard(), time.Second, func() {}) {
		t.Error("expected fast function to finish in time")
	}
	release := make(chan struct{})
	defer close(release)
	if WaitWithTimeout(log.Discard(), 10*time.Millisecond, func() { <-release }) {
		t.Error("expected timeout for blocked function")
	}
}
