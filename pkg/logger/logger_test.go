package logger

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWithContextAddsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Log
	Log = zap.New(core)
	t.Cleanup(func() { Log = prev })

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-1")
	WithContext(ctx).Info("com id")
	WithContext(context.Background()).Info("sem id")
	Component("etl").Info("componente")

	entries := logs.AllUntimed()
	if len(entries) != 3 {
		t.Fatalf("got %d entries", len(entries))
	}
	if got := entries[0].ContextMap()["request_id"]; got != "req-1" {
		t.Errorf("request_id = %v", got)
	}
	if _, ok := entries[1].ContextMap()["request_id"]; ok {
		t.Error("unexpected request_id without one in the context")
	}
	if entries[2].LoggerName != "etl" {
		t.Errorf("logger name = %q", entries[2].LoggerName)
	}
}

func TestInitWithFormat(t *testing.T) {
	prev := Log
	t.Cleanup(func() { Log = prev })

	if err := InitWithFormat("debug", "console", false); err != nil {
		t.Fatal(err)
	}
	if !Log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug level not enabled")
	}
}
