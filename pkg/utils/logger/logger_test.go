package logger

import (
	"context"
	"path/filepath"
	"testing"

	"matholymp/pkg/utils/contextkey"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextAttachesRequestFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := globalLogger
	globalLogger = &Logger{zap: zap.New(core)}
	defer func() { globalLogger = prev }()

	ctx := context.WithValue(context.Background(), contextkey.TraceID, "trace-1")
	ctx = context.WithValue(ctx, contextkey.RequestID, "req-1")
	ctx = context.WithValue(ctx, contextkey.UserID, int64(7))
	Info(ctx, "scores entered", zap.String("country", "GBR"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["trace_id"] != "trace-1" {
		t.Fatalf("expected trace_id, got %v", fields["trace_id"])
	}
	if fields["request_id"] != "req-1" {
		t.Fatalf("expected request_id, got %v", fields["request_id"])
	}
	if fields["user_id"] != int64(7) {
		t.Fatalf("expected user_id, got %v", fields["user_id"])
	}
	if fields["country"] != "GBR" {
		t.Fatalf("expected country field, got %v", fields["country"])
	}
}

func TestPlainStringKeysAreIgnored(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	prev := globalLogger
	globalLogger = &Logger{zap: zap.New(core)}
	defer func() { globalLogger = prev }()

	//lint:ignore SA1029 checking that untyped keys do not leak into log fields
	ctx := context.WithValue(context.Background(), "trace_id", "nope")
	Warn(ctx, "warning")

	if _, ok := logs.All()[0].ContextMap()["trace_id"]; ok {
		t.Fatalf("expected untyped key to be ignored")
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	prev := globalLogger
	globalLogger = nil
	defer func() { globalLogger = prev }()

	Info(context.Background(), "dropped")
	if err := Sync(); err != nil {
		t.Fatalf("expected nil sync error, got %v", err)
	}
}

func TestInitRejectsBadLevel(t *testing.T) {
	if err := Init(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error for invalid level")
	}
}

func TestJSONLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := newLogger(Config{Level: "debug", Format: "json", OutputPath: path, ErrorPath: path})
	if err != nil {
		t.Fatalf("expected logger, got %v", err)
	}
	l.WithContext(context.Background()).Info("hello")
	_ = l.Sync()
}
