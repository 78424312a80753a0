// Package testutil provides testing utilities for vtable
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/seasr/vtable/pkg/logger"
)

// TestLogger installs a logger that writes to the test output as the
// global logger. The previous logger is restored when the test completes.
func TestLogger(t *testing.T) *zap.Logger {
	t.Helper()
	l := zaptest.NewLogger(t)
	swap(t, l)
	return l
}

// ObserveLogs installs a global logger that records entries at or above
// level, for assertions on log output.
func ObserveLogs(t *testing.T, level zapcore.Level) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(level)
	swap(t, zap.New(core))
	return logs
}

func swap(t *testing.T, l *zap.Logger) {
	prev := logger.Get()
	logger.Set(l)
	t.Cleanup(func() { logger.Set(prev) })
}

// TestContext creates a context with a 30-second timeout, cancelled when
// the test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// WriteFile writes content to name inside a per-test temporary directory
// and returns the full path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// CSV joins a header and rows into a CSV document
func CSV(header string, rows ...string) string {
	return header + "\n" + strings.Join(rows, "\n") + "\n"
}
