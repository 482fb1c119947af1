package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tempDir := t.TempDir()
	oldWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(tempDir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	defer func() {
		_ = os.Chdir(oldWd)
	}()

	logFilePath, err := resolveLogFilePath(Options{})
	if err != nil {
		t.Fatalf("resolveLogFilePath failed: %v", err)
	}
	if !strings.HasSuffix(logFilePath, filepath.Join(defaultLogDirName, defaultLogFilename)) {
		t.Fatalf("unexpected log file path: %s", logFilePath)
	}
	if _, err := os.Stat(logFilePath); err != nil {
		t.Fatalf("log file should exist: %v", err)
	}
}

func TestNewReleaseWritesToConfiguredFile(t *testing.T) {
	tempDir := t.TempDir()
	l := New("release", Options{Dir: tempDir, Filename: "app.log"})
	if l == nil {
		t.Fatal("expected logger instance")
	}

	l.Info("settlement_test_event")
	_ = l.Sync()

	content, err := os.ReadFile(filepath.Join(tempDir, "app.log"))
	if err != nil {
		t.Fatalf("read log file failed: %v", err)
	}
	if !strings.Contains(string(content), "settlement_test_event") {
		t.Fatalf("log content missing event, got: %s", string(content))
	}
}

func TestNewDebugMode(t *testing.T) {
	l := New("debug", Options{})
	if l == nil {
		t.Fatal("expected logger instance")
	}
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug mode should enable debug level")
	}
}

func TestNormalizePositiveInt(t *testing.T) {
	if got := normalizePositiveInt(0, 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	if got := normalizePositiveInt(-1, 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	if got := normalizePositiveInt(3, 7); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}
