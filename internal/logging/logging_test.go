package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewManagerBootstrapMode(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	if mgr.Logger() == nil {
		t.Fatal("Manager.Logger() returned nil")
	}
}

func TestManagerLoggerStable(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	if mgr.Logger() != mgr.Logger() {
		t.Error("Manager.Logger() should return the same instance")
	}
}

func TestManagerUpgradeWritesJSON(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	logFile := filepath.Join(t.TempDir(), "test.log")

	if err := mgr.Upgrade(logFile, slog.LevelInfo); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	mgr.Logger().Info("test message", "key", "value")

	content, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}

	var logEntry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &logEntry); err != nil {
		t.Errorf("Log file content is not valid JSON: %v\nContent: %s", err, content)
	}
	if msg, ok := logEntry["msg"].(string); !ok || msg != "test message" {
		t.Errorf("Log entry missing or wrong msg: %v", logEntry)
	}
	if logEntry["key"] != "value" {
		t.Errorf("Log entry missing attribute: %v", logEntry)
	}
}

func TestManagerUpgradeCreatesParentDirs(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	logFile := filepath.Join(t.TempDir(), "nested", "dirs", "test.log")

	if err := mgr.Upgrade(logFile, slog.LevelInfo); err != nil {
		t.Fatalf("Upgrade() should create parent directories, got error: %v", err)
	}

	mgr.Logger().Info("first write")

	if _, err := os.Stat(logFile); os.IsNotExist(err) {
		t.Error("Log file was not created")
	}
}

func TestManagerClose(t *testing.T) {
	mgr := NewManager()

	logFile := filepath.Join(t.TempDir(), "test.log")
	if err := mgr.Upgrade(logFile, slog.LevelInfo); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	if err := mgr.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	// Calling Close again should be safe
	if err := mgr.Close(); err != nil {
		t.Errorf("Close() second call error = %v", err)
	}
}

func TestManagerSetLevel(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	logFile := filepath.Join(t.TempDir(), "test.log")

	if err := mgr.Upgrade(logFile, slog.LevelInfo); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	mgr.Logger().Debug("debug message 1")
	mgr.SetLevel(slog.LevelDebug)
	mgr.Logger().Debug("debug message 2")

	content, _ := os.ReadFile(logFile)
	output := string(content)

	if strings.Contains(output, "debug message 1") {
		t.Error("Debug message 1 should not appear at Info level")
	}
	if !strings.Contains(output, "debug message 2") {
		t.Error("Debug message 2 should appear after SetLevel(Debug)")
	}
}

func TestManagerLevelFiltering(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	logFile := filepath.Join(t.TempDir(), "test.log")
	if err := mgr.Upgrade(logFile, slog.LevelInfo); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	logger := mgr.Logger()
	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	content, _ := os.ReadFile(logFile)
	output := string(content)

	if strings.Contains(output, "debug message") {
		t.Error("Debug message should be suppressed at Info level")
	}
	for _, want := range []string{"info message", "warn message", "error message"} {
		if !strings.Contains(output, want) {
			t.Errorf("%q should appear", want)
		}
	}
}

func TestLoggerWithCreatesChild(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	logFile := filepath.Join(t.TempDir(), "test.log")
	if err := mgr.Upgrade(logFile, slog.LevelInfo); err != nil {
		t.Fatalf("Upgrade() error = %v", err)
	}

	childLogger := mgr.Logger().With("component", "server")
	if childLogger == mgr.Logger() {
		t.Error("With() should return a new logger instance")
	}

	childLogger.Info("child message", "request_id", "abc-123")

	content, _ := os.ReadFile(logFile)

	var logEntry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(content), &logEntry); err != nil {
		t.Fatalf("Log file should be valid JSON: %v\nContent: %s", err, content)
	}
	if logEntry["component"] != "server" {
		t.Errorf("Expected component=server, got %v", logEntry["component"])
	}
	if logEntry["request_id"] != "abc-123" {
		t.Errorf("Expected request_id=abc-123, got %v", logEntry["request_id"])
	}
}

func TestManagerUpgradePathIsDirectory(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	if err := mgr.Upgrade(t.TempDir(), slog.LevelInfo); err == nil {
		t.Error("Upgrade() should error when path is a directory")
	}
}

func TestManagerUpgradeReadOnlyDirectory(t *testing.T) {
	mgr := NewManager()
	defer func() { _ = mgr.Close() }()

	readOnlyDir := filepath.Join(t.TempDir(), "readonly")
	if err := os.Mkdir(readOnlyDir, 0444); err != nil {
		t.Fatalf("Failed to create read-only directory: %v", err)
	}
	defer func() { _ = os.Chmod(readOnlyDir, 0755) }()

	if err := mgr.Upgrade(filepath.Join(readOnlyDir, "test.log"), slog.LevelInfo); err == nil {
		t.Error("Upgrade() should error when directory is read-only")
	}
}
