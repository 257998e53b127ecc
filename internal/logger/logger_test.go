package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
)

// TestSetup_WritesJSON はSetupが指定writerにJSON形式でログを出力することを検証する。
func TestSetup_WritesJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, slog.LevelInfo)

	logger.Info("test message", slog.String("key", "value"))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not valid JSON: %v", err)
	}
	if entry["msg"] != "test message" {
		t.Errorf("msg = %v, want %q", entry["msg"], "test message")
	}
	if entry["key"] != "value" {
		t.Errorf("key = %v, want %q", entry["key"], "value")
	}
}

// TestSetup_LevelFilter は指定レベル未満のログが出力されないことを検証する。
func TestSetup_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := Setup(&buf, slog.LevelWarn)

	logger.Info("should be dropped")
	if buf.Len() != 0 {
		t.Errorf("expected info log to be filtered, got %q", buf.String())
	}

	logger.Warn("should be written")
	if buf.Len() == 0 {
		t.Error("expected warn log to be written")
	}
}

// TestLevelFromEnv はLOG_LEVEL環境変数の解決を検証する。
func TestLevelFromEnv(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"unknown", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Setenv("LOG_LEVEL", tt.value)
		if got := LevelFromEnv(); got != tt.want {
			t.Errorf("LevelFromEnv() with LOG_LEVEL=%q = %v, want %v", tt.value, got, tt.want)
		}
	}
}
