package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/wonny/cockpit/pkg/config"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"unknown", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.in); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_EnvField(t *testing.T) {
	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "debug",
		LogFormat: "json",
	}

	log := New(cfg)
	if log == nil {
		t.Fatal("New returned nil")
	}
}

func TestWithFields_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	log.WithFields(map[string]interface{}{
		"tickers":   5,
		"objective": "max_sharpe",
	}).Info("optimization started")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}

	if entry["objective"] != "max_sharpe" {
		t.Errorf("expected objective field, got %v", entry["objective"])
	}
	if entry["message"] != "optimization started" {
		t.Errorf("expected message field, got %v", entry["message"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf)

	log.WithError(errors.New("boom")).Error("request failed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log output is not JSON: %v", err)
	}
	if entry["error"] != "boom" {
		t.Errorf("expected error field boom, got %v", entry["error"])
	}
}
