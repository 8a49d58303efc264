package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewHonoursLevel(t *testing.T) {
	log, err := New("development", "warn")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at warn level")
	}
	if !log.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("warn should be enabled at warn level")
	}
}

func TestNewFallsBackToInfo(t *testing.T) {
	log, err := New("production", "loud")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug should be disabled for unknown level")
	}
	if !log.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be enabled for unknown level")
	}
}
