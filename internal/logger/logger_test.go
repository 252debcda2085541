package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	tests := []struct {
		env       string
		wantDebug bool
	}{
		{"production", false},
		{"development", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			log, err := Initialize(tt.env)
			if err != nil {
				t.Fatalf("Initialize(%q) error = %v", tt.env, err)
			}
			if zap.L() != log {
				t.Error("Initialize should install the logger globally")
			}
			if got := log.Core().Enabled(zapcore.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}
