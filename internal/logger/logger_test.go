package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{DebugLevel, zapcore.DebugLevel},
		{InfoLevel, zapcore.InfoLevel},
		{WarnLevel, zapcore.WarnLevel},
		{ErrorLevel, zapcore.ErrorLevel},
		{"verbose", zapcore.DebugLevel},
	}
	for _, tt := range tests {
		if got := toZapLevel(tt.in); got != tt.want {
			t.Errorf("toZapLevel(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, l := range []string{DebugLevel, InfoLevel, WarnLevel, ErrorLevel} {
		if !ValidLevel(l) {
			t.Errorf("%q should be valid", l)
		}
	}
	if ValidLevel("trace") {
		t.Error("trace should not be valid")
	}
}

func TestNewAndNamed(t *testing.T) {
	l := New(InfoLevel).Named("heater")
	if l.SugaredLogger == nil {
		t.Fatal("expected a logger")
	}
	if !l.Desugar().Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be enabled")
	}
	if l.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be disabled at info level")
	}
	Nop().Infow("discarded", "k", "v")
}
