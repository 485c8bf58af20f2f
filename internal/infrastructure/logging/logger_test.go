package logging

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/nerrad567/vesync-core/internal/infrastructure/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"DEBUG", slog.LevelDebug},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "****"},
		{"abcd", "****"},
		{"abcdefgh", "ab****gh"},
	}

	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRedactAttr(t *testing.T) {
	a := redactAttr(nil, slog.String("token", "secret-session-token"))
	if strings.Contains(a.Value.String(), "session") {
		t.Errorf("token attribute not redacted: %q", a.Value.String())
	}

	b := redactAttr(nil, slog.String("device", "Core300S"))
	if b.Value.String() != "Core300S" {
		t.Errorf("non-secret attribute modified: %q", b.Value.String())
	}
}

func TestNewDoesNotPanic(t *testing.T) {
	for _, format := range []string{"json", "text"} {
		log := New(config.LoggingConfig{Level: "debug", Format: format}, "test", true)
		log.Debug("hello", "token", "abcdefgh")
	}
}
