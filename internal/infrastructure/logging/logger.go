package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/vesync-core/internal/infrastructure/config"
)

// redactedKeys lists attribute keys whose values are masked when redaction
// is enabled. The cloud session token and account id are enough to issue
// commands against someone's devices, so they never belong in log output.
var redactedKeys = map[string]struct{}{
	"token":          {},
	"account_id":     {},
	"authorize_code": {},
	"password":       {},
}

// Logger wraps slog.Logger with fleet-controller specific functionality.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Logger struct {
	*slog.Logger
}

// New creates a new Logger with the specified configuration.
//
// It configures output format (JSON or text), level filtering, default
// fields, and optional redaction of credential-bearing attributes.
func New(cfg config.LoggingConfig, version string, redact bool) *Logger {
	var output io.Writer
	switch strings.ToLower(cfg.Output) {
	case "stderr":
		output = os.Stderr
	default:
		output = os.Stdout
	}

	level := parseLevel(cfg.Level)

	opts := &slog.HandlerOptions{
		Level: level,
	}
	if redact {
		opts.ReplaceAttr = redactAttr
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "text":
		handler = slog.NewTextHandler(output, opts)
	default:
		handler = slog.NewJSONHandler(output, opts)
	}

	handler = handler.WithAttrs([]slog.Attr{
		slog.String("service", "vesyncd"),
		slog.String("version", version),
	})

	return &Logger{
		Logger: slog.New(handler),
	}
}

// redactAttr masks the values of credential-bearing attributes.
func redactAttr(_ []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[a.Key]; ok {
		return slog.String(a.Key, Mask(a.Value.String()))
	}
	return a
}

// Mask replaces all but the first and last two characters of a secret with
// asterisks. Short values are masked entirely.
func Mask(s string) string {
	const visible = 2
	if len(s) <= visible*2 {
		return "****"
	}
	return s[:visible] + strings.Repeat("*", len(s)-visible*2) + s[len(s)-visible:]
}

// parseLevel converts a string log level to slog.Level.
//
// Supported levels: debug, info, warn, error.
// Defaults to info if unrecognised.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a new Logger with additional default attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
	}
}

// Default creates a default logger for use before configuration is loaded.
//
// Outputs to stdout in JSON format at info level with redaction enabled.
func Default() *Logger {
	return New(config.LoggingConfig{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}, "dev", true)
}
