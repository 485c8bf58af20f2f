// Package logging provides structured logging built on log/slog.
//
// The wrapper adds default service fields, level parsing from config, and
// a redaction mode that masks session tokens and account identifiers in
// log attributes. Redaction is on by default and controlled by the
// account.redact config flag.
package logging
