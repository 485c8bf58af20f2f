// Package config loads and validates the vesyncd configuration.
//
// Configuration is layered: hardcoded defaults, then the YAML file, then
// VESYNC_* environment variables. Secrets (account password, InfluxDB
// token) should come from the environment rather than the file.
//
// The account section carries the knobs the cloud client is sensitive to:
// region endpoint, country-code override, and the request time zone. The
// time zone is validated against an allow-listed character set and falls
// back to DefaultTimezone, since the cloud API rejects envelopes with
// malformed zone strings in ways that look like auth failures.
package config
