// Package auth negotiates a VeSync cloud session across region,
// country-code, and protocol-version uncertainty.
//
// The cloud silently varies its login protocol: newer accounts use a
// two-step exchange (credentials for an authorization code, then the
// code for a session token), older accounts only answer the legacy
// single-step login. The correct country code for step two is not
// always the account's displayed locale, and the regional endpoint
// (US vs EU) is an independent axis from the country code. The
// negotiator walks this (endpoint, countryCode) space, trying
// caller-declared values first, and falls back to the legacy flow on
// protocol-level rejection.
//
// Credential rejection after the search is exhausted surfaces as
// ErrAuthFailed; transport faults propagate wrapped in
// cloud.ErrTransport so callers can distinguish "wrong password" from
// "cloud unreachable".
package auth
