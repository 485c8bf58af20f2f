// Package cloud implements the transport and envelope layer for the
// VeSync cloud API.
//
// Every authenticated request carries a common body envelope (timestamp,
// trace id, terminal id, session token, time zone) plus a method-specific
// payload. Responses arrive as a JSON envelope with a top-level code and,
// for bypass calls, a second nested envelope inside result. A non-zero
// code at either level is a semantic failure even when the HTTP status
// is 200; this package unwraps both levels and normalises known vendor
// codes into sentinel errors.
//
// The HTTP exchange itself sits behind the Transport interface so tests
// and callers can substitute a fake without touching package state.
package cloud
