package cloud

import (
	"crypto/md5" //nolint:gosec // legacy login endpoint requires an md5 digest
	"encoding/hex"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// App identity fields the cloud expects in every request envelope.
// These mirror the official mobile app; the API rejects requests
// without them.
const (
	appVersion     = "2.8.6"
	phoneBrand     = "SM N9005"
	phoneOS        = "Android"
	userType       = "1"
	acceptLanguage = "en"
	bypassSource   = "APP"
)

// Session is an authenticated VeSync cloud session.
//
// One Session exists per fleet manager. Re-login replaces the whole
// value atomically; individual fields are never mutated in place.
type Session struct {
	Token       string
	AccountID   string
	CountryCode string
	Region      string
	BizToken    string
}

// traceID returns a fresh per-request trace identifier.
func traceID() string {
	return uuid.NewString()
}

// timestamp returns the millisecond epoch string the envelope carries.
func timestamp() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// baseBody returns the common request envelope shared by every call.
// The terminal id identifies this installation across requests and is
// generated once per Client.
func (c *Client) baseBody(method string) map[string]any {
	return map[string]any{
		"method":         method,
		"acceptLanguage": acceptLanguage,
		"appVersion":     appVersion,
		"phoneBrand":     phoneBrand,
		"phoneOS":        phoneOS,
		"timeZone":       c.timezone,
		"traceId":        traceID(),
		"debugMode":      c.debug,
		"terminalId":     c.terminalID,
	}
}

// sessionBody returns the envelope extended with session credentials.
func (c *Client) sessionBody(sess *Session, method string) map[string]any {
	body := c.baseBody(method)
	body["token"] = sess.Token
	body["accountID"] = sess.AccountID
	return body
}

// sessionHeaders returns the HTTP headers authenticated endpoints expect
// alongside the body envelope.
func (c *Client) sessionHeaders(sess *Session) http.Header {
	h := http.Header{}
	h.Set("tk", sess.Token)
	h.Set("accountid", sess.AccountID)
	h.Set("tz", c.timezone)
	h.Set("accept-language", acceptLanguage)
	return h
}

// HashPassword returns the md5 hex digest the legacy login endpoint
// expects in place of the clear-text password.
func HashPassword(password string) string {
	sum := md5.Sum([]byte(password)) //nolint:gosec // vendor protocol, not our storage
	return hex.EncodeToString(sum[:])
}
