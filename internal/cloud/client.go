package cloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Regional API endpoints. The endpoint is an independent axis from the
// account's country code: an account with an AU country code may still
// live on the US endpoint.
const (
	EndpointUS = "https://smartapi.vesync.com"
	EndpointEU = "https://smartapi.vesync.eu"

	RegionUS = "US"
	RegionEU = "EU"
)

// PathBypassV2 is the shared endpoint for second-generation device commands.
const PathBypassV2 = "/cloud/v2/deviceManaged/bypassV2"

// EndpointFor returns the base URL for a region. Unknown regions fall
// back to the US endpoint.
func EndpointFor(region string) string {
	if strings.EqualFold(region, RegionEU) {
		return EndpointEU
	}
	return EndpointUS
}

// Config carries the client settings the envelope layer needs.
type Config struct {
	Timezone string
	Debug    bool
}

// Client assembles request envelopes, performs calls through a Transport,
// and unwraps response envelopes into results and sentinel errors.
//
// Client is stateless apart from the per-install terminal id; sessions
// are passed in per call so the authentication negotiator can probe
// multiple regions with one client.
type Client struct {
	transport  Transport
	timezone   string
	debug      bool
	terminalID string
}

// NewClient creates a cloud client. A nil transport gets the production
// HTTP transport.
func NewClient(cfg Config, transport Transport) *Client {
	if transport == nil {
		transport = NewHTTPTransport()
	}
	return &Client{
		transport:  transport,
		timezone:   cfg.Timezone,
		debug:      cfg.Debug,
		terminalID: strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
}

// Timezone returns the time zone string sent in request envelopes.
func (c *Client) Timezone() string {
	return c.timezone
}

// envelope is the outer JSON response wrapper.
type envelope struct {
	Code   int64           `json:"code"`
	Msg    string          `json:"msg"`
	Result json.RawMessage `json:"result"`
}

// Post issues a request against the given region and unwraps the outer
// response envelope. It returns the result payload (which may be nil for
// acknowledgement-only endpoints) or an error from the package taxonomy.
func (c *Client) Post(ctx context.Context, region, path string, body map[string]any, headers http.Header) (json.RawMessage, error) {
	url := EndpointFor(region) + path

	raw, status, err := c.transport.CallAPI(ctx, url, http.MethodPost, body, headers)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: http %d: undecodable response", ErrTransport, status)
	}

	// A non-zero envelope code is a semantic failure even on HTTP 200.
	if err := codeToError(env.Code, env.Msg); err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: http status %d", ErrTransport, status)
	}

	if len(env.Result) == 0 {
		return raw, nil
	}
	return env.Result, nil
}

// NewEnvelope returns a request body carrying only the common envelope
// fields. Used by the authentication negotiator before a session exists.
func (c *Client) NewEnvelope(method string) map[string]any {
	return c.baseBody(method)
}

// SessionEnvelope returns a request body carrying the common envelope
// plus session credentials.
func (c *Client) SessionEnvelope(sess *Session, method string) map[string]any {
	return c.sessionBody(sess, method)
}

// BypassV2 issues a v2 bypass command for one device and unwraps both
// envelope levels. data is the method-specific payload.data object.
func (c *Client) BypassV2(ctx context.Context, sess *Session, cid, configModule, method string, data map[string]any) (json.RawMessage, error) {
	body := c.sessionBody(sess, "bypassV2")
	body["cid"] = cid
	body["configModule"] = configModule
	body["deviceRegion"] = sess.Region
	body["userCountryCode"] = sess.CountryCode
	body["payload"] = map[string]any{
		"method": method,
		"source": bypassSource,
		"data":   data,
	}

	outer, err := c.Post(ctx, sess.Region, PathBypassV2, body, c.sessionHeaders(sess))
	if err != nil {
		return nil, err
	}

	// Bypass responses nest a second envelope inside result.
	var inner envelope
	if err := json.Unmarshal(outer, &inner); err != nil {
		// Some bypass methods return the payload directly.
		return outer, nil
	}
	if err := codeToError(inner.Code, inner.Msg); err != nil {
		return nil, err
	}
	if len(inner.Result) == 0 {
		return outer, nil
	}
	return inner.Result, nil
}

// DeviceCall issues a first-generation per-category device request. The
// session envelope is merged with the endpoint-specific fields in extra;
// extra values win on key collision.
func (c *Client) DeviceCall(ctx context.Context, sess *Session, path, method string, extra map[string]any) (json.RawMessage, error) {
	body := c.sessionBody(sess, method)
	for k, v := range extra {
		body[k] = v
	}
	return c.Post(ctx, sess.Region, path, body, c.sessionHeaders(sess))
}
