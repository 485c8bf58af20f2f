package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

// fakeTransport records calls and replays canned responses.
type fakeTransport struct {
	calls     []fakeCall
	responses []fakeResponse
}

type fakeCall struct {
	URL    string
	Method string
	Body   map[string]any
}

type fakeResponse struct {
	body   string
	status int
	err    error
}

func (f *fakeTransport) CallAPI(_ context.Context, url, method string, body any, _ http.Header) (json.RawMessage, int, error) {
	var decoded map[string]any
	if body != nil {
		data, _ := json.Marshal(body)
		_ = json.Unmarshal(data, &decoded)
	}
	f.calls = append(f.calls, fakeCall{URL: url, Method: method, Body: decoded})

	if len(f.responses) == 0 {
		return json.RawMessage(`{"code":0,"msg":"ok","result":{}}`), http.StatusOK, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	if resp.err != nil {
		return nil, 0, resp.err
	}
	return json.RawMessage(resp.body), resp.status, nil
}

func (f *fakeTransport) queue(body string) {
	f.responses = append(f.responses, fakeResponse{body: body, status: http.StatusOK})
}

func newTestClient(ft *fakeTransport) *Client {
	return NewClient(Config{Timezone: "America/New_York"}, ft)
}

func testSession() *Session {
	return &Session{
		Token:       "tok-123",
		AccountID:   "acct-456",
		CountryCode: "US",
		Region:      RegionUS,
	}
}

func TestEndpointFor(t *testing.T) {
	tests := []struct {
		region string
		want   string
	}{
		{"US", EndpointUS},
		{"EU", EndpointEU},
		{"eu", EndpointEU},
		{"", EndpointUS},
		{"XX", EndpointUS},
	}
	for _, tt := range tests {
		if got := EndpointFor(tt.region); got != tt.want {
			t.Errorf("EndpointFor(%q) = %q, want %q", tt.region, got, tt.want)
		}
	}
}

func TestPostUnwrapsResult(t *testing.T) {
	ft := &fakeTransport{}
	ft.queue(`{"code":0,"msg":"ok","result":{"value":42}}`)
	c := newTestClient(ft)

	result, err := c.Post(context.Background(), RegionUS, "/test", c.NewEnvelope("test"), nil)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	var parsed struct {
		Value int `json:"value"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil || parsed.Value != 42 {
		t.Errorf("result = %s, want value 42", result)
	}

	if ft.calls[0].URL != EndpointUS+"/test" {
		t.Errorf("URL = %q", ft.calls[0].URL)
	}
}

func TestPostSemanticFailureOn200(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"cross region", `{"code":-11260022,"msg":"cross region"}`, ErrCrossRegion},
		{"wrong password", `{"code":-11201022,"msg":"password error"}`, ErrAuthRejected},
		{"token expired", `{"code":-11012022,"msg":"token expired"}`, ErrAuthRejected},
		{"rate limited", `{"code":-11003000,"msg":"frequent"}`, ErrRateLimited},
		{"device offline", `{"code":-11300027,"msg":"offline"}`, ErrDeviceOffline},
		{"mode unsupported", `{"code":-11260007,"msg":"not in this mode"}`, ErrUnsupported},
		{"pending confirm", `{"code":11000000,"msg":"general error"}`, ErrPendingConfirm},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := &fakeTransport{}
			ft.queue(tt.body)
			c := newTestClient(ft)

			_, err := c.Post(context.Background(), RegionUS, "/test", nil, nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("Post() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestPostUnknownCodeBecomesAPIError(t *testing.T) {
	ft := &fakeTransport{}
	ft.queue(`{"code":-999,"msg":"mystery"}`)
	c := newTestClient(ft)

	_, err := c.Post(context.Background(), RegionUS, "/test", nil, nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Post() error = %v, want *APIError", err)
	}
	if apiErr.Code != -999 || apiErr.Msg != "mystery" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestPostTransportFault(t *testing.T) {
	ft := &fakeTransport{responses: []fakeResponse{{err: ErrTransport}}}
	c := newTestClient(ft)

	_, err := c.Post(context.Background(), RegionUS, "/test", nil, nil)
	if !errors.Is(err, ErrTransport) {
		t.Errorf("Post() error = %v, want ErrTransport", err)
	}
}

func TestPostUndecodableBody(t *testing.T) {
	ft := &fakeTransport{responses: []fakeResponse{{body: "<html>bad gateway</html>", status: http.StatusBadGateway}}}
	c := newTestClient(ft)

	_, err := c.Post(context.Background(), RegionUS, "/test", nil, nil)
	if !errors.Is(err, ErrTransport) {
		t.Errorf("Post() error = %v, want ErrTransport", err)
	}
}

func TestEnvelopeFields(t *testing.T) {
	ft := &fakeTransport{}
	c := newTestClient(ft)

	body := c.SessionEnvelope(testSession(), "deviceDetail")
	for _, key := range []string{"traceId", "terminalId", "timeZone", "token", "accountID", "appVersion", "phoneBrand", "phoneOS"} {
		if _, ok := body[key]; !ok {
			t.Errorf("envelope missing %q", key)
		}
	}
	if body["method"] != "deviceDetail" {
		t.Errorf("method = %v", body["method"])
	}
	if body["timeZone"] != "America/New_York" {
		t.Errorf("timeZone = %v", body["timeZone"])
	}
}

func TestEnvelopeTraceIDChangesPerRequest(t *testing.T) {
	c := newTestClient(&fakeTransport{})
	a := c.NewEnvelope("x")["traceId"]
	b := c.NewEnvelope("x")["traceId"]
	if a == b {
		t.Error("traceId should differ between envelopes")
	}
	// The terminal id identifies the install and must be stable.
	if c.NewEnvelope("x")["terminalId"] != c.NewEnvelope("x")["terminalId"] {
		t.Error("terminalId should be stable across envelopes")
	}
}

func TestBypassV2DoubleUnwrap(t *testing.T) {
	ft := &fakeTransport{}
	ft.queue(`{"code":0,"msg":"ok","result":{"code":0,"msg":"ok","result":{"enabled":true,"level":3}}}`)
	c := newTestClient(ft)

	result, err := c.BypassV2(context.Background(), testSession(), "cid-1", "cfg-1", "getPurifierStatus", map[string]any{})
	if err != nil {
		t.Fatalf("BypassV2() error = %v", err)
	}

	var parsed struct {
		Enabled bool `json:"enabled"`
		Level   int  `json:"level"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil || !parsed.Enabled || parsed.Level != 3 {
		t.Errorf("inner result = %s", result)
	}

	call := ft.calls[0]
	if call.Body["cid"] != "cid-1" || call.Body["configModule"] != "cfg-1" {
		t.Errorf("bypass body missing device identity: %+v", call.Body)
	}
	payload, ok := call.Body["payload"].(map[string]any)
	if !ok || payload["method"] != "getPurifierStatus" || payload["source"] != "APP" {
		t.Errorf("bypass payload = %+v", call.Body["payload"])
	}
}

func TestBypassV2InnerFailure(t *testing.T) {
	ft := &fakeTransport{}
	ft.queue(`{"code":0,"msg":"ok","result":{"code":11000000,"msg":"general error"}}`)
	c := newTestClient(ft)

	_, err := c.BypassV2(context.Background(), testSession(), "cid-1", "cfg-1", "setChildLock", nil)
	if !errors.Is(err, ErrPendingConfirm) {
		t.Errorf("BypassV2() error = %v, want ErrPendingConfirm", err)
	}
}

func TestDeviceCallMergesExtra(t *testing.T) {
	ft := &fakeTransport{}
	ft.queue(`{"code":0,"msg":"ok","result":null}`)
	c := newTestClient(ft)

	_, err := c.DeviceCall(context.Background(), testSession(), "/10a/v1/device/devicestatus", "devicestatus", map[string]any{
		"uuid":   "uuid-1",
		"status": "on",
	})
	if err != nil {
		t.Fatalf("DeviceCall() error = %v", err)
	}

	body := ft.calls[0].Body
	if body["uuid"] != "uuid-1" || body["status"] != "on" {
		t.Errorf("extra fields not merged: %+v", body)
	}
	if body["token"] != "tok-123" {
		t.Errorf("session fields missing: %+v", body)
	}
}

func TestHashPassword(t *testing.T) {
	// md5("test") is a fixed, well-known digest.
	if got := HashPassword("test"); got != "098f6bcd4621d373cade4e832627b4f6" {
		t.Errorf("HashPassword = %q", got)
	}
}
