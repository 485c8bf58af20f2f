package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/nerrad567/vesync-core/internal/cloud"
	"github.com/nerrad567/vesync-core/internal/infrastructure/config"
	"github.com/nerrad567/vesync-core/internal/infrastructure/logging"
)

// scriptedTransport answers each request through a handler function and
// records every call for assertions.
type scriptedTransport struct {
	calls   []scriptedCall
	handler func(url string, body map[string]any) (string, error)
}

type scriptedCall struct {
	URL  string
	Body map[string]any
}

func (s *scriptedTransport) CallAPI(_ context.Context, url, _ string, body any, _ http.Header) (json.RawMessage, int, error) {
	var decoded map[string]any
	if body != nil {
		data, _ := json.Marshal(body)
		_ = json.Unmarshal(data, &decoded)
	}
	s.calls = append(s.calls, scriptedCall{URL: url, Body: decoded})

	resp, err := s.handler(url, decoded)
	if err != nil {
		return nil, 0, err
	}
	return json.RawMessage(resp), http.StatusOK, nil
}

func quietLogger() *logging.Logger {
	return logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stderr"}, "test", true)
}

func newNegotiator(creds Credentials, st *scriptedTransport) *Negotiator {
	client := cloud.NewClient(cloud.Config{Timezone: "America/New_York"}, st)
	return NewNegotiator(client, creds, quietLogger())
}

const (
	step1OK  = `{"code":0,"msg":"ok","result":{"authorizeCode":"authz-1"}}`
	step2OK  = `{"code":0,"msg":"ok","result":{"token":"tok-1","accountID":"acct-1","countryCode":"US","currentRegion":"US"}}`
	legacyOK = `{"code":0,"msg":"ok","result":{"token":"tok-legacy","accountID":"acct-legacy","countryCode":"US"}}`

	crossRegion   = `{"code":-11260022,"msg":"cross region error"}`
	wrongPassword = `{"code":-11201022,"msg":"password incorrect"}`
	protocolError = `{"code":-11000086,"msg":"app version not supported"}`
)

func TestLoginTwoStepFirstCandidate(t *testing.T) {
	st := &scriptedTransport{handler: func(url string, _ map[string]any) (string, error) {
		switch {
		case strings.Contains(url, pathAuthByPWD):
			return step1OK, nil
		case strings.Contains(url, pathLoginByAuthCode):
			return step2OK, nil
		}
		t.Fatalf("unexpected url %q", url)
		return "", nil
	}}

	n := newNegotiator(Credentials{Username: "user@example.com", Password: "secret"}, st)
	sess, err := n.Login(context.Background())
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if sess.Token != "tok-1" || sess.AccountID != "acct-1" || sess.Region != "US" {
		t.Errorf("session = %+v", sess)
	}

	if len(st.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(st.calls))
	}
	if !strings.HasPrefix(st.calls[0].URL, cloud.EndpointUS) {
		t.Errorf("first attempt URL = %q, want US endpoint", st.calls[0].URL)
	}
	if st.calls[0].Body["userCountryCode"] != "US" {
		t.Errorf("step one country code = %v", st.calls[0].Body["userCountryCode"])
	}
	if st.calls[1].Body["authorizeCode"] != "authz-1" {
		t.Errorf("step two body = %+v", st.calls[1].Body)
	}
}

func TestLoginCountryCodeOverrideTriedFirst(t *testing.T) {
	// The account only authenticates with an AU country code; the
	// defaults are rejected as cross-region. The declared override must
	// be attempted before any default.
	st := &scriptedTransport{handler: func(url string, body map[string]any) (string, error) {
		if body["userCountryCode"] != "AU" && strings.Contains(url, pathAuthByPWD) {
			return crossRegion, nil
		}
		switch {
		case strings.Contains(url, pathAuthByPWD):
			return step1OK, nil
		case strings.Contains(url, pathLoginByAuthCode):
			return `{"code":0,"msg":"ok","result":{"token":"tok-au","accountID":"acct-au","countryCode":"AU"}}`, nil
		}
		return "", errors.New("unexpected url")
	}}

	n := newNegotiator(Credentials{Username: "u", Password: "p", Region: "US", CountryCode: "AU"}, st)
	sess, err := n.Login(context.Background())
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if sess.CountryCode != "AU" {
		t.Errorf("country code = %q, want AU", sess.CountryCode)
	}
	if st.calls[0].Body["userCountryCode"] != "AU" {
		t.Errorf("first attempt country code = %v, want declared override", st.calls[0].Body["userCountryCode"])
	}
	if sess.Region != "US" {
		t.Errorf("region = %q, want US", sess.Region)
	}
}

func TestLoginLegacyFallback(t *testing.T) {
	st := &scriptedTransport{handler: func(url string, _ map[string]any) (string, error) {
		switch {
		case strings.Contains(url, pathAuthByPWD):
			return protocolError, nil
		case strings.Contains(url, pathLegacyLogin):
			return legacyOK, nil
		}
		return "", errors.New("unexpected url")
	}}

	n := newNegotiator(Credentials{Username: "u", Password: "p", Region: "US"}, st)
	sess, err := n.Login(context.Background())
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if sess.Token != "tok-legacy" {
		t.Errorf("token = %q, want legacy session", sess.Token)
	}

	// The legacy body carries the md5 digest, never the clear password.
	var legacyBody map[string]any
	for _, call := range st.calls {
		if strings.Contains(call.URL, pathLegacyLogin) {
			legacyBody = call.Body
			break
		}
	}
	if legacyBody == nil {
		t.Fatal("legacy login endpoint never called")
	}
	if legacyBody["password"] != cloud.HashPassword("p") {
		t.Errorf("legacy password = %v, want md5 digest", legacyBody["password"])
	}
}

func TestLoginCredentialRejection(t *testing.T) {
	st := &scriptedTransport{handler: func(string, map[string]any) (string, error) {
		return wrongPassword, nil
	}}

	n := newNegotiator(Credentials{Username: "u", Password: "wrong"}, st)
	_, err := n.Login(context.Background())
	if !errors.Is(err, ErrAuthFailed) {
		t.Errorf("Login() error = %v, want ErrAuthFailed", err)
	}
	if errors.Is(err, cloud.ErrTransport) {
		t.Error("credential rejection must not look like a transport fault")
	}
}

func TestLoginTransportFaultAborts(t *testing.T) {
	st := &scriptedTransport{handler: func(string, map[string]any) (string, error) {
		return "", cloud.ErrTransport
	}}

	n := newNegotiator(Credentials{Username: "u", Password: "p"}, st)
	_, err := n.Login(context.Background())
	if !errors.Is(err, cloud.ErrTransport) {
		t.Errorf("Login() error = %v, want ErrTransport", err)
	}
	if errors.Is(err, ErrAuthFailed) {
		t.Error("transport fault must not be reported as a credential failure")
	}
	if len(st.calls) != 1 {
		t.Errorf("calls = %d, want search aborted after first fault", len(st.calls))
	}
}

func TestLoginMissingCredentials(t *testing.T) {
	n := newNegotiator(Credentials{}, &scriptedTransport{handler: func(string, map[string]any) (string, error) {
		return "", errors.New("should not be called")
	}})
	_, err := n.Login(context.Background())
	if !errors.Is(err, ErrMissingCredentials) {
		t.Errorf("Login() error = %v, want ErrMissingCredentials", err)
	}
}

func TestCandidateOrdering(t *testing.T) {
	tests := []struct {
		name  string
		creds Credentials
		want  []candidate
	}{
		{
			name:  "no overrides",
			creds: Credentials{},
			want: []candidate{
				{"US", "US"},
				{"EU", "DE"},
			},
		},
		{
			name:  "eu region with country override",
			creds: Credentials{Region: "EU", CountryCode: "GB"},
			want: []candidate{
				{"EU", "GB"},
				{"EU", "DE"},
				{"US", "GB"},
				{"US", "US"},
			},
		},
		{
			name:  "override matching the default deduplicates",
			creds: Credentials{Region: "US", CountryCode: "US"},
			want: []candidate{
				{"US", "US"},
				{"EU", "US"},
				{"EU", "DE"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := newNegotiator(tt.creds, &scriptedTransport{})
			got := n.candidates()
			if len(got) != len(tt.want) {
				t.Fatalf("candidates = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("candidate[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLoginMasksTokenInLogs(t *testing.T) {
	const token = "tok-supersecret-1"
	st := &scriptedTransport{handler: func(url string, _ map[string]any) (string, error) {
		switch {
		case strings.Contains(url, pathAuthByPWD):
			return step1OK, nil
		case strings.Contains(url, pathLoginByAuthCode):
			return `{"code":0,"msg":"ok","result":{"token":"` + token + `","accountID":"acct-1","countryCode":"US"}}`, nil
		}
		return "", errors.New("unexpected url")
	}}

	// Plain handler without the redact mode; masking must happen at the
	// call site, not depend on logger configuration.
	var buf bytes.Buffer
	log := &logging.Logger{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	client := cloud.NewClient(cloud.Config{Timezone: "America/New_York"}, st)
	n := NewNegotiator(client, Credentials{Username: "u", Password: "p"}, log)
	if _, err := n.Login(context.Background()); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	out := buf.String()
	if strings.Contains(out, token) {
		t.Error("raw session token leaked into log output")
	}
	if !strings.Contains(out, logging.Mask(token)) {
		t.Error("authenticated log line should carry the masked token")
	}
}

func TestLoginIdempotentRelogin(t *testing.T) {
	tokens := []string{"tok-a", "tok-b"}
	st := &scriptedTransport{}
	st.handler = func(url string, _ map[string]any) (string, error) {
		switch {
		case strings.Contains(url, pathAuthByPWD):
			return step1OK, nil
		case strings.Contains(url, pathLoginByAuthCode):
			tok := tokens[0]
			if len(tokens) > 1 {
				tokens = tokens[1:]
			}
			return `{"code":0,"msg":"ok","result":{"token":"` + tok + `","accountID":"acct-1","countryCode":"US"}}`, nil
		}
		return "", errors.New("unexpected url")
	}

	n := newNegotiator(Credentials{Username: "u", Password: "p"}, st)
	first, err := n.Login(context.Background())
	if err != nil {
		t.Fatalf("first Login() error = %v", err)
	}
	second, err := n.Login(context.Background())
	if err != nil {
		t.Fatalf("second Login() error = %v", err)
	}
	if first.Token == second.Token {
		t.Error("re-login should produce a fresh session, not reuse the old token")
	}
}
