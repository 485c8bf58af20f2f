package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultTimeout is the HTTP request timeout for cloud calls.
const defaultTimeout = 15 * time.Second

// Transport performs a single HTTP exchange against the cloud API.
//
// Implementations must not interpret the response body; envelope
// unwrapping and code mapping happen in Client. Substituting a fake
// Transport is the supported way to test command flows without a
// network.
type Transport interface {
	CallAPI(ctx context.Context, url, method string, body any, headers http.Header) (json.RawMessage, int, error)
}

// HTTPTransport is the production Transport backed by net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a Transport with the default timeout.
func NewHTTPTransport() *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{Timeout: defaultTimeout},
	}
}

// CallAPI implements Transport.
func (t *HTTPTransport) CallAPI(ctx context.Context, url, method string, body any, headers http.Header) (json.RawMessage, int, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: marshalling request: %w", ErrTransport, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: building request: %w", ErrTransport, err)
	}

	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("User-Agent", "vesync-core")
	for key, values := range headers {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: reading response: %w", ErrTransport, err)
	}

	return respBody, resp.StatusCode, nil
}
