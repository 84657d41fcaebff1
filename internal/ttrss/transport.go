package ttrss

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const maxResponseBytes = 16 << 20

// Transport performs exactly one exchange with the server. It does not retry
// and does not interpret Response.Status.
type Transport interface {
	Execute(ctx context.Context, env Envelope) (Response, error)
}

type HTTPTransport struct {
	endpoint  string
	userAgent string
	client    *http.Client
}

type TransportOptions struct {
	Timeout   time.Duration
	UserAgent string
	Client    *http.Client
}

func NewHTTPTransport(endpoint string, opts TransportOptions) *HTTPTransport {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:   true,
				MaxIdleConns:        4,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	return &HTTPTransport{
		endpoint:  NormalizeEndpoint(endpoint),
		userAgent: opts.UserAgent,
		client:    client,
	}
}

func (t *HTTPTransport) Execute(ctx context.Context, env Envelope) (Response, error) {
	payload, err := json.Marshal(env)
	if err != nil {
		return Response{}, &TransportError{Op: env.Op, Err: fmt.Errorf("encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Response{}, &TransportError{Op: env.Op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return Response{}, &TransportError{Op: env.Op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Response{}, &TransportError{Op: env.Op, Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, &TransportError{Op: env.Op, Err: fmt.Errorf("http %d", resp.StatusCode)}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return Response{}, &TransportError{Op: env.Op, Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Status != StatusOK && out.Status != StatusErr {
		return Response{}, &TransportError{Op: env.Op, Err: fmt.Errorf("unexpected status %d", out.Status)}
	}
	return out, nil
}

// NormalizeEndpoint turns an installation URL into the API URL:
// "https://host/tt-rss" and "https://host/tt-rss/" both become
// "https://host/tt-rss/api/".
func NormalizeEndpoint(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return s
	}
	if strings.HasSuffix(s, ".php") {
		return s
	}
	s = strings.TrimRight(s, "/")
	if !strings.HasSuffix(s, "/api") {
		s += "/api"
	}
	return s + "/"
}
