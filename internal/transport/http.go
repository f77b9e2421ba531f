package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/harunnryd/apprentice/internal/errors"
)

const maxResponseBytes = 32 << 20

// HTTP posts payloads over net/http.
type HTTP struct {
	client *http.Client
}

// NewHTTP builds a transport without an overall request timeout; model calls
// may run for as long as the vendor needs.
func NewHTTP() *HTTP {
	dialer := &net.Dialer{
		Timeout:   15 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &HTTP{client: &http.Client{Transport: transport}}
}

// NewHTTPWithClient wraps an existing client.
func NewHTTPWithClient(client *http.Client) *HTTP {
	return &HTTP{client: client}
}

func (h *HTTP) Send(ctx context.Context, endpoint string, payload any, headers, query map[string]string) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Internal(fmt.Sprintf("failed to encode request: %v", err))
	}

	target, err := withQuery(endpoint, query)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Transport(fmt.Sprintf("failed to build request: %v", err))
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := h.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, apperrors.WrapWithCategory(ctx.Err(), "request aborted", apperrors.ErrInterrupted)
		}
		return nil, apperrors.Transport(fmt.Sprintf("request failed: %v", err))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, apperrors.Transport(fmt.Sprintf("failed to read response, status %s: %v", resp.Status, err))
	}

	slog.Debug("Model endpoint replied", "status", resp.StatusCode, "bytes", len(raw), "duration", time.Since(start))

	if !json.Valid(raw) {
		return nil, apperrors.Transport(fmt.Sprintf("response is not JSON, status %s", resp.Status))
	}
	return json.RawMessage(raw), nil
}

func withQuery(endpoint string, query map[string]string) (string, error) {
	if len(query) == 0 {
		return endpoint, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", apperrors.Transport(fmt.Sprintf("invalid endpoint %q: %v", endpoint, err))
	}
	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
