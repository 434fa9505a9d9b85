// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package quickbase

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultHost is the public QuickBase endpoint.
const DefaultHost = "www.quickbase.com"

// DefaultTimeout bounds a single HTTP round trip.
const DefaultTimeout = 30 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 64 << 20

// Transport performs single round trips against the service.
// Implementations may call the real HTTP API or serve canned documents in tests.
type Transport interface {
	// Post sends an XML document to /db/<dbID> with the given API action header
	// and returns the raw response body.
	Post(ctx context.Context, dbID, action string, body []byte) ([]byte, error)
	// ClearFlags issues the QBI_ClearFlags action for dbID. The response body
	// carries nothing the caller checks.
	ClearFlags(ctx context.Context, dbID string) error
}

// HTTPTransport implements Transport over net/http.
type HTTPTransport struct {
	// baseURL is scheme + host, e.g. "https://www.quickbase.com"
	baseURL string
	client  *http.Client
}

// NewHTTPTransport creates a transport for baseURL. A nil client gets a
// default one with DefaultTimeout.
func NewHTTPTransport(baseURL string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// BaseURLForHost turns a bare host ("acme.quickbase.com") into an https base URL.
// Values that already carry a scheme are returned trimmed.
func BaseURLForHost(host string) string {
	host = strings.TrimSpace(host)
	if host == "" {
		host = DefaultHost
	}
	if strings.Contains(host, "://") {
		return strings.TrimRight(host, "/")
	}
	return "https://" + strings.TrimRight(host, "/")
}

func (t *HTTPTransport) dbURL(dbID string) string {
	return t.baseURL + "/db/" + url.PathEscape(dbID)
}

// Post sends body with Content-Type application/xml and QUICKBASE-ACTION: action.
func (t *HTTPTransport) Post(ctx context.Context, dbID, action string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.dbURL(dbID), bytes.NewReader(body))
	if err != nil {
		return nil, wrapError(TransportFailure, "build request", err)
	}
	req.Header.Set("Content-Type", "application/xml")
	req.Header.Set("QUICKBASE-ACTION", action)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, wrapError(TransportFailure, action+" request failed", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, wrapError(TransportFailure, "read "+action+" response", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(TransportFailure, fmt.Sprintf("%s failed: HTTP %d %s", action, resp.StatusCode, strings.TrimSpace(string(snippet(data)))))
	}
	return data, nil
}

// ClearFlags calls GET /db/<dbID>?act=QBI_ClearFlags. Only transport-level
// failures are reported; the body is drained and discarded.
func (t *HTTPTransport) ClearFlags(ctx context.Context, dbID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.dbURL(dbID)+"?act="+ActionClearFlags, nil)
	if err != nil {
		return wrapError(TransportFailure, "build request", err)
	}
	req.Header.Set("Content-Type", "application/xml")

	resp, err := t.client.Do(req)
	if err != nil {
		return wrapError(TransportFailure, ActionClearFlags+" request failed", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	return nil
}

// snippet keeps error messages short when a proxy answers with an HTML page.
func snippet(b []byte) []byte {
	if len(b) > 200 {
		return b[:200]
	}
	return b
}
