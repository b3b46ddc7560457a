package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/colthorp/ziskej-cli-go/internal/auth"
	"github.com/colthorp/ziskej-cli-go/internal/core"
)

// Transport sends one HTTP request and returns the raw response. It does not
// interpret the status code; errors are connection-level only.
type Transport interface {
	Do(ctx context.Context, method, path string, header http.Header, body []byte) (*Response, error)
}

// RestyTransport is the production Transport.
type RestyTransport struct {
	client *resty.Client
	creds  auth.CredentialProvider
	log    *slog.Logger
}

// TransportOption customizes a RestyTransport.
type TransportOption func(*RestyTransport)

// WithCredentials attaches a bearer token from p to every request.
func WithCredentials(p auth.CredentialProvider) TransportOption {
	return func(t *RestyTransport) { t.creds = p }
}

// WithTimeout bounds each request, connection included.
func WithTimeout(d time.Duration) TransportOption {
	return func(t *RestyTransport) { t.client.SetTimeout(d) }
}

// WithLogger sets the logger that receives wire traffic at debug level.
func WithLogger(l *slog.Logger) TransportOption {
	return func(t *RestyTransport) { t.log = l }
}

// NewRestyTransport returns a transport rooted at baseURL.
func NewRestyTransport(baseURL string, opts ...TransportOption) *RestyTransport {
	t := &RestyTransport{
		client: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(core.DefaultTimeout).
			SetHeaders(map[string]string{
				"Accept":     "application/json",
				"User-Agent": userAgent(),
			}),
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func userAgent() string { return "ziskej-cli/" + core.Version }

// Do sends the request. The response body is streamed; the caller closes it.
func (t *RestyTransport) Do(ctx context.Context, method, path string, header http.Header, body []byte) (*Response, error) {
	requestID := uuid.NewString()
	req := t.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("X-Request-Id", requestID)
	for k, vs := range header {
		req.SetHeaderMultiValues(map[string][]string{k: vs})
	}
	if t.creds != nil {
		token, err := t.creds.Token(ctx)
		if err != nil {
			return nil, fmt.Errorf("acquire token: %w", err)
		}
		if token != "" {
			req.SetAuthToken(token)
		}
	}
	if body != nil {
		req.SetBody(body)
	}

	t.log.DebugContext(ctx, "ziskej request",
		"id", requestID,
		"method", method,
		"path", path,
		"body", core.Truncate(string(body), core.LogBodyMaxBytes))

	start := time.Now()
	resp, err := req.Execute(method, path)
	if err != nil {
		t.log.DebugContext(ctx, "ziskej request failed", "id", requestID, "error", err)
		return nil, err
	}

	out := &Response{
		StatusCode: resp.StatusCode(),
		Reason:     reasonPhrase(resp.Status(), resp.StatusCode()),
		Header:     resp.Header(),
		Body:       resp.RawBody(),
	}
	if t.log.Enabled(ctx, slog.LevelDebug) {
		return t.logResponse(ctx, requestID, out, time.Since(start))
	}
	return out, nil
}

// logResponse buffers the body so it can be logged and still handed back.
func (t *RestyTransport) logResponse(ctx context.Context, requestID string, resp *Response, took time.Duration) (*Response, error) {
	data, err := resp.Bytes()
	if err != nil {
		t.log.DebugContext(ctx, "ziskej response unreadable", "id", requestID, "status", resp.StatusCode, "error", err)
		return nil, err
	}
	t.log.DebugContext(ctx, "ziskej response",
		"id", requestID,
		"status", resp.StatusCode,
		"duration", took,
		"body", core.Truncate(string(data), core.LogBodyMaxBytes))
	return &Response{
		StatusCode: resp.StatusCode,
		Reason:     resp.Reason,
		Header:     resp.Header,
		Body:       io.NopCloser(bytes.NewReader(data)),
	}, nil
}
