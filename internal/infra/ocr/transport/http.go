// Package transport performs single HTTP calls against the OCR API and the
// presigned storage URLs it hands out. It does not retry.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/ocrflow/internal/core/ocrerr"
	"github.com/vietddude/ocrflow/internal/infra/metrics"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultAuthHeader = "Authorization"
	defaultUserAgent  = "ocrflow/1.0"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 32 << 20
)

// Config holds the connection settings shared by every call.
type Config struct {
	BaseURL    string
	APIKey     string
	AuthHeader string // "Authorization" sends "Bearer <key>", any other header sends the raw key
	Timeout    time.Duration
	UserAgent  string
}

// Request describes one API call.
type Request struct {
	Name   string // operation label for logs and metrics
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// HTTPTransport executes API requests. It is immutable after construction
// and safe for concurrent use.
type HTTPTransport struct {
	baseURL    *url.URL
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

// Option customizes an HTTPTransport.
type Option func(*HTTPTransport)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *HTTPTransport) { t.httpClient = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *HTTPTransport) { t.log = l }
}

// New creates a transport for cfg.
func New(cfg Config, opts ...Option) (*HTTPTransport, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("transport: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("transport: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("transport: unsupported base url scheme %q", base.Scheme)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.AuthHeader == "" {
		cfg.AuthHeader = defaultAuthHeader
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}

	t := &HTTPTransport{
		baseURL: base,
		cfg:     cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		log: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// BaseURL returns the API root.
func (t *HTTPTransport) BaseURL() string {
	return t.baseURL.String()
}

// Do sends req and decodes a 2xx JSON body into out (which may be nil).
// Non-2xx responses become *ocrerr.Error of the matching kind, failures
// without a response become KindNetwork.
func (t *HTTPTransport) Do(ctx context.Context, req Request, out any) error {
	start := time.Now()
	requestID := uuid.NewString()

	var body io.Reader
	if req.Body != nil {
		jsonData, err := json.Marshal(req.Body)
		if err != nil {
			return localError(fmt.Sprintf("marshal %s request", req.Name), err)
		}
		body = bytes.NewReader(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, t.resolve(req.Path, req.Query), body)
	if err != nil {
		return localError(fmt.Sprintf("create %s request", req.Name), err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", t.cfg.UserAgent)
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	t.setAuth(httpReq.Header)

	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		t.record(req.Name, 0, start)
		t.log.Debug("Request failed", "operation", req.Name, "request_id", requestID, "error", err)
		return ocrerr.Network(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	t.record(req.Name, resp.StatusCode, start)
	if err != nil {
		return ocrerr.Network(fmt.Errorf("read %s response: %w", req.Name, err))
	}

	t.log.Debug("Request completed",
		"operation", req.Name,
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ocrerr.FromResponse(resp.StatusCode, resp.Header, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &ocrerr.Error{
			Kind:       ocrerr.KindAPI,
			Message:    fmt.Sprintf("decode %s response", req.Name),
			StatusCode: resp.StatusCode,
			Header:     resp.Header,
			Body:       respBody,
			Cause:      err,
		}
	}
	return nil
}

// Put uploads body to a presigned URL. No auth header is sent: the URL
// carries its own signature.
func (t *HTTPTransport) Put(ctx context.Context, target, contentType string, body []byte) (http.Header, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(body))
	if err != nil {
		return nil, localError("create upload request", err)
	}
	req.ContentLength = int64(len(body))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("User-Agent", t.cfg.UserAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.record("upload_part", 0, start)
		return nil, ocrerr.Network(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	t.record("upload_part", resp.StatusCode, start)
	if err != nil {
		return nil, ocrerr.Network(fmt.Errorf("read upload response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, ocrerr.FromResponse(resp.StatusCode, resp.Header, respBody)
	}
	return resp.Header, nil
}

// localError marks a request that could not be built. Sending it again
// would fail the same way.
func localError(message string, cause error) *ocrerr.Error {
	return &ocrerr.Error{Kind: ocrerr.KindLocalValidation, Message: message, Cause: cause}
}

// Close releases idle connections.
func (t *HTTPTransport) Close() error {
	t.httpClient.CloseIdleConnections()
	return nil
}

func (t *HTTPTransport) resolve(path string, query url.Values) string {
	u := *t.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

func (t *HTTPTransport) setAuth(h http.Header) {
	if t.cfg.APIKey == "" {
		return
	}
	if strings.EqualFold(t.cfg.AuthHeader, defaultAuthHeader) {
		h.Set(defaultAuthHeader, "Bearer "+t.cfg.APIKey)
		return
	}
	h.Set(t.cfg.AuthHeader, t.cfg.APIKey)
}

func (t *HTTPTransport) record(operation string, status int, start time.Time) {
	metrics.RequestsTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	metrics.RequestLatency.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
