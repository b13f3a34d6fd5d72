package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vietddude/ocrflow/internal/core/validate"
	"github.com/vietddude/ocrflow/internal/infra/metrics"
	"github.com/vietddude/ocrflow/internal/infra/ocr/retry"
	"github.com/vietddude/ocrflow/internal/infra/ocr/transport"
	"github.com/vietddude/ocrflow/internal/infra/ocr/upload"
)

const (
	DefaultPollInterval = 2 * time.Second
	DefaultMaxWait      = 5 * time.Minute
	DefaultPageLimit    = 50
	MaxPageLimit        = 100
)

// Transport performs single, non-retried calls.
type Transport interface {
	Do(ctx context.Context, req transport.Request, out any) error
	Put(ctx context.Context, url, contentType string, body []byte) (http.Header, error)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	AuthHeader string
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client

	// Retry is the policy for every API call. Nil selects
	// retry.DefaultPolicy; MaxRetries 0 disables retries.
	Retry        *retry.Policy
	PollInterval time.Duration
	MaxWait      time.Duration
	Limits       validate.Limits

	// RetryParts wraps each presigned part PUT in the retry policy.
	// Off by default: a failed part fails the upload.
	RetryParts bool

	Logger *slog.Logger
}

// Client is the high-level interface to the OCR service.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	transport    Transport
	retry        retry.Policy
	pollInterval time.Duration
	maxWait      time.Duration
	limits       validate.Limits
	retryParts   bool
	log          *slog.Logger
}

// NewClient creates a client talking HTTP to opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	topts := []transport.Option{}
	if opts.HTTPClient != nil {
		topts = append(topts, transport.WithHTTPClient(opts.HTTPClient))
	}
	if opts.Logger != nil {
		topts = append(topts, transport.WithLogger(opts.Logger))
	}

	t, err := transport.New(transport.Config{
		BaseURL:    opts.BaseURL,
		APIKey:     opts.APIKey,
		AuthHeader: opts.AuthHeader,
		Timeout:    opts.Timeout,
		UserAgent:  opts.UserAgent,
	}, topts...)
	if err != nil {
		return nil, fmt.Errorf("create transport: %w", err)
	}
	return NewClientWithTransport(t, opts), nil
}

// NewClientWithTransport creates a client over an existing transport.
// Connection fields of opts are ignored.
func NewClientWithTransport(t Transport, opts Options) *Client {
	c := &Client{
		transport:    t,
		pollInterval: opts.PollInterval,
		maxWait:      opts.MaxWait,
		limits:       opts.Limits,
		retryParts:   opts.RetryParts,
		log:          opts.Logger,
	}
	c.retry = retry.DefaultPolicy
	if opts.Retry != nil {
		c.retry = *opts.Retry
	}
	if c.retry.Multiplier <= 1 {
		c.retry.Multiplier = retry.DefaultPolicy.Multiplier
	}
	if c.pollInterval <= 0 {
		c.pollInterval = DefaultPollInterval
	}
	if c.maxWait <= 0 {
		c.maxWait = DefaultMaxWait
	}
	if c.limits.MaxFileSize <= 0 {
		c.limits.MaxFileSize = validate.DefaultMaxFileSize
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// policy returns the retry policy for one operation, with logging and
// metrics layered over any caller-supplied OnRetry.
func (c *Client) policy(operation string) retry.Policy {
	p := c.retry
	user := p.OnRetry
	p.OnRetry = func(attempt int, err error) {
		metrics.RetriesTotal.WithLabelValues(operation).Inc()
		c.log.Warn("Retrying request", "operation", operation, "attempt", attempt, "error", err)
		if user != nil {
			user(attempt, err)
		}
	}
	return p
}

// call executes req under the retry policy and decodes the response into T.
func call[T any](ctx context.Context, c *Client, req transport.Request) (T, error) {
	return retry.Execute(ctx, c.policy(req.Name), func(ctx context.Context) (T, error) {
		var out T
		err := c.transport.Do(ctx, req, &out)
		return out, err
	})
}

// storage returns the part writer used by the upload orchestrator.
func (c *Client) storage() upload.Storage {
	if !c.retryParts {
		return c.transport
	}
	return upload.StorageFunc(func(ctx context.Context, url, contentType string, body []byte) (http.Header, error) {
		return retry.Execute(ctx, c.policy("upload_part"), func(ctx context.Context) (http.Header, error) {
			return c.transport.Put(ctx, url, contentType, body)
		})
	})
}
