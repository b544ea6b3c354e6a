// Package httpclient provides the retrying HTTP client used to talk to the
// biodiversity data provider.
package httpclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/jcu-ap03/birdsync/internal/domain"
)

const (
	// DefaultTimeout is the default timeout for buffered requests and for
	// receiving response headers on streamed ones
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed buffered response size (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "birdsync/1.0"
)

// Client issues requests against the provider, retrying every failure
// according to its RetryPolicy.
type Client interface {
	// Fetch performs a request and returns the whole response body.
	Fetch(ctx context.Context, method, endpoint string, params url.Values) ([]byte, error)

	// FetchJSON performs a request and parses the body as JSON. A structurally
	// empty document fails with domain.EmptyResponseError unless AllowEmpty is
	// passed. The second return value is the body size in bytes.
	FetchJSON(ctx context.Context, method, endpoint string, params url.Values, opts ...FetchOption) (gjson.Result, int, error)

	// FetchStream performs a request and hands the open body to the caller.
	// Only the request and response headers are retried.
	FetchStream(ctx context.Context, method, endpoint string, params url.Values) (io.ReadCloser, error)
}

// RetryObserver is told about every failed attempt that will be retried.
type RetryObserver func(ctx context.Context, endpoint string, attempt int, err error, delay time.Duration)

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *DefaultClient) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithRetryPolicy sets the retry policy
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *DefaultClient) {
		c.policy = policy
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(requestsPerSecond float64) Option {
	return func(c *DefaultClient) {
		if requestsPerSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithRetryObserver registers a callback for retried failures
func WithRetryObserver(observer RetryObserver) Option {
	return func(c *DefaultClient) {
		c.observer = observer
	}
}

// WithTransport overrides the HTTP transport, mainly for tests
func WithTransport(transport http.RoundTripper) Option {
	return func(c *DefaultClient) {
		c.transport = transport
	}
}

// FetchOption tunes a single FetchJSON call
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	allowEmpty bool
}

// AllowEmpty accepts an empty JSON document as a valid answer.
func AllowEmpty() FetchOption {
	return func(o *fetchOptions) {
		o.allowEmpty = true
	}
}

// DefaultClient is the default Client implementation
type DefaultClient struct {
	client       *http.Client
	streamClient *http.Client
	transport    http.RoundTripper
	timeout      time.Duration
	policy       RetryPolicy
	limiter      *rate.Limiter
	observer     RetryObserver
}

var _ Client = (*DefaultClient)(nil)

// NewClient creates a client. An invalid retry policy fails here with a
// domain.ConfigurationError, before any request is made.
func NewClient(opts ...Option) (*DefaultClient, error) {
	c := &DefaultClient{
		timeout: DefaultTimeout,
		policy:  DefaultRetryPolicy(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if err := c.policy.Validate(); err != nil {
		return nil, err
	}

	transport := c.transport
	if transport == nil {
		base := http.DefaultTransport.(*http.Transport).Clone()
		base.ResponseHeaderTimeout = c.timeout
		transport = base
	}

	c.client = &http.Client{Transport: transport, Timeout: c.timeout}
	// Streamed bodies may take far longer than the timeout to drain.
	c.streamClient = &http.Client{Transport: transport}

	return c, nil
}

// Policy returns the retry policy in use
func (c *DefaultClient) Policy() RetryPolicy {
	return c.policy
}

// Fetch performs a request and returns the body
func (c *DefaultClient) Fetch(ctx context.Context, method, endpoint string, params url.Values) ([]byte, error) {
	return retryFetch(ctx, c, endpoint, func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, method, endpoint, params)
	})
}

// FetchJSON performs a request and parses the JSON body
func (c *DefaultClient) FetchJSON(
	ctx context.Context, method, endpoint string, params url.Values, opts ...FetchOption,
) (gjson.Result, int, error) {
	o := &fetchOptions{}
	for _, opt := range opts {
		opt(o)
	}

	type parsed struct {
		doc  gjson.Result
		size int
	}

	res, err := retryFetch(ctx, c, endpoint, func(ctx context.Context) (parsed, error) {
		body, err := c.do(ctx, method, endpoint, params)
		if err != nil {
			return parsed{}, err
		}
		if !gjson.ValidBytes(body) {
			return parsed{}, fmt.Errorf("invalid JSON response from %s", endpoint)
		}
		doc := gjson.ParseBytes(body)
		if !o.allowEmpty && isEmptyDocument(doc) {
			return parsed{}, &domain.EmptyResponseError{URL: endpoint}
		}
		return parsed{doc: doc, size: len(body)}, nil
	})
	if err != nil {
		return gjson.Result{}, 0, err
	}
	return res.doc, res.size, nil
}

// FetchStream performs a request and returns the open response body
func (c *DefaultClient) FetchStream(ctx context.Context, method, endpoint string, params url.Values) (io.ReadCloser, error) {
	return retryFetch(ctx, c, endpoint, func(ctx context.Context) (io.ReadCloser, error) {
		resp, err := c.send(ctx, c.streamClient, method, endpoint, params)
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	})
}

func retryFetch[T any](ctx context.Context, c *DefaultClient, endpoint string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	res, err := Retry(ctx, c.policy, op, func(attempt int, err error, delay time.Duration) {
		slog.WarnContext(ctx, "Fetch failed, retrying",
			"url", endpoint,
			"attempt", attempt,
			"delay", delay,
			"error", err)
		if c.observer != nil {
			c.observer(ctx, endpoint, attempt, err, delay)
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return zero, err
		}
		return zero, &domain.TransientNetworkError{URL: endpoint, Attempts: c.policy.Attempts, Err: err}
	}
	return res, nil
}

func (c *DefaultClient) do(ctx context.Context, method, endpoint string, params url.Values) ([]byte, error) {
	resp, err := c.send(ctx, c.client, method, endpoint, params)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.ContentLength > MaxResponseSize {
		return nil, fmt.Errorf("response size %d bytes exceeds maximum allowed size of %d bytes (%.2f MB)",
			resp.ContentLength, MaxResponseSize, float64(MaxResponseSize)/(1024*1024))
	}

	// +1 to detect if limit exceeded
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response size exceeds maximum allowed size of %d bytes (%.2f MB)",
			MaxResponseSize, float64(MaxResponseSize)/(1024*1024))
	}

	return body, nil
}

// send issues one request. The caller owns the body of a successful response.
func (c *DefaultClient) send(
	ctx context.Context, client *http.Client, method, endpoint string, params url.Values,
) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := newRequest(ctx, method, endpoint, params)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, NewHTTPError(resp.StatusCode, endpoint, resp.Status)
	}

	return resp, nil
}

// newRequest encodes params into the query string for GET and into a form
// body for everything else.
func newRequest(ctx context.Context, method, endpoint string, params url.Values) (*http.Request, error) {
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(params) > 0 {
		if method == http.MethodGet {
			u, err := url.Parse(endpoint)
			if err != nil {
				return nil, fmt.Errorf("failed to parse URL %s: %w", endpoint, err)
			}
			q := u.Query()
			for k, vs := range params {
				for _, v := range vs {
					q.Add(k, v)
				}
			}
			u.RawQuery = q.Encode()
			endpoint = u.String()
		} else {
			body = strings.NewReader(params.Encode())
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	return req, nil
}

func isEmptyDocument(doc gjson.Result) bool {
	switch {
	case doc.Type == gjson.Null:
		return true
	case doc.IsArray():
		return len(doc.Array()) == 0
	case doc.IsObject():
		return len(doc.Map()) == 0
	case doc.Type == gjson.String:
		return doc.Str == ""
	default:
		return false
	}
}
