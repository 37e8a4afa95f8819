package robusthttp

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type LeveledSlog struct {
	inner *slog.Logger
}

// re-writes HTTP client ERROR to WARN level (because of retries)
func (l LeveledSlog) Error(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Warn(msg string, keysAndValues ...any) {
	l.inner.Warn(msg, keysAndValues...)
}

func (l LeveledSlog) Info(msg string, keysAndValues ...any) {
	l.inner.Info(msg, keysAndValues...)
}

func (l LeveledSlog) Debug(msg string, keysAndValues ...any) {
	l.inner.Debug(msg, keysAndValues...)
}

type config struct {
	retry   *retryablehttp.Client
	timeout time.Duration
}

type Option func(*config)

// WithMaxRetries sets the maximum number of retries for the HTTP client.
func WithMaxRetries(maxRetries int) Option {
	return func(c *config) {
		c.retry.RetryMax = maxRetries
	}
}

// WithRetryWaitMin sets the minimum wait time between retries.
func WithRetryWaitMin(waitMin time.Duration) Option {
	return func(c *config) {
		c.retry.RetryWaitMin = waitMin
	}
}

// WithRetryWaitMax sets the maximum wait time between retries.
func WithRetryWaitMax(waitMax time.Duration) Option {
	return func(c *config) {
		c.retry.RetryWaitMax = waitMax
	}
}

// WithLogger sets a custom logger for the HTTP client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.retry.Logger = retryablehttp.LeveledLogger(LeveledSlog{inner: logger})
	}
}

// WithTransport sets a custom transport for the HTTP client. The transport is invoked once per
// attempt, so request signing done by the transport is redone on every retry.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *config) {
		c.retry.HTTPClient.Transport = transport
	}
}

// WithRetryPolicy sets a custom retry policy for the HTTP client.
func WithRetryPolicy(policy retryablehttp.CheckRetry) Option {
	return func(c *config) {
		c.retry.CheckRetry = policy
	}
}

// WithBackoff sets a custom backoff (wait between attempts) for the HTTP client.
func WithBackoff(backoff retryablehttp.Backoff) Option {
	return func(c *config) {
		c.retry.Backoff = backoff
	}
}

// WithTimeout sets the overall timeout for a request, including all retries. Zero means no
// timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.timeout = timeout
	}
}

// WaitOnRateLimit configures the client to retry `429 Too Many Requests` responses after the
// reset time advertised by the server, the way a long-running bot wants to. Because the wait can
// be many minutes, this also removes the overall request timeout.
func WaitOnRateLimit() Option {
	return func(c *config) {
		c.retry.CheckRetry = RateLimitRetryPolicy
		c.retry.Backoff = RateLimitBackoff
		c.timeout = 0
	}
}

// Generates an HTTP client with decent general-purpose defaults around
// timeouts and retries. The returned client has the stdlib http.Client
// interface, but has Hashicorp retryablehttp logic internally.
//
// This client will retry on connection errors, 5xx status (except 501).
// It will log intermediate failures with WARN level. This does not start from
// http.DefaultClient.
func NewClient(options ...Option) *http.Client {
	logger := LeveledSlog{inner: slog.Default().With("subsystem", "RobustHTTPClient")}
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Transport = otelhttp.NewTransport(cleanhttp.DefaultPooledTransport())
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = retryablehttp.LeveledLogger(logger)
	retryClient.CheckRetry = DefaultRetryPolicy

	cfg := &config{
		retry:   retryClient,
		timeout: 30 * time.Second,
	}
	for _, option := range options {
		option(cfg)
	}

	client := retryClient.StandardClient()
	client.Timeout = cfg.timeout
	return client
}

// Base transport used by NewClient: pooled connections with OpenTelemetry instrumentation.
// Useful as the inner transport of a signing RoundTripper passed back via WithTransport.
func DefaultTransport() http.RoundTripper {
	return otelhttp.NewTransport(cleanhttp.DefaultPooledTransport())
}

// For use in local integration tests. Short timeouts, no retries, etc
func TestingHTTPClient() *http.Client {
	return &http.Client{Timeout: 1 * time.Second}
}

// DefaultRetryPolicy is a custom wrapper around retryablehttp.DefaultRetryPolicy.
// It treats `429 Too Many Requests` as non-retryable, so the application can decide
// how to deal with rate-limiting.
func DefaultRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return false, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// RateLimitRetryPolicy retries `429 Too Many Requests` (paired with RateLimitBackoff), plus
// everything retryablehttp.DefaultRetryPolicy retries.
func RateLimitRetryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err == nil && resp.StatusCode == http.StatusTooManyRequests {
		return true, nil
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// header carrying the unix time (seconds) at which the current rate-limit window resets
const RateLimitResetHeader = "x-rate-limit-reset"

// upper bound on a single rate-limit wait, in case of a bogus reset header
var maxRateLimitWait = 16 * time.Minute

// RateLimitBackoff waits until the advertised rate-limit reset for 429 responses, and otherwise
// falls back to retryablehttp's exponential backoff.
func RateLimitBackoff(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if resp != nil && resp.StatusCode == http.StatusTooManyRequests {
		if wait, ok := rateLimitWait(resp, time.Now()); ok {
			return wait
		}
	}
	return retryablehttp.DefaultBackoff(min, max, attemptNum, resp)
}

func rateLimitWait(resp *http.Response, now time.Time) (time.Duration, bool) {
	raw := resp.Header.Get(RateLimitResetHeader)
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	wait := time.Unix(n, 0).Sub(now) + time.Second
	if wait < time.Second {
		wait = time.Second
	}
	if wait > maxRateLimitWait {
		wait = maxRateLimitWait
	}
	return wait, true
}
