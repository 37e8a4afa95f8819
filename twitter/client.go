package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"golang.org/x/time/rate"
)

const (
	DefaultHost       = "https://api.twitter.com/1.1"
	DefaultUploadHost = "https://upload.twitter.com/1.1"
)

type Client struct {
	// signing HTTP client, see Credentials.HTTPClient
	HTTPClient *http.Client
	// API prefix: scheme, hostname, port and version path, eg DefaultHost
	Host string
	// media upload prefix, eg DefaultUploadHost
	UploadHost string
	UserAgent  string
	// optional client-side pacing of all requests
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

// Validates the credentials and returns a client for the production API hosts. No request is
// made.
func Authenticate(creds Credentials) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		HTTPClient: creds.HTTPClient(),
		Host:       DefaultHost,
		UploadHost: DefaultUploadHost,
		UserAgent:  DefaultUserAgent(),
		Logger:     slog.Default().With("system", "twitter"),
	}, nil
}

func DefaultUserAgent() string {
	return "birdcall/" + versioninfo.Short()
}

// Returns a limiter allowing perSecond requests per second (with matching burst), or nil for
// perSecond <= 0.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (c *Client) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Full-power method for API requests. Non-2xx responses are returned as *APIError. If out is
// non-nil the JSON response body is decoded in to it.
func (c *Client) Do(ctx context.Context, req APIRequest, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return err
		}
	}

	host := c.Host
	if req.Upload {
		host = c.UploadHost
	}
	hdr := http.Header{}
	hdr.Set("Accept", "application/json")
	if c.UserAgent != "" {
		hdr.Set("User-Agent", c.UserAgent)
	} else {
		hdr.Set("User-Agent", DefaultUserAgent())
	}
	httpReq, err := req.HTTPRequest(ctx, host, hdr)
	if err != nil {
		return err
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	name := req.metricName()
	start := time.Now()
	resp, err := httpClient.Do(httpReq)
	apiRequestDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		apiRequestCount.WithLabelValues(name, "error").Inc()
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	apiRequestCount.WithLabelValues(name, strconv.Itoa(resp.StatusCode)).Inc()

	if !(resp.StatusCode >= 200 && resp.StatusCode < 300) {
		err := errorFromHTTPResponse(resp)
		c.logger().Debug("API request failed", "endpoint", req.Endpoint, "err", err)
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding %s response: %w", req.Endpoint, err)
		}
	}
	return nil
}
