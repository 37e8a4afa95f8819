package twitter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/lukehollenback/birdcall/pkg/robusthttp"

	"github.com/dghubble/oauth1"
)

var ErrMissingCredentials = errors.New("missing twitter credentials")

// Environment variables holding the OAuth 1.0a credentials.
const (
	EnvConsumerKey    = "TWITTER_CONSUMER_KEY"
	EnvConsumerSecret = "TWITTER_CONSUMER_SECRET"
	EnvAccessToken    = "TWITTER_ACCESS_TOKEN"
	EnvAccessSecret   = "TWITTER_ACCESS_SECRET"
)

// OAuth 1.0a user-context credentials: the app's consumer key pair, and the access token pair of
// the account being driven.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

func CredentialsFromEnv() Credentials {
	return Credentials{
		ConsumerKey:    os.Getenv(EnvConsumerKey),
		ConsumerSecret: os.Getenv(EnvConsumerSecret),
		AccessToken:    os.Getenv(EnvAccessToken),
		AccessSecret:   os.Getenv(EnvAccessSecret),
	}
}

// Checks that all four secrets are present. The error names the missing environment variables
// (never the values).
func (c Credentials) Validate() error {
	var missing []string
	if c.ConsumerKey == "" {
		missing = append(missing, EnvConsumerKey)
	}
	if c.ConsumerSecret == "" {
		missing = append(missing, EnvConsumerSecret)
	}
	if c.AccessToken == "" {
		missing = append(missing, EnvAccessToken)
	}
	if c.AccessSecret == "" {
		missing = append(missing, EnvAccessSecret)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingCredentials, strings.Join(missing, ", "))
	}
	return nil
}

// Returns an HTTP client which signs every attempt (including retries) with these credentials.
// Extra robusthttp options are applied after the defaults.
func (c Credentials) HTTPClient(options ...robusthttp.Option) *http.Client {
	cfg := oauth1.NewConfig(c.ConsumerKey, c.ConsumerSecret)
	token := oauth1.NewToken(c.AccessToken, c.AccessSecret)
	base := &http.Client{Transport: robusthttp.DefaultTransport()}
	signed := cfg.Client(context.WithValue(context.Background(), oauth1.HTTPClient, base), token)

	opts := []robusthttp.Option{
		robusthttp.WithTransport(signed.Transport),
		robusthttp.WaitOnRateLimit(),
	}
	return robusthttp.NewClient(append(opts, options...)...)
}
