package apiclient

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/influencehub/marketplace/internal/pkg/config"
)

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithBaseURL sets the API base URL. Defaults to config.DefaultBaseURL.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = base
	}
}

// WithVersion sets the optional version path segment placed between the base
// URL and every endpoint.
func WithVersion(version string) Option {
	return func(c *Client) {
		c.version = version
	}
}

// WithHTTPClient sets a custom http.Client for making requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout bounds every request whose context carries no deadline.
// Zero disables the default deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRateLimit throttles outgoing requests to r per second with the given burst.
func WithRateLimit(r float64, burst int) Option {
	return func(c *Client) {
		if r <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithLogger sets the logger used for per-exchange debug entries.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// WithToken attaches an initial bearer token.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithUserAgent sets the User-Agent header on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// FromConfig translates the client configuration into options.
func FromConfig(cfg config.APIConfig) []Option {
	return []Option{
		WithBaseURL(cfg.BaseURL),
		WithVersion(cfg.Version),
		WithTimeout(cfg.Timeout),
		WithRateLimit(cfg.RateLimit, cfg.RateBurst),
	}
}
