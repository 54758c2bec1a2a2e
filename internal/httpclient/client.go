// Package httpclient builds the pooled HTTP client shared by outbound
// provider calls.
package httpclient

import (
	"net"
	"net/http"
	"os"
	"strconv"
	"time"
)

// Defaults sized for synthesis calls: one request renders a few sentences of
// spoken text, so a one-minute budget is generous while still bounding a
// stalled provider.
const (
	defaultTimeout        = 60 * time.Second
	defaultHeaderTimeout  = 60 * time.Second
	defaultDialTimeout    = 10 * time.Second
	defaultIdleConns      = 100
	defaultIdleConnExpiry = 90 * time.Second
)

// Config holds the timeouts that matter for provider calls. Zero fields fall
// back to the package defaults.
type Config struct {
	// Timeout bounds the whole request, response body included.
	Timeout time.Duration

	// ResponseHeaderTimeout bounds the wait for the provider to start
	// answering after the request is written.
	ResponseHeaderTimeout time.Duration

	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration
}

// DefaultConfig returns the shipped timeouts, overridable via environment:
//   - HTTP_TIMEOUT: overall request timeout
//   - HTTP_RESPONSE_HEADER_TIMEOUT: wait for response headers
//
// Values are plain integer seconds or Go duration strings ("45s", "2m").
func DefaultConfig() Config {
	return Config{
		Timeout:               envDuration("HTTP_TIMEOUT", defaultTimeout),
		ResponseHeaderTimeout: envDuration("HTTP_RESPONSE_HEADER_TIMEOUT", defaultHeaderTimeout),
		DialTimeout:           defaultDialTimeout,
	}
}

// New creates a pooled HTTP client from cfg.
func New(cfg Config) *http.Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ResponseHeaderTimeout <= 0 {
		cfg.ResponseHeaderTimeout = defaultHeaderTimeout
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: cfg.DialTimeout}).DialContext,
		MaxIdleConns:          defaultIdleConns,
		MaxIdleConnsPerHost:   defaultIdleConns,
		IdleConnTimeout:       defaultIdleConnExpiry,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	}
}

// NewDefault creates a client with DefaultConfig.
func NewDefault() *http.Client {
	return New(DefaultConfig())
}

// envDuration reads a duration from the environment, accepting plain integer
// seconds or Go duration syntax. Unset or unparsable values keep the default.
func envDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	return fallback
}
