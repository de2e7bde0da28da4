package client

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// TokenSource supplies the session token for authenticated calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken always returns tok.
func StaticToken(tok string) TokenSource {
	return TokenFunc(func(context.Context) (string, error) { return tok, nil })
}

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	httpClient *http.Client
	timeout    time.Duration
	tokens     TokenSource
	userAgent  string
	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) { c.httpClient = hc })
}

// WithTimeout bounds every request. Default: 20s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) { c.timeout = d })
}

// WithTokenSource sets where authenticated calls read the token from.
func WithTokenSource(ts TokenSource) Option {
	return optionFunc(func(c *clientConfig) { c.tokens = ts })
}

func WithUserAgent(ua string) Option {
	return optionFunc(func(c *clientConfig) { c.userAgent = ua })
}

// WithLogger enables structured logging of every call.
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) { c.logger = l })
}

// WithPrometheus registers call counters and latency histograms on reg.
// Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) { c.metricsReg = reg })
}
