// Package httpclient builds the HTTP clients used by the remote loaders.
package httpclient

import (
	"fmt"
	"net"
	"net/http"

	"oras.land/oras-go/v2/registry/remote/retry"
)

const defaultUserAgent = "artifact-resolver"

// Options holds configuration for creating an HTTP client.
type Options struct {
	config    *Config
	proxy     *Proxy
	userAgent string
	base      http.RoundTripper
}

// Option is a functional option for New.
type Option func(*Options)

// WithConfig sets the transport configuration (timeouts, user agent).
func WithConfig(cfg *Config) Option {
	return func(o *Options) {
		o.config = cfg
	}
}

// WithProxy routes requests through the given proxy.
func WithProxy(proxy *Proxy) Option {
	return func(o *Options) {
		o.proxy = proxy
	}
}

// WithUserAgent sets the User-Agent header for HTTP requests.
func WithUserAgent(userAgent string) Option {
	return func(o *Options) {
		o.userAgent = userAgent
	}
}

// WithBaseTransport replaces the transport requests are sent with.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *Options) {
		o.base = rt
	}
}

// userAgentTransport wraps an http.RoundTripper and injects a User-Agent header.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}

// New creates a new HTTP client with the given options applied.
// Requests are not retried unless the configuration enables it.
func New(opts ...Option) (*http.Client, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	cfg := Merge(DefaultConfig(), options.config)

	baseTransport := options.base
	if baseTransport == nil {
		proxy, err := options.proxy.ProxyFunc()
		if err != nil {
			return nil, fmt.Errorf("failed to configure proxy: %w", err)
		}
		baseTransport = &http.Transport{
			Proxy: proxy,
			DialContext: (&net.Dialer{
				Timeout:   cfg.TCPDialTimeout.Value(),
				KeepAlive: cfg.TCPKeepAlive.Value(),
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          100,
			TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout.Value(),
			ResponseHeaderTimeout: cfg.ResponseHeaderTimeout.Value(),
			IdleConnTimeout:       cfg.IdleConnTimeout.Value(),
		}
	}
	if cfg.Retry {
		baseTransport = retry.NewTransport(baseTransport)
	}

	userAgent := defaultUserAgent
	if cfg.UserAgent != "" {
		userAgent = cfg.UserAgent
	}
	if options.userAgent != "" {
		userAgent = options.userAgent
	}

	return &http.Client{
		Transport: &userAgentTransport{
			base:      baseTransport,
			userAgent: userAgent,
		},
		Timeout: cfg.Timeout.Value(),
	}, nil
}
