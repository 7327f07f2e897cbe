// Package context carries the components set up for a command invocation
// through its context.Context.
package context

import (
	"context"
	"errors"
	"io"

	"github.com/prometheus/client_golang/prometheus"

	v1 "ocm.software/open-component-model/artifact/config/v1"
	"ocm.software/open-component-model/artifact/httpclient"
	"ocm.software/open-component-model/artifact/maven"
	"ocm.software/open-component-model/artifact/metrics"
	"ocm.software/open-component-model/artifact/resource"
)

type contextKey struct{}

// Context holds the configuration and components of a command invocation.
// Values are replaced copy-on-write so contexts derived earlier keep their view.
type Context struct {
	configuration *v1.Config
	httpConfig    *httpclient.Config
	loader        *resource.Delegating
	resolver      *maven.Resolver
	gatherer      prometheus.Gatherer
	metrics       *metrics.Metrics
	closers       []io.Closer
}

// FromContext returns the Context stored in ctx or nil.
func FromContext(ctx context.Context) *Context {
	if ctx == nil {
		return nil
	}
	c, _ := ctx.Value(contextKey{}).(*Context)
	return c
}

func update(ctx context.Context, fn func(c *Context)) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	var c Context
	if existing := FromContext(ctx); existing != nil {
		c = *existing
	}
	fn(&c)
	return context.WithValue(ctx, contextKey{}, &c)
}

// Register ensures a Context is attached to the context of cmd.
func Register(rw ReaderWriter) {
	if FromContext(rw.Context()) == nil {
		rw.SetContext(update(rw.Context(), func(*Context) {}))
	}
}

func WithConfiguration(ctx context.Context, cfg *v1.Config) context.Context {
	return update(ctx, func(c *Context) { c.configuration = cfg })
}

func WithHTTPConfig(ctx context.Context, cfg *httpclient.Config) context.Context {
	return update(ctx, func(c *Context) { c.httpConfig = cfg })
}

func WithLoader(ctx context.Context, loader *resource.Delegating) context.Context {
	return update(ctx, func(c *Context) { c.loader = loader })
}

func WithResolver(ctx context.Context, resolver *maven.Resolver) context.Context {
	return update(ctx, func(c *Context) { c.resolver = resolver })
}

// WithMetrics stores the metrics and the gatherer they are registered with.
func WithMetrics(ctx context.Context, gatherer prometheus.Gatherer, m *metrics.Metrics) context.Context {
	return update(ctx, func(c *Context) {
		c.gatherer = gatherer
		c.metrics = m
	})
}

// WithCloser registers a closer released by Close.
func WithCloser(ctx context.Context, closer io.Closer) context.Context {
	return update(ctx, func(c *Context) {
		c.closers = append(c.closers[:len(c.closers):len(c.closers)], closer)
	})
}

func (c *Context) Configuration() *v1.Config {
	if c == nil || c.configuration == nil {
		return &v1.Config{}
	}
	return c.configuration
}

func (c *Context) HTTPConfig() *httpclient.Config {
	if c == nil {
		return nil
	}
	return c.httpConfig
}

func (c *Context) Loader() *resource.Delegating {
	if c == nil {
		return nil
	}
	return c.loader
}

func (c *Context) Resolver() *maven.Resolver {
	if c == nil {
		return nil
	}
	return c.resolver
}

func (c *Context) Metrics() *metrics.Metrics {
	if c == nil {
		return nil
	}
	return c.metrics
}

func (c *Context) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Close releases registered closers in reverse order.
func (c *Context) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i].Close())
	}
	return errors.Join(errs...)
}
