package context

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	v1 "ocm.software/open-component-model/artifact/config/v1"
	"ocm.software/open-component-model/artifact/httpclient"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestCopyOnWrite(t *testing.T) {
	r := require.New(t)
	cfg := &v1.Config{Docker: &v1.Docker{PlainHTTP: true}}

	base := WithConfiguration(context.Background(), cfg)
	derived := WithHTTPConfig(base, httpclient.DefaultConfig())

	r.Same(cfg, FromContext(base).Configuration())
	r.Nil(FromContext(base).HTTPConfig())
	r.Same(cfg, FromContext(derived).Configuration())
	r.NotNil(FromContext(derived).HTTPConfig())
}

func TestNilContext(t *testing.T) {
	r := require.New(t)
	var c *Context
	r.Equal(&v1.Config{}, c.Configuration())
	r.Nil(c.Loader())
	r.Nil(c.Resolver())
	r.Nil(c.Metrics())
	r.NoError(c.Close())
	r.Nil(FromContext(context.Background()))
}

func TestCloseOrder(t *testing.T) {
	r := require.New(t)
	var order []string
	ctx := WithCloser(context.Background(), closerFunc(func() error {
		order = append(order, "first")
		return nil
	}))
	ctx = WithCloser(ctx, closerFunc(func() error {
		order = append(order, "second")
		return errors.New("boom")
	}))

	err := FromContext(ctx).Close()
	r.ErrorContains(err, "boom")
	r.Equal([]string{"second", "first"}, order)
}
