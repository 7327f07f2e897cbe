// Package test runs the artifact command tree in tests.
package test

import (
	"io"
	"testing"

	"github.com/spf13/cobra"

	"ocm.software/open-component-model/artifact/cli/cmd"
)

type options struct {
	args   []string
	out    io.Writer
	errOut io.Writer
}

type Option func(*options)

func WithArgs(args ...string) Option {
	return func(o *options) {
		o.args = args
	}
}

func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

func WithErrorOutput(w io.Writer) Option {
	return func(o *options) {
		o.errOut = w
	}
}

// Artifact executes the artifact command tree with the given options. Output
// that is not redirected is discarded.
func Artifact(t *testing.T, opts ...Option) (*cobra.Command, error) {
	t.Helper()
	o := &options{out: io.Discard, errOut: io.Discard}
	for _, opt := range opts {
		opt(o)
	}
	root := cmd.New()
	root.SetArgs(o.args)
	root.SetOut(o.out)
	root.SetErr(o.errOut)
	root.SetContext(t.Context())
	return root, cmd.Run(root)
}
