// Package file provides a flag holding a path to an optional regular file.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/pflag"

	"ocm.software/open-component-model/artifact/cli/internal/flags"
)

const Type = "path"

// Flag is a path flag. Setting it to an existing path that is not a regular
// file fails; a path that does not exist is accepted and reported by Exists.
type Flag struct {
	path   string
	exists bool
}

func (f *Flag) String() string {
	return f.path
}

func (f *Flag) Exists() bool {
	return f.exists
}

func (f *Flag) Set(s string) error {
	f.path = s
	f.exists = false
	info, err := os.Stat(s)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("unable to stat path %q: %w", s, err)
	case info.IsDir():
		return fmt.Errorf("path %q is a directory", s)
	case !info.Mode().IsRegular():
		return fmt.Errorf("path %q is not a regular file", s)
	}
	f.exists = true
	return nil
}

func (f *Flag) Type() string {
	return Type
}

func Var(f *pflag.FlagSet, name string, value string, usage string) {
	f.Var(&Flag{path: value}, name, usage)
}

func VarP(f *pflag.FlagSet, name, shorthand string, value string, usage string) {
	f.VarP(&Flag{path: value}, name, shorthand, usage)
}

// Get returns the flag name if it was set on the command line.
func Get(f *pflag.FlagSet, name string) (*Flag, bool, error) {
	flag, err := flags.Get(f, name, Type, func(string) (*Flag, error) {
		return f.Lookup(name).Value.(*Flag), nil
	})
	if err != nil {
		return nil, false, err
	}
	return flag, f.Changed(name), nil
}
