// Package flags contains helpers for custom pflag values.
package flags

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Get looks up the flag name, checks that it is of type ftype and converts its
// string value with convFunc.
func Get[T any](f *pflag.FlagSet, name string, ftype string, convFunc func(sval string) (T, error)) (T, error) {
	flag := f.Lookup(name)
	if flag == nil {
		return *new(T), fmt.Errorf("flag accessed but not defined: %s", name)
	}

	if flag.Value.Type() != ftype {
		return *new(T), fmt.Errorf("trying to get %s value of flag of type %s", ftype, flag.Value.Type())
	}

	return convFunc(flag.Value.String())
}
