package resource

import (
	"errors"
	"fmt"
)

// ErrUnsupportedScheme is matched by every UnsupportedSchemeError.
var ErrUnsupportedScheme = errors.New("unsupported scheme")

// ErrNotMaterializable is returned by resources whose content has no local file
// representation, such as container image references.
var ErrNotMaterializable = errors.New("resource cannot be materialized as a local file")

// ErrInvalidURI is returned for locations that are not absolute URIs.
var ErrInvalidURI = errors.New("invalid uri")

// UnsupportedSchemeError is returned when no loader is registered for the
// scheme of a location.
type UnsupportedSchemeError struct {
	Scheme   string
	Location string
}

func (e *UnsupportedSchemeError) Error() string {
	if e.Scheme == "" {
		return fmt.Sprintf("unsupported scheme: location %q has no scheme", e.Location)
	}
	return fmt.Sprintf("unsupported scheme %q in location %q", e.Scheme, e.Location)
}

func (e *UnsupportedSchemeError) Is(target error) bool {
	return target == ErrUnsupportedScheme
}
