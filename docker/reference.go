package docker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/opencontainers/go-digest"
	"oras.land/oras-go/v2/errdef"
	oras "oras.land/oras-go/v2/registry"
)

// DefaultRegistry is the registry of references without a registry component.
const DefaultRegistry = "docker.io"

// dockerHubHost is the host serving the registry API of DefaultRegistry.
const dockerHubHost = "registry-1.docker.io"

// tagRegexp checks the tag name.
// The docker and OCI spec have the same regular expression.
//
// Reference: https://github.com/opencontainers/distribution-spec/blob/v1.1.0/spec.md#pulling-manifests
var tagRegexp = regexp.MustCompile(`^[\w][\w.-]{0,127}$`)

// Reference is an image reference as understood by docker: the registry is
// optional, and both a tag and a digest may be present.
type Reference struct {
	oras.Reference
	Tag string
}

// ParseReference parses an image reference of the forms
//
//	[registry/]repository
//	[registry/]repository:tag
//	[registry/]repository@digest
//	[registry/]repository:tag@digest
//
// As with docker, the first path component is only a registry if it contains
// a "." or a ":" or is "localhost". Otherwise the reference names a
// repository on DefaultRegistry.
func ParseReference(raw string) (Reference, error) {
	if raw == "" {
		return Reference{}, fmt.Errorf("%w: empty reference", errdef.ErrInvalidReference)
	}

	var registry, path string
	if first, rest, ok := strings.Cut(raw, "/"); ok && isRegistry(first) {
		registry, path = first, rest
	} else {
		path = raw
	}

	var repository, reference, tag string
	if index := strings.Index(path, "@"); index != -1 {
		repository = path[:index]
		reference = path[index+1:]
		if jindex := strings.Index(repository, ":"); jindex != -1 {
			if strings.LastIndex(repository, ":") != jindex {
				return Reference{}, fmt.Errorf("%w: %q", errdef.ErrInvalidReference, raw)
			}
			tag = repository[jindex+1:]
			repository = repository[:jindex]
		}
	} else if index = strings.Index(path, ":"); index != -1 {
		if strings.LastIndex(path, ":") != index {
			return Reference{}, fmt.Errorf("%w: %q", errdef.ErrInvalidReference, raw)
		}
		repository = path[:index]
		tag = path[index+1:]
		reference = tag
	} else {
		repository = path
	}

	ref := Reference{
		Reference: oras.Reference{
			Registry:   registry,
			Repository: repository,
			Reference:  reference,
		},
		Tag: tag,
	}
	if err := ref.validate(); err != nil {
		return Reference{}, fmt.Errorf("invalid image reference %q: %w", raw, err)
	}
	return ref, nil
}

func isRegistry(component string) bool {
	return strings.ContainsAny(component, ".:") || component == "localhost"
}

func (r Reference) validate() error {
	if r.Registry != "" {
		if err := r.ValidateRegistry(); err != nil {
			return err
		}
	}
	if err := r.ValidateRepository(); err != nil {
		return err
	}
	if r.Reference.Reference != "" {
		if err := r.ValidateReference(); err != nil {
			return err
		}
	}
	if r.Tag != "" && !tagRegexp.MatchString(r.Tag) {
		return fmt.Errorf("%w: invalid tag %q", errdef.ErrInvalidReference, r.Tag)
	}
	return nil
}

// String returns the reference in the form it was parsed from.
func (r Reference) String() string {
	var b strings.Builder
	if r.Registry != "" {
		b.WriteString(r.Registry)
		b.WriteByte('/')
	}
	b.WriteString(r.Repository)
	if r.Tag != "" {
		b.WriteByte(':')
		b.WriteString(r.Tag)
	}
	if r.Digest() != "" {
		b.WriteByte('@')
		b.WriteString(r.Reference.Reference)
	}
	return b.String()
}

// Digest returns the digest of the reference, if it has one.
func (r Reference) Digest() digest.Digest {
	d, err := digest.Parse(r.Reference.Reference)
	if err != nil {
		return ""
	}
	return d
}

// Normalized returns the fully qualified reference used to contact the
// registry: the default registry and its "library/" namespace are filled in,
// and a reference without tag or digest points at "latest".
func (r Reference) Normalized() oras.Reference {
	ref := r.Reference
	if ref.Registry == "" || ref.Registry == DefaultRegistry || ref.Registry == "index.docker.io" {
		ref.Registry = dockerHubHost
		if !strings.Contains(ref.Repository, "/") {
			ref.Repository = "library/" + ref.Repository
		}
	}
	if ref.Reference == "" {
		ref.Reference = "latest"
	}
	return ref
}
