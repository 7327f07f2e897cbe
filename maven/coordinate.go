// Package maven resolves artifacts addressed by Maven coordinates against a
// local repository and an ordered set of remote repositories.
package maven

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"unicode"
)

// Scheme is the location scheme handled by the coordinate loader.
const Scheme = "maven"

// DefaultExtension is used when a coordinate does not name an extension.
const DefaultExtension = "jar"

const snapshotMarker = "SNAPSHOT"

// ErrMalformedCoordinate is returned when a coordinate string cannot be parsed.
var ErrMalformedCoordinate = errors.New("malformed coordinate")

// Coordinate identifies a single artifact. Two coordinates are equal if all
// fields are equal, which makes Coordinate usable as a map key.
type Coordinate struct {
	GroupID    string
	ArtifactID string
	Extension  string
	Classifier string
	Version    string
}

// ParseCoordinate parses one of
//
//	group:artifact:version
//	group:artifact:extension:version
//	group:artifact:extension:classifier:version
func ParseCoordinate(text string) (Coordinate, error) {
	segments := strings.Split(text, ":")
	for _, segment := range segments {
		if strings.IndexFunc(segment, unicode.IsSpace) >= 0 {
			return Coordinate{}, fmt.Errorf("%w: %q contains whitespace", ErrMalformedCoordinate, text)
		}
	}

	var c Coordinate
	switch len(segments) {
	case 3:
		c = Coordinate{GroupID: segments[0], ArtifactID: segments[1], Version: segments[2]}
	case 4:
		c = Coordinate{GroupID: segments[0], ArtifactID: segments[1], Extension: segments[2], Version: segments[3]}
	case 5:
		c = Coordinate{
			GroupID:    segments[0],
			ArtifactID: segments[1],
			Extension:  segments[2],
			Classifier: segments[3],
			Version:    segments[4],
		}
	default:
		return Coordinate{}, fmt.Errorf("%w: %q has %d segments, expected "+
			"<group>:<artifact>[:<extension>[:<classifier>]]:<version>", ErrMalformedCoordinate, text, len(segments))
	}

	if c.GroupID == "" || c.ArtifactID == "" || c.Version == "" {
		return Coordinate{}, fmt.Errorf("%w: %q requires a group, an artifact and a version", ErrMalformedCoordinate, text)
	}
	if c.Extension == "" {
		c.Extension = DefaultExtension
	}
	return c, nil
}

// MustParseCoordinate is like ParseCoordinate but panics on error.
// It is intended for tests and package level variables.
func MustParseCoordinate(text string) Coordinate {
	c, err := ParseCoordinate(text)
	if err != nil {
		panic(err)
	}
	return c
}

// String returns group:artifact:extension[:classifier]:version.
func (c Coordinate) String() string {
	var b strings.Builder
	b.WriteString(c.GroupID)
	b.WriteByte(':')
	b.WriteString(c.ArtifactID)
	b.WriteByte(':')
	b.WriteString(c.extension())
	if c.Classifier != "" {
		b.WriteByte(':')
		b.WriteString(c.Classifier)
	}
	b.WriteByte(':')
	b.WriteString(c.Version)
	return b.String()
}

// URI returns the canonical location of the coordinate.
func (c Coordinate) URI() string {
	return Scheme + ":" + c.String()
}

// Filename returns artifact-version[-classifier].extension.
func (c Coordinate) Filename() string {
	return c.filename(c.Version)
}

func (c Coordinate) filename(version string) string {
	name := c.ArtifactID + "-" + version
	if c.Classifier != "" {
		name += "-" + c.Classifier
	}
	return name + "." + c.extension()
}

// Dir returns the repository relative directory of the coordinate's version.
func (c Coordinate) Dir() string {
	return path.Join(c.artifactDir(), c.Version)
}

// Path returns the repository relative path of the artifact file.
func (c Coordinate) Path() string {
	return path.Join(c.Dir(), c.Filename())
}

func (c Coordinate) artifactDir() string {
	return path.Join(strings.ReplaceAll(c.GroupID, ".", "/"), c.ArtifactID)
}

// IsSnapshot reports whether the version belongs to the snapshot stability class.
func (c Coordinate) IsSnapshot() bool {
	return c.Version == snapshotMarker || strings.HasSuffix(c.Version, "-"+snapshotMarker)
}

// IsRange reports whether the version is a range expression such as "[1.0,2.0)".
func (c Coordinate) IsRange() bool {
	return strings.ContainsAny(c.Version, "[]()")
}

// WithVersion returns a copy of the coordinate with a different version.
func (c Coordinate) WithVersion(version string) Coordinate {
	c.Version = version
	return c
}

func (c Coordinate) extension() string {
	if c.Extension == "" {
		return DefaultExtension
	}
	return c.Extension
}
