package maven

import (
	"cmp"
	"fmt"
	"slices"

	"deps.dev/util/semver"
)

// versionMatcher selects versions for a coordinate's version expression.
type versionMatcher func(version string) bool

// newVersionMatcher returns a matcher for a range in interval notation such as
// "[1.0,2.0)". A version that is not a range only matches itself.
func newVersionMatcher(c Coordinate) (versionMatcher, error) {
	if !c.IsRange() {
		return func(v string) bool { return v == c.Version }, nil
	}
	constraint, err := semver.Maven.ParseConstraint(c.Version)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid version range %q: %w", ErrMalformedCoordinate, c.Version, err)
	}
	return func(v string) bool {
		parsed, err := semver.Maven.Parse(v)
		if err != nil {
			return false
		}
		return constraint.MatchVersion(parsed)
	}, nil
}

// sortVersions sorts versions ascending in Maven order and removes duplicates.
func sortVersions(versions []string) []string {
	slices.SortFunc(versions, compareVersions)
	return slices.CompactFunc(versions, func(a, b string) bool {
		return a == b
	})
}

func compareVersions(a, b string) int {
	va, errA := semver.Maven.Parse(a)
	vb, errB := semver.Maven.Parse(b)
	switch {
	case errA != nil && errB != nil:
		return cmp.Compare(a, b)
	case errA != nil:
		return -1
	case errB != nil:
		return 1
	}
	if c := va.Compare(vb); c != 0 {
		return c
	}
	return cmp.Compare(a, b)
}

