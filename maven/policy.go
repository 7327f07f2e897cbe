package maven

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// UpdatePolicy controls how often cached repository metadata is refreshed.
// Valid values are "always", "daily", "never" and "interval:N" where N is a
// number of minutes.
type UpdatePolicy string

const (
	UpdatePolicyAlways   UpdatePolicy = "always"
	UpdatePolicyDaily    UpdatePolicy = "daily"
	UpdatePolicyNever    UpdatePolicy = "never"
	UpdatePolicyInterval UpdatePolicy = "interval"
)

// defaultUpdateInterval applies to "interval" without an explicit number of minutes.
const defaultUpdateInterval = time.Hour

// UpdatePolicyEvery returns an interval policy of the given duration,
// rounded down to whole minutes.
func UpdatePolicyEvery(d time.Duration) UpdatePolicy {
	return UpdatePolicy(fmt.Sprintf("%s:%d", UpdatePolicyInterval, int(d/time.Minute)))
}

// Validate returns an error if the policy is not one of the recognized values.
// The empty policy is valid and means "inherit".
func (p UpdatePolicy) Validate() error {
	_, err := p.interval()
	return err
}

func (p UpdatePolicy) interval() (time.Duration, error) {
	switch p {
	case "", UpdatePolicyAlways, UpdatePolicyDaily, UpdatePolicyNever, UpdatePolicyInterval:
		return defaultUpdateInterval, nil
	}
	minutes, ok := strings.CutPrefix(string(p), string(UpdatePolicyInterval)+":")
	if !ok {
		return 0, fmt.Errorf("unknown update policy %q", p)
	}
	n, err := strconv.Atoi(minutes)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid update policy %q: interval must be a non-negative number of minutes", p)
	}
	return time.Duration(n) * time.Minute, nil
}

// IsStale reports whether data last updated at lastUpdated must be refreshed at now.
func (p UpdatePolicy) IsStale(lastUpdated, now time.Time) bool {
	if lastUpdated.IsZero() {
		return true
	}
	switch p {
	case UpdatePolicyAlways:
		return true
	case UpdatePolicyNever:
		return false
	case UpdatePolicyDaily, "":
		y, m, d := now.Date()
		midnight := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
		return lastUpdated.Before(midnight)
	default:
		interval, err := p.interval()
		if err != nil {
			return true
		}
		return !lastUpdated.Add(interval).After(now)
	}
}

// ChecksumPolicy controls what happens when checksum verification fails.
type ChecksumPolicy string

const (
	// ChecksumPolicyFail rejects the artifact from the repository, resolution
	// continues with the next repository.
	ChecksumPolicyFail ChecksumPolicy = "fail"
	// ChecksumPolicyWarn logs the mismatch and accepts the artifact.
	ChecksumPolicyWarn ChecksumPolicy = "warn"
	// ChecksumPolicyIgnore skips verification.
	ChecksumPolicyIgnore ChecksumPolicy = "ignore"
)

// Validate returns an error if the policy is not one of the recognized values.
// The empty policy is valid and means "inherit".
func (p ChecksumPolicy) Validate() error {
	switch p {
	case "", ChecksumPolicyFail, ChecksumPolicyWarn, ChecksumPolicyIgnore:
		return nil
	default:
		return fmt.Errorf("unknown checksum policy %q", p)
	}
}

// RepositoryPolicy is the configured policy of a repository for a stability
// class. Unset fields inherit from the next less specific policy.
type RepositoryPolicy struct {
	Enabled        *bool          `json:"enabled,omitempty"`
	UpdatePolicy   UpdatePolicy   `json:"updatePolicy,omitempty"`
	ChecksumPolicy ChecksumPolicy `json:"checksumPolicy,omitempty"`
}

// Validate checks the update and checksum policy values.
func (p *RepositoryPolicy) Validate() error {
	if p == nil {
		return nil
	}
	if err := p.UpdatePolicy.Validate(); err != nil {
		return err
	}
	return p.ChecksumPolicy.Validate()
}

// Policy is a fully resolved repository policy.
type Policy struct {
	Enabled        bool
	UpdatePolicy   UpdatePolicy
	ChecksumPolicy ChecksumPolicy
}

// DefaultPolicy is used for resolver level defaults that are not configured.
var DefaultPolicy = Policy{
	Enabled:        true,
	UpdatePolicy:   UpdatePolicyDaily,
	ChecksumPolicy: ChecksumPolicyWarn,
}

// overlay applies the fields set in p on top of base.
func (p *RepositoryPolicy) overlay(base Policy) Policy {
	if p == nil {
		return base
	}
	if p.Enabled != nil {
		base.Enabled = *p.Enabled
	}
	if p.UpdatePolicy != "" {
		base.UpdatePolicy = p.UpdatePolicy
	}
	if p.ChecksumPolicy != "" {
		base.ChecksumPolicy = p.ChecksumPolicy
	}
	return base
}

// resolvePolicy returns the effective policy: explicit stability specific
// policy over the unified policy over the defaults.
func resolvePolicy(defaults Policy, unified, specific *RepositoryPolicy) Policy {
	return specific.overlay(unified.overlay(defaults))
}

// Bool returns a pointer to b, for use in RepositoryPolicy.Enabled.
func Bool(b bool) *bool {
	return &b
}
