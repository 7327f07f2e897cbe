package maven

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdatePolicyIsStale(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

	assert.True(t, UpdatePolicyAlways.IsStale(now, now))
	assert.False(t, UpdatePolicyNever.IsStale(now.Add(-365*24*time.Hour), now))
	assert.True(t, UpdatePolicyNever.IsStale(time.Time{}, now), "missing data is always stale")

	assert.False(t, UpdatePolicyDaily.IsStale(now.Add(-11*time.Hour), now))
	assert.True(t, UpdatePolicyDaily.IsStale(now.Add(-13*time.Hour), now))

	every10 := UpdatePolicyEvery(10 * time.Minute)
	assert.Equal(t, UpdatePolicy("interval:10"), every10)
	assert.False(t, every10.IsStale(now.Add(-9*time.Minute), now))
	assert.True(t, every10.IsStale(now.Add(-10*time.Minute), now))

	assert.False(t, UpdatePolicyInterval.IsStale(now.Add(-59*time.Minute), now))
	assert.True(t, UpdatePolicyInterval.IsStale(now.Add(-61*time.Minute), now))
}

func TestPolicyValidate(t *testing.T) {
	for _, p := range []UpdatePolicy{"", "always", "daily", "never", "interval", "interval:0", "interval:60"} {
		assert.NoError(t, p.Validate(), p)
	}
	for _, p := range []UpdatePolicy{"hourly", "interval:", "interval:x", "interval:-1", "Always"} {
		assert.Error(t, p.Validate(), p)
	}
	for _, p := range []ChecksumPolicy{"", "fail", "warn", "ignore"} {
		assert.NoError(t, p.Validate(), p)
	}
	assert.Error(t, ChecksumPolicy("strict").Validate())

	require.Error(t, (&RepositoryPolicy{ChecksumPolicy: "strict"}).Validate())
	require.NoError(t, (*RepositoryPolicy)(nil).Validate())
}

func TestResolvePolicyPrecedence(t *testing.T) {
	defaults := Policy{Enabled: true, UpdatePolicy: UpdatePolicyDaily, ChecksumPolicy: ChecksumPolicyWarn}

	assert.Equal(t, defaults, resolvePolicy(defaults, nil, nil))

	unified := &RepositoryPolicy{Enabled: Bool(false), UpdatePolicy: UpdatePolicyNever}
	assert.Equal(t, Policy{Enabled: false, UpdatePolicy: UpdatePolicyNever, ChecksumPolicy: ChecksumPolicyWarn},
		resolvePolicy(defaults, unified, nil))

	specific := &RepositoryPolicy{Enabled: Bool(true), ChecksumPolicy: ChecksumPolicyFail}
	assert.Equal(t, Policy{Enabled: true, UpdatePolicy: UpdatePolicyNever, ChecksumPolicy: ChecksumPolicyFail},
		resolvePolicy(defaults, unified, specific))
}
