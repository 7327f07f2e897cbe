package registry

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ocm.software/open-component-model/artifact/metrics"
)

func TestInMemory(t *testing.T) {
	r := require.New(t)
	reg := NewInMemory()

	_, err := reg.Find(t.Context(), "app")
	r.ErrorIs(err, ErrEntryNotFound)

	r.NoError(reg.Register(t.Context(), "app", "maven://io.example:app:1.0"))
	r.NoError(reg.Register(t.Context(), "app", "maven://io.example:app:2.0"))
	uri, err := reg.Find(t.Context(), "app")
	r.NoError(err)
	r.Equal("maven://io.example:app:2.0", uri)

	all, err := reg.FindAll(t.Context())
	r.NoError(err)
	all["other"] = "file:///x"
	again, err := reg.FindAll(t.Context())
	r.NoError(err)
	r.Len(again, 1, "FindAll returns a copy")

	r.NoError(reg.Unregister(t.Context(), "app"))
	r.NoError(reg.Unregister(t.Context(), "app"))
	_, err = reg.Find(t.Context(), "app")
	r.ErrorIs(err, ErrEntryNotFound)
}

func TestFilter(t *testing.T) {
	entries := map[string]string{
		"source.http": "maven://a:http:1.0",
		"source.file": "maven://a:file:1.0",
		"sink.log":    "maven://a:log:1.0",
	}
	filtered, err := Filter(entries, "source.*")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"source.http": "maven://a:http:1.0",
		"source.file": "maven://a:file:1.0",
	}, filtered)

	filtered, err = Filter(entries, "")
	require.NoError(t, err)
	assert.Equal(t, entries, filtered)

	_, err = Filter(entries, "[")
	require.Error(t, err)
}

func TestInstrument(t *testing.T) {
	r := require.New(t)
	promRegistry := prometheus.NewRegistry()
	m, err := metrics.New(promRegistry)
	r.NoError(err)

	reg := NewInMemory()
	r.Same(reg, Instrument(reg, "memory", nil))

	instrumented := Instrument(reg, "memory", m)
	written, err := NewPopulator(&stubLoader{res: defaultSource()}).PopulateRegistry(t.Context(), false, instrumented, sourceLocation)
	r.NoError(err)
	r.Len(written, 3)

	_, err = instrumented.Find(t.Context(), "bar")
	r.NoError(err)

	expected := `
# HELP artifact_registry_writes_total Total number of registry entries written
# TYPE artifact_registry_writes_total counter
artifact_registry_writes_total{backend="memory"} 3
# HELP artifact_registry_lookups_total Total number of registry lookups by result
# TYPE artifact_registry_lookups_total counter
artifact_registry_lookups_total{backend="memory",result="hit"} 1
artifact_registry_lookups_total{backend="memory",result="miss"} 3
`
	r.NoError(testutil.GatherAndCompare(promRegistry, strings.NewReader(expected),
		"artifact_registry_writes_total", "artifact_registry_lookups_total"))
}
