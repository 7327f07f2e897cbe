// Package metrics provides Prometheus collectors for artifact resolution.
// All methods are safe to call on a nil *Metrics, which records nothing.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "artifact"

// Resolution outcomes.
const (
	OutcomeCacheHit   = "cache_hit"
	OutcomeDownloaded = "downloaded"
	OutcomeOffline    = "offline"
	OutcomeNotFound   = "not_found"
	OutcomeError      = "error"
)

// Metrics holds the collectors of the resolution subsystem.
type Metrics struct {
	resolutions        *prometheus.CounterVec
	resolutionDuration *prometheus.HistogramVec
	downloads          *prometheus.CounterVec
	downloadedBytes    *prometheus.CounterVec
	checksumFailures   *prometheus.CounterVec
	registryWrites     *prometheus.CounterVec
	registryLookups    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg creates
// unregistered collectors.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "resolutions_total",
				Help:      "Total number of artifact resolutions by loader and outcome",
			},
			[]string{"loader", "outcome"},
		),
		resolutionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "resolution_duration_seconds",
				Help:      "Duration of artifact resolutions in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"loader"},
		),
		downloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "downloads_total",
				Help:      "Total number of download attempts by loader, repository and result",
			},
			[]string{"loader", "repository", "result"},
		),
		downloadedBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "downloaded_bytes_total",
				Help:      "Total number of bytes written to local caches",
			},
			[]string{"loader"},
		),
		checksumFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checksum_failures_total",
				Help:      "Total number of checksum mismatches by repository",
			},
			[]string{"repository"},
		),
		registryWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registry_writes_total",
				Help:      "Total number of registry entries written",
			},
			[]string{"backend"},
		),
		registryLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registry_lookups_total",
				Help:      "Total number of registry lookups by result",
			},
			[]string{"backend", "result"},
		),
	}

	if reg != nil {
		var errs []error
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.resolutions,
		m.resolutionDuration,
		m.downloads,
		m.downloadedBytes,
		m.checksumFailures,
		m.registryWrites,
		m.registryLookups,
	}
}

// RecordResolution records a finished resolution.
func (m *Metrics) RecordResolution(loader, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(loader, outcome).Inc()
	m.resolutionDuration.WithLabelValues(loader).Observe(duration.Seconds())
}

// RecordDownload records a download attempt. size is only counted for
// successful downloads.
func (m *Metrics) RecordDownload(loader, repository string, err error, size int64) {
	if m == nil {
		return
	}
	result := "success"
	if err != nil {
		result = "failure"
	}
	m.downloads.WithLabelValues(loader, repository, result).Inc()
	if err == nil && size > 0 {
		m.downloadedBytes.WithLabelValues(loader).Add(float64(size))
	}
}

// RecordChecksumFailure records a checksum mismatch.
func (m *Metrics) RecordChecksumFailure(repository string) {
	if m == nil {
		return
	}
	m.checksumFailures.WithLabelValues(repository).Inc()
}

// RecordRegistryWrites records n written registry entries.
func (m *Metrics) RecordRegistryWrites(backend string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.registryWrites.WithLabelValues(backend).Add(float64(n))
}

// RecordRegistryLookup records a registry lookup.
func (m *Metrics) RecordRegistryLookup(backend string, found bool) {
	if m == nil {
		return
	}
	result := "hit"
	if !found {
		result = "miss"
	}
	m.registryLookups.WithLabelValues(backend, result).Inc()
}

// Timer measures the duration of an operation.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() Timer {
	return Timer{start: time.Now()}
}

// Duration returns the time elapsed since the timer was started.
func (t Timer) Duration() time.Duration {
	return time.Since(t.start)
}
