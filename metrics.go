package goSession

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram bucket in the
// in-process metrics system.
type MetricID uint16

const (
	// MetricTokenCacheHit counts IDToken calls served from the cache with no
	// network access.
	MetricTokenCacheHit MetricID = iota
	// MetricTokenRefreshSuccess counts completed token exchanges.
	MetricTokenRefreshSuccess
	// MetricTokenRefreshFailure counts failed token exchanges.
	MetricTokenRefreshFailure
	// MetricTokenRefreshCoalesced counts callers attached to an already
	// in-flight refresh instead of starting their own.
	MetricTokenRefreshCoalesced
	// MetricAccountMutationSuccess counts successful account mutations
	// (email, password, phone number, email-verification sends).
	MetricAccountMutationSuccess
	// MetricAccountMutationFailure counts failed account mutations.
	MetricAccountMutationFailure
	// MetricRecentLoginRequired counts mutations rejected with
	// ErrRequiresRecentLogin.
	MetricRecentLoginRequired
	// MetricProfileCommitSuccess counts committed profile change requests.
	MetricProfileCommitSuccess
	// MetricProfileCommitFailure counts failed profile commits.
	MetricProfileCommitFailure
	// MetricLinkSuccess counts providers linked.
	MetricLinkSuccess
	// MetricLinkFailure counts failed link attempts that reached the network.
	MetricLinkFailure
	// MetricLinkDuplicateRejected counts link attempts rejected locally for a
	// provider that is already linked.
	MetricLinkDuplicateRejected
	// MetricUnlinkSuccess counts providers unlinked.
	MetricUnlinkSuccess
	// MetricUnlinkFailure counts failed unlink attempts that reached the network.
	MetricUnlinkFailure
	// MetricUnlinkMissingRejected counts unlink attempts rejected locally for
	// a provider that is not linked.
	MetricUnlinkMissingRejected
	// MetricReauthSuccess counts successful reauthentications.
	MetricReauthSuccess
	// MetricReauthFailure counts failed reauthentications.
	MetricReauthFailure
	// MetricReauthUserMismatch counts reauthentications rejected because the
	// credential belongs to a different user.
	MetricReauthUserMismatch
	// MetricReloadSuccess counts successful profile reloads.
	MetricReloadSuccess
	// MetricReloadFailure counts failed profile reloads.
	MetricReloadFailure
	// MetricEmailVerificationSent counts verification emails requested.
	MetricEmailVerificationSent
	// MetricAccountDeleted counts successful account deletions.
	MetricAccountDeleted
	// MetricSessionInvalidated counts validity latch trips (at most one per
	// session).
	MetricSessionInvalidated
	// MetricStaleSessionRejected counts operations rejected pre-flight on an
	// invalidated session.
	MetricStaleSessionRejected
	// MetricSnapshotSaveFailure counts best-effort snapshot saves that failed.
	MetricSnapshotSaveFailure
	// MetricTokenRefreshLatency is the token exchange latency histogram.
	MetricTokenRefreshLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds atomic counters and an optional latency histogram. A nil or
// disabled Metrics makes every operation a no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] instance configured by the given
// [MetricsConfig]. When Enabled is false, all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether the metrics system records anything at all.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency histograms are recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample for the token refresh histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricTokenRefreshLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of a counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot returns a deep copy of all counters and histograms.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricTokenRefreshLatency].buckets[i])
		}
		s.Histograms[MetricTokenRefreshLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
