package propgate

import "sync/atomic"

// MetricID identifies one gateway counter.
type MetricID uint16

const (
	// MetricRequestAllowed counts requests passed through with no quota
	// metadata (public paths, pages, login endpoint under budget).
	MetricRequestAllowed MetricID = iota
	// MetricRequestAllowedQuota counts authenticated API requests passed
	// through with quota headers attached.
	MetricRequestAllowedQuota
	// MetricAuthRedirect counts unauthenticated page requests redirected to
	// the login page.
	MetricAuthRedirect
	// MetricAPIUnauthorized counts unauthenticated API requests rejected
	// with 401.
	MetricAPIUnauthorized
	// MetricRateLimited counts requests redirected to the rate-limited
	// notice page, across both policies.
	MetricRateLimited
	// MetricLoginSuccess counts successful password verifications.
	MetricLoginSuccess
	// MetricLoginFailure counts rejected password verifications.
	MetricLoginFailure
	// MetricTokenIssued counts session tokens issued.
	MetricTokenIssued
	// MetricRedirectRejected counts open-redirect targets stripped in favor
	// of the root path.
	MetricRedirectRejected
	// MetricLimiterFailOpen counts rate-limit checks that failed open due to
	// a store error.
	MetricLimiterFailOpen

	metricCount
)

// Metrics is a fixed set of atomic counters. All methods are safe for
// concurrent use and allocation-free on the increment path.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

func newMetrics(cfg MetricsConfig) *Metrics {
	if !cfg.Enabled {
		return nil
	}
	return &Metrics{}
}

func (m *Metrics) Inc(id MetricID) {
	if m == nil || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Snapshot returns a point-in-time copy of every counter.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snapshot := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricCount),
	}
	if m == nil {
		return snapshot
	}
	for id := MetricID(0); id < metricCount; id++ {
		snapshot.Counters[id] = m.counters[id].Load()
	}
	return snapshot
}

// MetricsSnapshot is an immutable copy of the gateway counters, consumed by
// the exporters under metrics/export.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}
