package authcore

import "sync/atomic"

// MetricID identifies one engine counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts completed password logins (with or without a
	// two-factor step).
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts rejected credential checks.
	MetricLoginFailure
	// MetricTwoFactorRequired counts logins that branched into the pending
	// two-factor state.
	MetricTwoFactorRequired
	// MetricTwoFactorSuccess counts successful two-factor confirmations.
	MetricTwoFactorSuccess
	// MetricTwoFactorFailure counts rejected two-factor codes.
	MetricTwoFactorFailure
	// MetricBackupCodeUsed counts backup codes consumed during two-factor
	// confirmation.
	MetricBackupCodeUsed
	// MetricRefreshSuccess counts successful refresh-token rotations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts invalid refresh tokens.
	MetricRefreshFailure
	// MetricRefreshReuseDetected counts stale-token replays that triggered a
	// defensive lineage revocation.
	MetricRefreshReuseDetected
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricStepUpSuccess counts successful step-up verifications.
	MetricStepUpSuccess
	// MetricStepUpFailure counts failed step-up verifications.
	MetricStepUpFailure
	// MetricEnrollmentStarted counts BeginTwoFactorEnrollment calls.
	MetricEnrollmentStarted
	// MetricEnrollmentConfirmed counts enrollments activated with a valid
	// code.
	MetricEnrollmentConfirmed
	// MetricPairIssued counts access/refresh pairs minted by any flow.
	MetricPairIssued
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed-size set of lock-free counters.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics returns a counter set; when disabled all operations are no-ops.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc adds one to the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Snapshot copies every counter into a map.
func (m *Metrics) Snapshot() MetricsSnapshot {
	out := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, metricIDCount),
	}
	if m == nil {
		return out
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		out.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return out
}
