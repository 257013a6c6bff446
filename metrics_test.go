package authcore

import (
	"sync"
	"testing"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricRefreshReuseDetected)

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatalf("login success = %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricRefreshReuseDetected] != 1 {
		t.Fatalf("reuse = %d", snap.Counters[MetricRefreshReuseDetected])
	}
	if snap.Counters[MetricLogout] != 0 {
		t.Fatalf("untouched counter = %d", snap.Counters[MetricLogout])
	}
}

func TestMetricsDisabledIsNoOp(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricLoginSuccess)

	if got := m.Snapshot().Counters[MetricLoginSuccess]; got != 0 {
		t.Fatalf("disabled metrics recorded %d", got)
	}
}

func TestMetricsOutOfRangeID(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(metricIDCount)     // must not panic
	m.Inc(metricIDCount + 7) // ditto
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricPairIssued)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Counters[MetricPairIssued]; got != workers*perWorker {
		t.Fatalf("lost increments: %d", got)
	}
}
