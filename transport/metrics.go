package transport

import (
	"sync"
	"time"
)

// InvocationMetrics accumulates per-transport counters for the lifetime of a
// TransportSelector. Counters are monotonically increasing and reset only by
// an explicit Reset call, never implicitly. The mutex keeps the counters safe
// should independent steps ever run concurrently.
type InvocationMetrics struct {
	mu              sync.Mutex
	callCount       int64
	totalDuration   time.Duration
	efficiencyUnits int64
}

// MetricsSnapshot is a point-in-time copy of the counters.
type MetricsSnapshot struct {
	CallCount                int64         `json:"call_count"`
	TotalDuration            time.Duration `json:"total_duration"`
	EstimatedEfficiencyUnits int64         `json:"estimated_efficiency_units"`
}

// Record accounts one invocation. Failed calls still consume time and are
// recorded all the same.
func (m *InvocationMetrics) Record(elapsed time.Duration, efficiencyUnits int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	m.totalDuration += elapsed
	m.efficiencyUnits += efficiencyUnits
}

// Snapshot returns a copy of the current counters.
func (m *InvocationMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MetricsSnapshot{
		CallCount:                m.callCount,
		TotalDuration:            m.totalDuration,
		EstimatedEfficiencyUnits: m.efficiencyUnits,
	}
}

// Reset zeroes the counters. Caller-driven only.
func (m *InvocationMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.totalDuration = 0
	m.efficiencyUnits = 0
}
