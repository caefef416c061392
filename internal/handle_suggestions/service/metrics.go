package service

import (
	"sync/atomic"
	"time"
)

// Metrics tracks suggestion pipeline counters
type Metrics struct {
	upstreamCalls     int64
	upstreamErrors    int64
	upstreamLatency   int64 // Total latency in nanoseconds
	cacheHits         int64
	cacheMisses       int64
	requestsSucceeded int64
	requestsFailed    int64
}

var globalMetrics = &Metrics{}

// MetricsSnapshot is the JSON view of the counters.
type MetricsSnapshot struct {
	UpstreamCalls        int64   `json:"upstream_calls"`
	UpstreamErrors       int64   `json:"upstream_errors"`
	UpstreamErrorRate    float64 `json:"upstream_error_rate_pct"`
	AvgUpstreamLatencyMs float64 `json:"avg_upstream_latency_ms"`
	CacheHits            int64   `json:"cache_hits"`
	CacheMisses          int64   `json:"cache_misses"`
	RequestsSucceeded    int64   `json:"requests_succeeded"`
	RequestsFailed       int64   `json:"requests_failed"`
}

// GetMetrics returns the current metrics snapshot
func GetMetrics() Metrics {
	return Metrics{
		upstreamCalls:     atomic.LoadInt64(&globalMetrics.upstreamCalls),
		upstreamErrors:    atomic.LoadInt64(&globalMetrics.upstreamErrors),
		upstreamLatency:   atomic.LoadInt64(&globalMetrics.upstreamLatency),
		cacheHits:         atomic.LoadInt64(&globalMetrics.cacheHits),
		cacheMisses:       atomic.LoadInt64(&globalMetrics.cacheMisses),
		requestsSucceeded: atomic.LoadInt64(&globalMetrics.requestsSucceeded),
		requestsFailed:    atomic.LoadInt64(&globalMetrics.requestsFailed),
	}
}

// ResetMetrics resets all metrics (useful for testing)
func ResetMetrics() {
	atomic.StoreInt64(&globalMetrics.upstreamCalls, 0)
	atomic.StoreInt64(&globalMetrics.upstreamErrors, 0)
	atomic.StoreInt64(&globalMetrics.upstreamLatency, 0)
	atomic.StoreInt64(&globalMetrics.cacheHits, 0)
	atomic.StoreInt64(&globalMetrics.cacheMisses, 0)
	atomic.StoreInt64(&globalMetrics.requestsSucceeded, 0)
	atomic.StoreInt64(&globalMetrics.requestsFailed, 0)
}

// recordUpstreamCall records an upstream service call
func recordUpstreamCall(duration time.Duration, err error) {
	atomic.AddInt64(&globalMetrics.upstreamCalls, 1)
	atomic.AddInt64(&globalMetrics.upstreamLatency, duration.Nanoseconds())
	if err != nil {
		atomic.AddInt64(&globalMetrics.upstreamErrors, 1)
	}
}

func recordCacheLookup(hit bool) {
	if hit {
		atomic.AddInt64(&globalMetrics.cacheHits, 1)
		return
	}
	atomic.AddInt64(&globalMetrics.cacheMisses, 1)
}

func recordOutcome(err error) {
	if err != nil {
		atomic.AddInt64(&globalMetrics.requestsFailed, 1)
		return
	}
	atomic.AddInt64(&globalMetrics.requestsSucceeded, 1)
}

// AverageUpstreamLatency returns the average latency in milliseconds
func (m Metrics) AverageUpstreamLatency() float64 {
	if m.upstreamCalls == 0 {
		return 0
	}
	avgNs := float64(m.upstreamLatency) / float64(m.upstreamCalls)
	return avgNs / 1e6 // Convert nanoseconds to milliseconds
}

// UpstreamErrorRate returns the error rate as a percentage
func (m Metrics) UpstreamErrorRate() float64 {
	if m.upstreamCalls == 0 {
		return 0
	}
	return float64(m.upstreamErrors) / float64(m.upstreamCalls) * 100
}

// Snapshot converts the counters for JSON output.
func (m Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		UpstreamCalls:        m.upstreamCalls,
		UpstreamErrors:       m.upstreamErrors,
		UpstreamErrorRate:    m.UpstreamErrorRate(),
		AvgUpstreamLatencyMs: m.AverageUpstreamLatency(),
		CacheHits:            m.cacheHits,
		CacheMisses:          m.cacheMisses,
		RequestsSucceeded:    m.requestsSucceeded,
		RequestsFailed:       m.requestsFailed,
	}
}
