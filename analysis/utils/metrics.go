package utils

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// MetricsCollector collects and manages engine performance metrics
type MetricsCollector struct {
	mu sync.RWMutex

	// Operation counters
	analysisAttempts  int64
	analysisSuccesses int64
	analysisFailures  int64
	cacheHits         int64
	cacheMisses       int64
	recordsProcessed  int64
	recordsSkipped    int64

	// Timing metrics
	avgAnalysisTime time.Duration
	avgFetchTime    time.Duration

	// Latency distribution
	analysisLatencyBuckets map[string]int64

	// Per-stage timing
	stageMetrics map[string]*StageMetrics

	startTime     time.Time
	lastResetTime time.Time
}

// StageMetrics tracks performance of one pipeline stage
type StageMetrics struct {
	Name        string        `json:"name"`
	Invocations int64         `json:"invocations"`
	AvgDuration time.Duration `json:"avgDuration"`
	LastRun     time.Time     `json:"lastRun"`
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	now := time.Now()
	return &MetricsCollector{
		analysisLatencyBuckets: make(map[string]int64),
		stageMetrics:           make(map[string]*StageMetrics),
		startTime:              now,
		lastResetTime:          now,
	}
}

// RecordAnalysis records one full analysis invocation
func (mc *MetricsCollector) RecordAnalysis(duration time.Duration, success bool) {
	atomic.AddInt64(&mc.analysisAttempts, 1)
	if success {
		atomic.AddInt64(&mc.analysisSuccesses, 1)
	} else {
		atomic.AddInt64(&mc.analysisFailures, 1)
	}

	mc.updateAverageTime(&mc.avgAnalysisTime, duration)
	mc.updateLatencyBucket(duration)
}

// RecordFetch records a trace fetch round-trip
func (mc *MetricsCollector) RecordFetch(duration time.Duration) {
	mc.updateAverageTime(&mc.avgFetchTime, duration)
}

// RecordCacheLookup records a cache hit or miss
func (mc *MetricsCollector) RecordCacheLookup(hit bool) {
	if hit {
		atomic.AddInt64(&mc.cacheHits, 1)
	} else {
		atomic.AddInt64(&mc.cacheMisses, 1)
	}
}

// RecordNormalization records processed and skipped record counts
func (mc *MetricsCollector) RecordNormalization(processed, skipped int) {
	atomic.AddInt64(&mc.recordsProcessed, int64(processed))
	atomic.AddInt64(&mc.recordsSkipped, int64(skipped))
}

// RecordStage records one pipeline stage run
func (mc *MetricsCollector) RecordStage(stage string, duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	metrics, exists := mc.stageMetrics[stage]
	if !exists {
		metrics = &StageMetrics{Name: stage}
		mc.stageMetrics[stage] = metrics
	}

	metrics.Invocations++
	metrics.AvgDuration = time.Duration(float64(metrics.AvgDuration)*0.9 + float64(duration)*0.1)
	metrics.LastRun = time.Now()
}

// updateAverageTime updates running average of duration
func (mc *MetricsCollector) updateAverageTime(avg *time.Duration, newDuration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	// Exponential moving average with alpha=0.1
	*avg = time.Duration(float64(*avg)*0.9 + float64(newDuration)*0.1)
}

// updateLatencyBucket updates latency distribution buckets
func (mc *MetricsCollector) updateLatencyBucket(duration time.Duration) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	ms := duration.Milliseconds()
	var bucket string

	switch {
	case ms < 10:
		bucket = "<10ms"
	case ms < 50:
		bucket = "10-50ms"
	case ms < 100:
		bucket = "50-100ms"
	case ms < 500:
		bucket = "100-500ms"
	case ms < 1000:
		bucket = "500ms-1s"
	default:
		bucket = ">1s"
	}

	mc.analysisLatencyBuckets[bucket]++
}

// GetMetrics returns a point-in-time snapshot of all metrics
func (mc *MetricsCollector) GetMetrics() *MetricsSnapshot {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	stageCopy := make(map[string]*StageMetrics)
	for name, metrics := range mc.stageMetrics {
		stageCopy[name] = &StageMetrics{
			Name:        metrics.Name,
			Invocations: metrics.Invocations,
			AvgDuration: metrics.AvgDuration,
			LastRun:     metrics.LastRun,
		}
	}

	bucketsCopy := make(map[string]int64)
	for bucket, count := range mc.analysisLatencyBuckets {
		bucketsCopy[bucket] = count
	}

	return &MetricsSnapshot{
		AnalysisAttempts:  atomic.LoadInt64(&mc.analysisAttempts),
		AnalysisSuccesses: atomic.LoadInt64(&mc.analysisSuccesses),
		AnalysisFailures:  atomic.LoadInt64(&mc.analysisFailures),
		CacheHits:         atomic.LoadInt64(&mc.cacheHits),
		CacheMisses:       atomic.LoadInt64(&mc.cacheMisses),
		RecordsProcessed:  atomic.LoadInt64(&mc.recordsProcessed),
		RecordsSkipped:    atomic.LoadInt64(&mc.recordsSkipped),

		AvgAnalysisTime: mc.avgAnalysisTime,
		AvgFetchTime:    mc.avgFetchTime,

		AnalysisLatencyBuckets: bucketsCopy,
		StageMetrics:           stageCopy,

		Uptime:        time.Since(mc.startTime),
		LastResetTime: mc.lastResetTime,
		Timestamp:     time.Now(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	AnalysisAttempts  int64 `json:"analysisAttempts"`
	AnalysisSuccesses int64 `json:"analysisSuccesses"`
	AnalysisFailures  int64 `json:"analysisFailures"`
	CacheHits         int64 `json:"cacheHits"`
	CacheMisses       int64 `json:"cacheMisses"`
	RecordsProcessed  int64 `json:"recordsProcessed"`
	RecordsSkipped    int64 `json:"recordsSkipped"`

	AvgAnalysisTime time.Duration `json:"avgAnalysisTime"`
	AvgFetchTime    time.Duration `json:"avgFetchTime"`

	AnalysisLatencyBuckets map[string]int64         `json:"analysisLatencyBuckets"`
	StageMetrics           map[string]*StageMetrics `json:"stageMetrics"`

	Uptime        time.Duration `json:"uptime"`
	LastResetTime time.Time     `json:"lastResetTime"`
	Timestamp     time.Time     `json:"timestamp"`
}

// CacheHitRate returns the cache hit rate in [0,1]
func (ms *MetricsSnapshot) CacheHitRate() float64 {
	total := ms.CacheHits + ms.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(ms.CacheHits) / float64(total)
}

// GetSummaryReport generates a human-readable performance summary
func (ms *MetricsSnapshot) GetSummaryReport() string {
	report := fmt.Sprintf("=== Analysis Engine Metrics ===\n")
	report += fmt.Sprintf("Timestamp: %s\n", ms.Timestamp.Format("2006-01-02 15:04:05"))
	report += fmt.Sprintf("Uptime: %v\n\n", ms.Uptime)

	report += fmt.Sprintf("Analyses: %d (%d ok, %d failed)\n",
		ms.AnalysisAttempts, ms.AnalysisSuccesses, ms.AnalysisFailures)
	report += fmt.Sprintf("Records: %d processed, %d skipped\n",
		ms.RecordsProcessed, ms.RecordsSkipped)
	report += fmt.Sprintf("Cache Hit Rate: %.2f%% (%d hits, %d misses)\n",
		ms.CacheHitRate()*100, ms.CacheHits, ms.CacheMisses)
	report += fmt.Sprintf("Avg Analysis Time: %v, Avg Fetch Time: %v\n\n",
		ms.AvgAnalysisTime, ms.AvgFetchTime)

	report += "Latency Distribution:\n"
	for bucket, count := range ms.AnalysisLatencyBuckets {
		if count > 0 {
			report += fmt.Sprintf("  %s: %d\n", bucket, count)
		}
	}

	report += "\nStage Timing:\n"
	for _, stage := range ms.StageMetrics {
		report += fmt.Sprintf("  %s: %d runs, avg %v\n",
			stage.Name, stage.Invocations, stage.AvgDuration)
	}

	return report
}

// ResetCounters resets all counters
func (mc *MetricsCollector) ResetCounters() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	atomic.StoreInt64(&mc.analysisAttempts, 0)
	atomic.StoreInt64(&mc.analysisSuccesses, 0)
	atomic.StoreInt64(&mc.analysisFailures, 0)
	atomic.StoreInt64(&mc.cacheHits, 0)
	atomic.StoreInt64(&mc.cacheMisses, 0)
	atomic.StoreInt64(&mc.recordsProcessed, 0)
	atomic.StoreInt64(&mc.recordsSkipped, 0)

	mc.analysisLatencyBuckets = make(map[string]int64)
	mc.stageMetrics = make(map[string]*StageMetrics)

	mc.lastResetTime = time.Now()
}
