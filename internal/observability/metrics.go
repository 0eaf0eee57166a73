// Package observability provides metrics collection and monitoring capabilities
package observability

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/codcod/visor/internal/core"
)

// MetricsCollector collects and manages scheduler metrics: checks run by
// status, per-check duration histograms, and forEach fan-out counts.
type MetricsCollector struct {
	mu               sync.RWMutex
	counters         map[string]int64
	gauges           map[string]float64
	histograms       map[string]*Histogram
	timers           map[string]*Timer
	startTime        time.Time
	iterationResults []core.IterationResult
	executionCount   int
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		histograms: make(map[string]*Histogram),
		timers:     make(map[string]*Timer),
		startTime:  time.Now(),
	}
}

// Counter operations
func (mc *MetricsCollector) IncrementCounter(name string) {
	mc.AddToCounter(name, 1)
}

func (mc *MetricsCollector) AddToCounter(name string, value int64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.counters[name] += value
}

func (mc *MetricsCollector) GetCounter(name string) int64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.counters[name]
}

// Gauge operations
func (mc *MetricsCollector) SetGauge(name string, value float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	mc.gauges[name] = value
}

func (mc *MetricsCollector) GetGauge(name string) float64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.gauges[name]
}

// Histogram operations
func (mc *MetricsCollector) RecordHistogram(name string, value float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if mc.histograms[name] == nil {
		mc.histograms[name] = NewHistogram()
	}
	mc.histograms[name].Record(value)
}

func (mc *MetricsCollector) GetHistogram(name string) *Histogram {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.histograms[name]
}

// Timer operations
func (mc *MetricsCollector) StartTimer(name string) *Timer {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	timer := NewTimer()
	mc.timers[name] = timer
	return timer
}

func (mc *MetricsCollector) GetTimer(name string) *Timer {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.timers[name]
}

// RecordForEachFanOut records how many iterations a forEach check expanded
// into (§4.6.2).
func (mc *MetricsCollector) RecordForEachFanOut(checkID string, n int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.counters["foreach_fanouts"]++
	mc.gauges[fmt.Sprintf("foreach_items.%s", checkID)] = float64(n)
}

// RecordIterationResult folds one provider invocation's outcome into the
// counters and duration histograms.
func (mc *MetricsCollector) RecordIterationResult(result core.IterationResult) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.iterationResults = append(mc.iterationResults, result)
	mc.executionCount++

	mc.counters["checks_executed"]++
	status := "success"
	switch {
	case result.Skipped:
		status = "skipped"
	case !result.Success:
		status = "failed"
	}
	mc.counters[fmt.Sprintf("checks_%s", status)]++
	mc.counters[fmt.Sprintf("checks_%s.%s", status, result.CheckID)]++

	issuesName := "check_issues." + result.CheckID
	if mc.histograms[issuesName] == nil {
		mc.histograms[issuesName] = NewHistogram()
	}
	mc.histograms[issuesName].Record(float64(len(result.Issues)))

	durationName := "check_duration_ms." + result.CheckID
	if mc.histograms[durationName] == nil {
		mc.histograms[durationName] = NewHistogram()
	}
	mc.histograms[durationName].Record(float64(result.DurationMs))
}

// Summary operations
func (mc *MetricsCollector) GetSummary() MetricsSummary {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	totalDuration := time.Since(mc.startTime)

	summary := MetricsSummary{
		StartTime:      mc.startTime,
		TotalDuration:  totalDuration,
		Executions:     mc.executionCount,
		ChecksExecuted: mc.counters["checks_executed"],
		Counters:       make(map[string]int64),
		Gauges:         make(map[string]float64),
		Histograms:     make(map[string]HistogramSummary),
	}

	// Copy counters
	for k, v := range mc.counters {
		summary.Counters[k] = v
	}

	// Copy gauges
	for k, v := range mc.gauges {
		summary.Gauges[k] = v
	}

	// Copy histogram summaries
	for k, v := range mc.histograms {
		if v != nil {
			summary.Histograms[k] = v.Summary()
		}
	}

	// Calculate rates
	if totalDuration.Seconds() > 0 {
		summary.ChecksPerSecond = float64(mc.counters["checks_executed"]) / totalDuration.Seconds()
	}

	return summary
}

// Print metrics to output
func (mc *MetricsCollector) PrintSummary() {
	summary := mc.GetSummary()

	fmt.Printf("\n=== Metrics Summary ===\n")
	fmt.Printf("Total Duration: %v\n", summary.TotalDuration)
	fmt.Printf("Executions: %d\n", summary.Executions)
	fmt.Printf("Checks Executed: %d (%.2f/sec)\n", summary.ChecksExecuted, summary.ChecksPerSecond)

	fmt.Printf("\nCounters:\n")
	for name, value := range summary.Counters {
		fmt.Printf("  %s: %d\n", name, value)
	}

	if len(summary.Gauges) > 0 {
		fmt.Printf("\nGauges:\n")
		for name, value := range summary.Gauges {
			fmt.Printf("  %s: %.2f\n", name, value)
		}
	}

	if len(summary.Histograms) > 0 {
		fmt.Printf("\nHistograms:\n")
		for name, hist := range summary.Histograms {
			fmt.Printf("  %s: count=%d, min=%.2f, max=%.2f, mean=%.2f, p95=%.2f\n",
				name, hist.Count, hist.Min, hist.Max, hist.Mean, hist.P95)
		}
	}
}

// MetricsSummary contains a snapshot of all metrics
type MetricsSummary struct {
	StartTime       time.Time                   `json:"start_time"`
	TotalDuration   time.Duration               `json:"total_duration"`
	Executions      int                         `json:"executions"`
	ChecksExecuted  int64                       `json:"checks_executed"`
	ChecksPerSecond float64                     `json:"checks_per_second"`
	Counters        map[string]int64            `json:"counters"`
	Gauges          map[string]float64          `json:"gauges"`
	Histograms      map[string]HistogramSummary `json:"histograms"`
}

// Histogram tracks distribution of values
type Histogram struct {
	values []float64
	count  int64
	sum    float64
}

// NewHistogram creates a new histogram
func NewHistogram() *Histogram {
	return &Histogram{
		values: make([]float64, 0),
	}
}

// Record adds a value to the histogram
func (h *Histogram) Record(value float64) {
	h.values = append(h.values, value)
	h.count++
	h.sum += value
}

// Summary returns statistical summary of the histogram
func (h *Histogram) Summary() HistogramSummary {
	if h.count == 0 {
		return HistogramSummary{}
	}

	// Sort values for percentile calculation
	sorted := make([]float64, len(h.values))
	copy(sorted, h.values)
	sort.Float64s(sorted)

	summary := HistogramSummary{
		Count: h.count,
		Sum:   h.sum,
		Mean:  h.sum / float64(h.count),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}

	// Calculate percentiles
	if len(sorted) > 0 {
		summary.P50 = percentile(sorted, 0.5)
		summary.P95 = percentile(sorted, 0.95)
		summary.P99 = percentile(sorted, 0.99)
	}

	return summary
}

// HistogramSummary contains statistical information about a histogram
type HistogramSummary struct {
	Count int64   `json:"count"`
	Sum   float64 `json:"sum"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
}

// Timer tracks execution time
type Timer struct {
	startTime time.Time
	endTime   *time.Time
	duration  time.Duration
}

// NewTimer creates a new timer and starts it
func NewTimer() *Timer {
	return &Timer{
		startTime: time.Now(),
	}
}

// Stop stops the timer and records the duration
func (t *Timer) Stop() time.Duration {
	now := time.Now()
	t.endTime = &now
	t.duration = now.Sub(t.startTime)
	return t.duration
}

// Duration returns the recorded duration once stopped, or the time elapsed
// so far while running (it does not stop the timer)
func (t *Timer) Duration() time.Duration {
	if t.endTime == nil {
		return time.Since(t.startTime)
	}
	return t.duration
}

// percentile calculates the percentile value from sorted data
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}

	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[len(sorted)-1]
	}

	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1

	if upper >= len(sorted) {
		return sorted[lower]
	}

	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Helper functions for common metrics patterns

// MeasureOperation measures the duration of an operation
func (mc *MetricsCollector) MeasureOperation(name string, fn func() error) error {
	timer := mc.StartTimer(name)
	defer func() {
		duration := timer.Stop()
		mc.RecordHistogram(name+"_duration_ms", float64(duration.Nanoseconds())/1e6)
	}()

	err := fn()
	if err != nil {
		mc.IncrementCounter(name + "_errors")
	} else {
		mc.IncrementCounter(name + "_success")
	}

	return err
}
