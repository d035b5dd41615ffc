// Package metrics records timing for the hot paths of strata: simulation
// steps, index queries, scene building and frame drawing.
//
// Collection is on by default and can be disabled with STRATA_METRICS=0.
//
//	func (s *Simulation) step() {
//	    defer metrics.Timer(metrics.SimulationTick)()
//	    ...
//	}
package metrics

import (
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("STRATA_METRICS") != "0")
}

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled.Store(e)
}

// TimingMetric accumulates count, total, min and max durations for one
// named operation. Safe for concurrent use.
type TimingMetric struct {
	name    string
	count   atomic.Int64
	totalNs atomic.Int64
	maxNs   atomic.Int64
	minNs   atomic.Int64 // 0 until the first sample
}

var (
	registryMu sync.Mutex
	registry   = map[string]*TimingMetric{}
)

// NewTimingMetric returns the metric registered under name, creating it if
// needed.
func NewTimingMetric(name string) *TimingMetric {
	registryMu.Lock()
	defer registryMu.Unlock()
	if m, ok := registry[name]; ok {
		return m
	}
	m := &TimingMetric{name: name}
	registry[name] = m
	return m
}

// Record adds one sample.
func (m *TimingMetric) Record(d time.Duration) {
	if !enabled.Load() {
		return
	}
	ns := d.Nanoseconds()
	m.count.Add(1)
	m.totalNs.Add(ns)

	for {
		old := m.maxNs.Load()
		if ns <= old || m.maxNs.CompareAndSwap(old, ns) {
			break
		}
	}
	for {
		old := m.minNs.Load()
		if old != 0 && ns >= old {
			break
		}
		if m.minNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Name returns the metric name.
func (m *TimingMetric) Name() string { return m.name }

// Count returns the number of samples.
func (m *TimingMetric) Count() int64 { return m.count.Load() }

// Stats returns a point-in-time copy of the metric.
func (m *TimingMetric) Stats() TimingStats {
	count := m.count.Load()
	total := m.totalNs.Load()
	var avg int64
	if count > 0 {
		avg = total / count
	}
	return TimingStats{
		Name:    m.name,
		Count:   count,
		TotalMs: float64(total) / 1e6,
		AvgMs:   float64(avg) / 1e6,
		MaxMs:   float64(m.maxNs.Load()) / 1e6,
		MinMs:   float64(m.minNs.Load()) / 1e6,
	}
}

// Reset clears all samples.
func (m *TimingMetric) Reset() {
	m.count.Store(0)
	m.totalNs.Store(0)
	m.maxNs.Store(0)
	m.minNs.Store(0)
}

// TimingStats is a snapshot of a TimingMetric.
type TimingStats struct {
	Name    string  `json:"name"`
	Count   int64   `json:"count"`
	TotalMs float64 `json:"total_ms"`
	AvgMs   float64 `json:"avg_ms"`
	MaxMs   float64 `json:"max_ms"`
	MinMs   float64 `json:"min_ms,omitempty"`
}

// Timer returns a function that records the elapsed time when called.
func Timer(m *TimingMetric) func() {
	if !enabled.Load() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

// Hot-path metrics.
var (
	SimulationTick    = NewTimingMetric("simulation_tick")
	SpatialBuild      = NewTimingMetric("spatial_build")
	SpatialQuery      = NewTimingMetric("spatial_query")
	SceneBuild        = NewTimingMetric("scene_build")
	FrameDraw         = NewTimingMetric("frame_draw")
	ShortestPath      = NewTimingMetric("shortest_path")
	CentralityCompute = NewTimingMetric("centrality_compute")
	CommunityCompute  = NewTimingMetric("community_compute")
	DatasetLoad       = NewTimingMetric("dataset_load")
	StoreWrite        = NewTimingMetric("store_write")
)

// AllTimingMetrics returns every registered metric sorted by name.
func AllTimingMetrics() []*TimingMetric {
	registryMu.Lock()
	out := make([]*TimingMetric, 0, len(registry))
	for _, m := range registry {
		out = append(out, m)
	}
	registryMu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// AllTimingStats returns stats for metrics that have at least one sample.
func AllTimingStats() []TimingStats {
	var stats []TimingStats
	for _, m := range AllTimingMetrics() {
		if m.Count() > 0 {
			stats = append(stats, m.Stats())
		}
	}
	return stats
}

// ResetAll resets every registered metric.
func ResetAll() {
	for _, m := range AllTimingMetrics() {
		m.Reset()
	}
}
