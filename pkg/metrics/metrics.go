// Package metrics provides Prometheus collectors for vtable table operations.
//
// # Basic Usage
//
//	// Count a table operation
//	metrics.TableOperations.WithLabelValues("sort", "success").Inc()
//
//	// Track sort latency
//	timer := metrics.NewTimer("sort")
//	table.SortBy("price")
//	metrics.SortLatency.WithLabelValues("double").Observe(float64(timer.Stop().Nanoseconds()))
//
//	// Track ingestion throughput
//	tracker := metrics.NewThroughputTracker("csv")
//	for row := range rows {
//	    load(row)
//	    tracker.Increment(1)
//	}
//	rowsPerSec := tracker.GetAndReset()
//
// Collectors register with the default registry on package init.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TableOperations counts table mutations and queries.
	// Labels: operation (append/insert/remove/sort/reorder/subset), status (success/failure)
	TableOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vtable_table_operations_total",
			Help: "Total number of table operations",
		},
		[]string{"operation", "status"},
	)

	// SortLatency tracks the time spent deriving and applying a sort, in nanoseconds.
	// Labels: column_type
	SortLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "vtable_sort_latency_nanoseconds",
			Help: "Sort latency in nanoseconds",
			Buckets: []float64{
				1e3, // 1μs
				1e4, // 10μs
				1e5, // 100μs
				1e6, // 1ms
				1e7, // 10ms
				1e8, // 100ms
				1e9, // 1s
			},
		},
		[]string{"column_type"},
	)

	// RowsLoaded counts rows read into tables.
	// Labels: source (csv/snapshot)
	RowsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vtable_rows_loaded_total",
			Help: "Total number of rows loaded into tables",
		},
		[]string{"source"},
	)

	// SnapshotBytes tracks compressed snapshot sizes.
	// Labels: algorithm
	SnapshotBytes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "vtable_snapshot_bytes",
			Help:    "Compressed snapshot size in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"algorithm"},
	)

	// MemoryAllocated tracks memory held by a component, in bytes.
	// Labels: component (table/process)
	MemoryAllocated = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vtable_memory_allocated_bytes",
			Help: "Memory allocated in bytes",
		},
		[]string{"component"},
	)

	// Throughput tracks rows loaded per second.
	// Labels: source
	Throughput = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vtable_throughput_rows_per_second",
			Help: "Current ingestion throughput in rows per second",
		},
		[]string{"source"},
	)
)

// Status returns the status label for err
func Status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// Timer measures the duration of an operation from its creation.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the operation name the timer was created with
func (t *Timer) Name() string { return t.name }

// Stop returns the elapsed duration since creation. It can be called
// more than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks rows per second over time windows.
// Safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64     // Rows since last reset
	lastReset time.Time // Time of last reset
	source    string
}

// NewThroughputTracker creates a tracker reporting under the given source label
func NewThroughputTracker(source string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		source:    source,
	}
}

// Increment adds n to the row count
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset calculates the current throughput, updates the Prometheus
// gauge, resets the counter and returns the throughput.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed

	t.count = 0
	t.lastReset = time.Now()

	Throughput.WithLabelValues(t.source).Set(throughput)

	return throughput
}
