package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// AllocatorMetrics tracks file allocations. It implements allocator.Recorder.
type AllocatorMetrics struct {
	allocationsTotal *prometheus.CounterVec
	bytesWritten     prometheus.Counter
	duration         prometheus.Histogram
}

// NewAllocatorMetrics creates and registers allocator metrics
func NewAllocatorMetrics(registry prometheus.Registerer) (*AllocatorMetrics, error) {
	m := &AllocatorMetrics{
		allocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "allocations_total",
				Help:      "Total number of file allocations by outcome",
			},
			[]string{"status"}, // status: success, error, canceled
		),
		bytesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "allocation_bytes_written_total",
			Help:      "Total zero bytes written by allocations, including partial files",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "allocation_duration_seconds",
			Help:      "Time taken to allocate a file",
			Buckets:   prometheus.ExponentialBuckets(BucketStart100ms, BucketFactor2, BucketCount12), // 100ms to ~3.4min
		}),
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordAllocation records one finished allocation
func (m *AllocatorMetrics) RecordAllocation(status string, bytesWritten int64, seconds float64) {
	m.allocationsTotal.WithLabelValues(status).Inc()
	if bytesWritten > 0 {
		m.bytesWritten.Add(float64(bytesWritten))
	}
	m.duration.Observe(seconds)
}

// Describe implements the Collector interface
func (m *AllocatorMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.allocationsTotal.Describe(ch)
	m.bytesWritten.Describe(ch)
	m.duration.Describe(ch)
}

// Collect implements the Collector interface
func (m *AllocatorMetrics) Collect(ch chan<- prometheus.Metric) {
	m.allocationsTotal.Collect(ch)
	m.bytesWritten.Collect(ch)
	m.duration.Collect(ch)
}
