// Package observability wires the Prometheus collectors of filetools into one registry.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tphakala/filetools/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry  *prometheus.Registry
	Allocator *metrics.AllocatorMetrics
	Volumes   *metrics.VolumeMetrics
}

// NewMetrics creates a registry with the filetools collectors plus the Go runtime
// and process collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	if err := registry.Register(collectors.NewGoCollector()); err != nil {
		return nil, fmt.Errorf("failed to register Go collector: %w", err)
	}
	if err := registry.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		return nil, fmt.Errorf("failed to register process collector: %w", err)
	}

	allocatorMetrics, err := metrics.NewAllocatorMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create allocator metrics: %w", err)
	}

	volumeMetrics, err := metrics.NewVolumeMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create volume metrics: %w", err)
	}

	return &Metrics{
		registry:  registry,
		Allocator: allocatorMetrics,
		Volumes:   volumeMetrics,
	}, nil
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler serving the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
}
