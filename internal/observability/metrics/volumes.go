package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tphakala/filetools/internal/volumes"
)

// VolumeMetrics tracks enumerations and the latest capacity of every volume.
// It implements volumes.Recorder.
type VolumeMetrics struct {
	enumerationsTotal *prometheus.CounterVec
	skippedTotal      *prometheus.CounterVec
	totalBytes        *prometheus.GaugeVec
	usedBytes         *prometheus.GaugeVec
	usedPercent       *prometheus.GaugeVec
}

// NewVolumeMetrics creates and registers volume metrics
func NewVolumeMetrics(registry prometheus.Registerer) (*VolumeMetrics, error) {
	m := &VolumeMetrics{
		enumerationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "volume_enumerations_total",
				Help:      "Total number of volume enumerations by outcome",
			},
			[]string{"status"},
		),
		skippedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "volume_partitions_skipped_total",
				Help:      "Total number of partitions hidden by the volume filters",
			},
			[]string{"reason"},
		),
		totalBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "volume_total_bytes",
				Help:      "Total capacity of a volume in bytes",
			},
			[]string{"volume"},
		),
		usedBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "volume_used_bytes",
				Help:      "Used space of a volume in bytes",
			},
			[]string{"volume"},
		),
		usedPercent: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "volume_used_percent",
				Help:      "Used space of a volume as reported by the OS",
			},
			[]string{"volume"},
		),
	}

	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// RecordEnumeration counts an enumeration and, on success, replaces the capacity
// gauges so volumes that disappeared stop being reported
func (m *VolumeMetrics) RecordEnumeration(status string, vols []volumes.VolumeInfo) {
	m.enumerationsTotal.WithLabelValues(status).Inc()
	if status != volumes.StatusSuccess {
		return
	}

	m.totalBytes.Reset()
	m.usedBytes.Reset()
	m.usedPercent.Reset()
	for i := range vols {
		v := &vols[i]
		label := v.MountPoint
		m.totalBytes.WithLabelValues(label).Set(float64(v.TotalBytes))
		m.usedBytes.WithLabelValues(label).Set(float64(v.UsedBytes))
		m.usedPercent.WithLabelValues(label).Set(v.PercentUsed)
	}
}

// RecordPartitionSkipped counts a hidden partition
func (m *VolumeMetrics) RecordPartitionSkipped(reason string) {
	m.skippedTotal.WithLabelValues(reason).Inc()
}

// Describe implements the Collector interface
func (m *VolumeMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.enumerationsTotal.Describe(ch)
	m.skippedTotal.Describe(ch)
	m.totalBytes.Describe(ch)
	m.usedBytes.Describe(ch)
	m.usedPercent.Describe(ch)
}

// Collect implements the Collector interface
func (m *VolumeMetrics) Collect(ch chan<- prometheus.Metric) {
	m.enumerationsTotal.Collect(ch)
	m.skippedTotal.Collect(ch)
	m.totalBytes.Collect(ch)
	m.usedBytes.Collect(ch)
	m.usedPercent.Collect(ch)
}
