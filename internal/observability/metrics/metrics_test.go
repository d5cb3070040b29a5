package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/filetools/internal/allocator"
	"github.com/tphakala/filetools/internal/volumes"
)

var (
	_ allocator.Recorder = (*AllocatorMetrics)(nil)
	_ volumes.Recorder   = (*VolumeMetrics)(nil)
)

func TestAllocatorMetrics(t *testing.T) {
	t.Parallel()

	m, err := NewAllocatorMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordAllocation(allocator.StatusSuccess, 2048, 0.5)
	m.RecordAllocation(allocator.StatusSuccess, 1024, 0.2)
	m.RecordAllocation(allocator.StatusError, 0, 0.01)

	assert.InDelta(t, 2, testutil.ToFloat64(m.allocationsTotal.WithLabelValues(allocator.StatusSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.allocationsTotal.WithLabelValues(allocator.StatusError)), 0)
	assert.InDelta(t, 3072, testutil.ToFloat64(m.bytesWritten), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.duration))
}

func TestVolumeMetricsReplacesGauges(t *testing.T) {
	t.Parallel()

	m, err := NewVolumeMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordEnumeration(volumes.StatusSuccess, []volumes.VolumeInfo{
		{MountPoint: "/", TotalBytes: 100, UsedBytes: 40, PercentUsed: 40},
		{MountPoint: "/data", TotalBytes: 200, UsedBytes: 50, PercentUsed: 25},
	})
	assert.Equal(t, 2, testutil.CollectAndCount(m.totalBytes))

	m.RecordEnumeration(volumes.StatusSuccess, []volumes.VolumeInfo{
		{MountPoint: "/", TotalBytes: 100, UsedBytes: 45, PercentUsed: 45},
	})
	assert.Equal(t, 1, testutil.CollectAndCount(m.totalBytes))
	assert.InDelta(t, 45, testutil.ToFloat64(m.usedBytes.WithLabelValues("/")), 0)

	// a failed enumeration keeps the last known values
	m.RecordEnumeration(volumes.StatusError, nil)
	assert.Equal(t, 1, testutil.CollectAndCount(m.usedPercent))
	assert.InDelta(t, 1, testutil.ToFloat64(m.enumerationsTotal.WithLabelValues(volumes.StatusError)), 0)
}

func TestVolumeMetricsSkipped(t *testing.T) {
	t.Parallel()

	m, err := NewVolumeMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	m.RecordPartitionSkipped(volumes.SkipDuplicate)
	m.RecordPartitionSkipped(volumes.SkipDuplicate)
	m.RecordPartitionSkipped(volumes.SkipTooSmall)

	expected := `
# HELP filetools_volume_partitions_skipped_total Total number of partitions hidden by the volume filters
# TYPE filetools_volume_partitions_skipped_total counter
filetools_volume_partitions_skipped_total{reason="duplicate"} 2
filetools_volume_partitions_skipped_total{reason="too-small"} 1
`
	require.NoError(t, testutil.CollectAndCompare(m.skippedTotal, strings.NewReader(expected)))
}

func TestDoubleRegistrationFails(t *testing.T) {
	t.Parallel()

	registry := prometheus.NewRegistry()
	_, err := NewVolumeMetrics(registry)
	require.NoError(t, err)
	_, err = NewVolumeMetrics(registry)
	require.Error(t, err)
}
