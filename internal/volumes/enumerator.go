package volumes

import (
	"math"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/tphakala/filetools/internal/errors"
	"github.com/tphakala/filetools/internal/logger"
)

// Enumeration outcomes reported to the Recorder
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Recorder receives enumeration outcomes
type Recorder interface {
	RecordEnumeration(status string, volumes []VolumeInfo)
	RecordPartitionSkipped(reason string)
}

// Enumerator produces a filtered, deduplicated and named volume list.
// It holds no mutable state and is safe for concurrent use.
type Enumerator struct {
	source   Source
	platform Platform
	minSize  uint64
	log      logger.Logger
	recorder Recorder
}

// Option configures an Enumerator
type Option func(*Enumerator)

// WithSource sets the partition source
func WithSource(s Source) Option {
	return func(e *Enumerator) {
		if s != nil {
			e.source = s
		}
	}
}

// WithPlatform overrides platform detection
func WithPlatform(p Platform) Option {
	return func(e *Enumerator) {
		e.platform = p
	}
}

// WithMinSize sets the pseudo-device threshold in bytes
func WithMinSize(size uint64) Option {
	return func(e *Enumerator) {
		e.minSize = size
	}
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(e *Enumerator) {
		if log != nil {
			e.log = log
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(e *Enumerator) {
		e.recorder = r
	}
}

// NewEnumerator creates an Enumerator backed by gopsutil on the detected platform
func NewEnumerator(opts ...Option) *Enumerator {
	e := &Enumerator{minSize: MinVolumeSize}
	for _, opt := range opts {
		opt(e)
	}
	if e.source == nil {
		e.source = gopsutilSource{}
	}
	if e.platform == "" {
		e.platform = DetectPlatform()
	}
	if e.log == nil {
		e.log = GetLogger()
	}
	return e
}

// Platform returns the platform whose rules this Enumerator applies
func (e *Enumerator) Platform() Platform {
	return e.platform
}

// Enumerate returns one VolumeInfo per surviving partition in OS order. It fails only
// when the partition table cannot be read at all; per-partition errors, including
// warnings returned next to a partial table, are logged and skipped.
func (e *Enumerator) Enumerate() ([]VolumeInfo, error) {
	partitions, err := e.source.Partitions()
	if err != nil && len(partitions) > 0 {
		// gopsutil reports drives it could not inspect as warnings next to the healthy ones
		e.log.Warn("Partition table read with warnings",
			logger.Int("partitions", len(partitions)),
			logger.Error(err))
		err = nil
	}
	if err != nil {
		e.recordEnumeration(StatusError, nil)
		return nil, errors.New(err).
			Component("volumes").
			Category(errors.CategoryDiskUsage).
			Context("operation", "list_partitions").
			Build()
	}

	seen := mapset.NewThreadUnsafeSet[string]()
	result := make([]VolumeInfo, 0, len(partitions))

	for i := range partitions {
		p := &partitions[i]

		if reason := SkipReason(e.platform, p); reason != "" {
			e.skip(p, reason)
			continue
		}
		// only accepted volumes claim their mount point
		if seen.Contains(p.Mountpoint) {
			e.skip(p, SkipDuplicate)
			continue
		}

		usage, err := e.source.Usage(p.Mountpoint)
		if err != nil {
			e.log.Warn("Cannot read volume usage",
				logger.String("mountpoint", p.Mountpoint),
				logger.Error(err))
			e.skip(p, SkipUsageError)
			continue
		}
		if usage.Total < e.minSize {
			e.log.Debug("Skipping pseudo-device",
				logger.String("mountpoint", p.Mountpoint),
				logger.Uint64("total_bytes", usage.Total))
			e.skip(p, SkipTooSmall)
			continue
		}

		seen.Add(p.Mountpoint)
		result = append(result, newVolumeInfo(VolumeName(e.platform, p), p, usage))
	}

	e.log.Debug("Volumes enumerated",
		logger.Int("partitions", len(partitions)),
		logger.Int("volumes", len(result)),
		logger.String("platform", string(e.platform)))
	e.recordEnumeration(StatusSuccess, result)

	return result, nil
}

func newVolumeInfo(name string, p *disk.PartitionStat, usage *disk.UsageStat) VolumeInfo {
	used := min(usage.Used, usage.Total)

	pct := usage.UsedPercent
	if math.IsNaN(pct) {
		pct = 0
	}
	pct = max(0, min(100, pct))

	return VolumeInfo{
		Name:        name,
		MountPoint:  p.Mountpoint,
		Device:      p.Device,
		Fstype:      p.Fstype,
		TotalBytes:  usage.Total,
		UsedBytes:   used,
		PercentUsed: pct,
	}
}

func (e *Enumerator) skip(p *disk.PartitionStat, reason string) {
	e.log.Trace("Partition skipped",
		logger.String("mountpoint", p.Mountpoint),
		logger.String("device", p.Device),
		logger.String("reason", reason))
	if e.recorder != nil {
		e.recorder.RecordPartitionSkipped(reason)
	}
}

func (e *Enumerator) recordEnumeration(status string, vols []VolumeInfo) {
	if e.recorder != nil {
		e.recorder.RecordEnumeration(status, vols)
	}
}

// Enumerate lists volumes on the running host with default settings
func Enumerate() ([]VolumeInfo, error) {
	return NewEnumerator().Enumerate()
}
