// Package volumes lists mounted storage volumes with their capacity and usage.
//
// Filtering and naming rules depend on the host platform, which is detected at run
// time. The rules are pure functions of (Platform, partition) so they can be tested
// with injected partition tables for every platform on any host.
package volumes

import "github.com/tphakala/filetools/internal/logger"

// MinVolumeSize is the capacity below which a mount is treated as a pseudo-device
const MinVolumeSize uint64 = 1 << 20

// GetLogger returns the volumes module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("volumes")
}

// VolumeInfo is one mounted volume at the time of enumeration
type VolumeInfo struct {
	Name        string  `json:"name" yaml:"name"`
	MountPoint  string  `json:"mount_point" yaml:"mount_point"`
	Device      string  `json:"device" yaml:"device"`
	Fstype      string  `json:"fstype" yaml:"fstype"`
	TotalBytes  uint64  `json:"total_bytes" yaml:"total_bytes"`
	UsedBytes   uint64  `json:"used_bytes" yaml:"used_bytes"`
	PercentUsed float64 `json:"percent_used" yaml:"percent_used"`
}

// AvailableBytes returns TotalBytes minus UsedBytes
func (v *VolumeInfo) AvailableBytes() uint64 {
	if v.UsedBytes >= v.TotalBytes {
		return 0
	}
	return v.TotalBytes - v.UsedBytes
}
