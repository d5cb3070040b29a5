package volumes

import (
	"path"
	"slices"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// Skip reasons reported to the logger and metrics
const (
	SkipOptical      = "optical"
	SkipDuplicate    = "duplicate"
	SkipSystemVolume = "system-volume"
	SkipReadOnly     = "read-only"
	SkipTooSmall     = "too-small"
	SkipUsageError   = "usage-error"
)

const (
	darwinDataVolume    = "/System/Volumes/Data"
	darwinExternalRoot  = "/Volumes/"
	darwinFriendlyLabel = "Macintosh HD"
	fallbackLabel       = "System Disk"
)

// darwinSystemVolumes are internal APFS volumes hidden on macOS, matched exactly or as a parent
var darwinSystemVolumes = []string{
	"/System/Volumes/Preboot",
	"/System/Volumes/Update",
	"/System/Volumes/VM",
	"/System/Volumes/xarts",
	"/System/Volumes/iSCPreboot",
	"/System/Volumes/Hardware",
	"/private/var/vm",
}

// opticalFstypes are Windows filesystems used by CD and DVD media
var opticalFstypes = []string{"CDFS", "UDF"}

// SkipReason returns why partition p should be hidden on platform, or "" to keep it.
// The Enumerator applies it before the duplicate mount point check, so on Windows an
// optical drive is always reported as optical. Capacity is checked by the Enumerator.
func SkipReason(platform Platform, p *disk.PartitionStat) string {
	switch platform {
	case PlatformWindows:
		if isOptical(p) {
			return SkipOptical
		}
	case PlatformDarwin:
		return darwinSkipReason(p)
	}
	return ""
}

func isOptical(p *disk.PartitionStat) bool {
	return slices.Contains(p.Opts, "cdrom") ||
		slices.ContainsFunc(opticalFstypes, func(fs string) bool { return strings.EqualFold(fs, p.Fstype) })
}

func darwinSkipReason(p *disk.PartitionStat) string {
	mp := p.Mountpoint
	for _, sys := range darwinSystemVolumes {
		if mp == sys || strings.HasPrefix(mp, sys+"/") {
			return SkipSystemVolume
		}
	}

	if !isReadOnly(p) {
		return ""
	}
	// the sealed system root is read-only; its data lives on the Data volume
	if mp == "/" {
		return SkipReadOnly
	}
	if mp == darwinDataVolume || strings.HasPrefix(mp, darwinExternalRoot) {
		return ""
	}
	return SkipReadOnly
}

func isReadOnly(p *disk.PartitionStat) bool {
	return slices.Contains(p.Opts, "ro")
}

// VolumeName returns the display name of partition p on platform
func VolumeName(platform Platform, p *disk.PartitionStat) string {
	if platform != PlatformDarwin {
		if p.Device != "" {
			return p.Device
		}
		return p.Mountpoint
	}

	mp := p.Mountpoint
	switch {
	case strings.HasPrefix(mp, darwinExternalRoot):
		return lastSegment(mp)
	case mp == darwinDataVolume, mp == "/":
		return darwinFriendlyLabel
	}
	if name := lastSegment(mp); name != "" {
		return name
	}
	return fallbackLabel
}

// lastSegment returns the final element of a slash-separated mount point
func lastSegment(mp string) string {
	trimmed := strings.TrimRight(mp, "/")
	if trimmed == "" {
		return ""
	}
	return path.Base(trimmed)
}
