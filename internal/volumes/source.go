package volumes

import (
	"slices"
	"strings"

	"github.com/moby/sys/mountinfo"
	"github.com/shirou/gopsutil/v3/disk"

	"github.com/tphakala/filetools/internal/errors"
)

// Source provides the host partition table and per-mount usage
type Source interface {
	// Partitions returns currently mounted partitions in OS order
	Partitions() ([]disk.PartitionStat, error)
	// Usage returns capacity figures for a mount point
	Usage(mountpoint string) (*disk.UsageStat, error)
}

// Source names accepted by NewSource
const (
	SourceGopsutil  = "gopsutil"
	SourceMountinfo = "mountinfo"
)

// NewSource returns the named partition source. An empty name selects gopsutil.
func NewSource(name string) (Source, error) {
	switch strings.ToLower(name) {
	case "", SourceGopsutil:
		return gopsutilSource{}, nil
	case SourceMountinfo:
		return mountinfoSource{}, nil
	default:
		return nil, errors.Newf("unknown volume source %q", name).
			Component("volumes").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// gopsutilSource reads physical partitions through gopsutil
type gopsutilSource struct{}

func (gopsutilSource) Partitions() ([]disk.PartitionStat, error) {
	return disk.Partitions(false)
}

func (gopsutilSource) Usage(mountpoint string) (*disk.UsageStat, error) {
	return disk.Usage(mountpoint)
}

// pseudoFstypes are kernel filesystems that never hold user data
var pseudoFstypes = []string{
	"autofs", "binfmt_misc", "bpf", "cgroup", "cgroup2", "configfs", "debugfs",
	"devfs", "devpts", "devtmpfs", "fusectl", "hugetlbfs", "mqueue", "nsfs",
	"proc", "pstore", "securityfs", "sysfs", "tracefs",
}

// mountinfoSource reads the kernel mount table directly. It reports every mount,
// including bind mounts, and is available on Linux and the BSDs.
type mountinfoSource struct{}

func (mountinfoSource) Partitions() ([]disk.PartitionStat, error) {
	mounts, err := mountinfo.GetMounts(func(info *mountinfo.Info) (skip, stop bool) {
		return slices.Contains(pseudoFstypes, info.FSType), false
	})
	if err != nil {
		return nil, err
	}

	partitions := make([]disk.PartitionStat, 0, len(mounts))
	for _, m := range mounts {
		partitions = append(partitions, disk.PartitionStat{
			Device:     m.Source,
			Mountpoint: m.Mountpoint,
			Fstype:     m.FSType,
			Opts:       splitOptions(m.Options, m.VFSOptions),
		})
	}
	return partitions, nil
}

func (mountinfoSource) Usage(mountpoint string) (*disk.UsageStat, error) {
	return disk.Usage(mountpoint)
}

// splitOptions merges comma-separated per-mount and superblock options
func splitOptions(lists ...string) []string {
	var opts []string
	for _, list := range lists {
		for opt := range strings.SplitSeq(list, ",") {
			if opt != "" && !slices.Contains(opts, opt) {
				opts = append(opts, opt)
			}
		}
	}
	return opts
}
