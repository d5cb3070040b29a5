package volumes

import (
	"testing"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/stretchr/testify/assert"
)

func TestSkipReasonDarwin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mountpoint string
		opts       []string
		expected   string
	}{
		{"/System/Volumes/Preboot", []string{"rw"}, SkipSystemVolume},
		{"/System/Volumes/Preboot/sub", []string{"rw"}, SkipSystemVolume},
		{"/System/Volumes/PrebootExtra", []string{"rw"}, ""},
		{"/private/var/vm", []string{"rw"}, SkipSystemVolume},
		{"/", []string{"ro"}, SkipReadOnly},
		{"/", []string{"rw"}, ""},
		{"/System/Volumes/Data", []string{"ro"}, ""},
		{"/Volumes/Camera", []string{"ro"}, ""},
		{"/Volumes", []string{"ro"}, SkipReadOnly},
		{"/nix", []string{"ro"}, SkipReadOnly},
		{"/nix", []string{"rw", "nobrowse"}, ""},
	}

	for _, tt := range tests {
		p := &disk.PartitionStat{Mountpoint: tt.mountpoint, Opts: tt.opts}
		assert.Equal(t, tt.expected, SkipReason(PlatformDarwin, p), "%s %v", tt.mountpoint, tt.opts)
	}
}

func TestSkipReasonOtherPlatformsIgnoreDarwinRules(t *testing.T) {
	t.Parallel()

	p := &disk.PartitionStat{Mountpoint: "/System/Volumes/VM", Opts: []string{"ro"}}
	assert.Empty(t, SkipReason(PlatformOther, p))
	assert.Empty(t, SkipReason(PlatformWindows, p))
}

func TestSkipReasonWindowsOptical(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SkipOptical, SkipReason(PlatformWindows, &disk.PartitionStat{Mountpoint: `D:\`, Opts: []string{"cdrom"}}))
	assert.Equal(t, SkipOptical, SkipReason(PlatformWindows, &disk.PartitionStat{Mountpoint: `D:\`, Fstype: "cdfs"}))
	assert.Empty(t, SkipReason(PlatformWindows, &disk.PartitionStat{Mountpoint: `C:\`, Fstype: "NTFS", Opts: []string{"rw", "fixed"}}))
}

func TestVolumeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		platform   Platform
		device     string
		mountpoint string
		expected   string
	}{
		{PlatformDarwin, "/dev/disk4s1", "/Volumes/Macintosh HD", "Macintosh HD"},
		{PlatformDarwin, "/dev/disk4s1", "/Volumes/Photos/", "Photos"},
		{PlatformDarwin, "/dev/disk3s5", "/System/Volumes/Data", "Macintosh HD"},
		{PlatformDarwin, "/dev/disk3s1", "/", "Macintosh HD"},
		{PlatformDarwin, "/dev/disk9s1", "/opt/tools", "tools"},
		{PlatformDarwin, "map auto_home", "//", fallbackLabel},
		{PlatformDarwin, "", "", fallbackLabel},
		{PlatformOther, "/dev/nvme0n1p2", "/", "/dev/nvme0n1p2"},
		{PlatformOther, "", "/mnt/share", "/mnt/share"},
		{PlatformWindows, `C:\`, `C:\`, `C:\`},
	}

	for _, tt := range tests {
		p := &disk.PartitionStat{Device: tt.device, Mountpoint: tt.mountpoint}
		assert.Equal(t, tt.expected, VolumeName(tt.platform, p), "%s %q", tt.platform, tt.mountpoint)
	}
}

func TestParsePlatform(t *testing.T) {
	t.Parallel()

	assert.Equal(t, PlatformWindows, ParsePlatform("Windows"))
	assert.Equal(t, PlatformDarwin, ParsePlatform("darwin"))
	assert.Equal(t, PlatformOther, ParsePlatform("linux"))
	assert.Equal(t, PlatformOther, ParsePlatform(""))
	assert.NotEmpty(t, DetectPlatform())
}
