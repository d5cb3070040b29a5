package volumes

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tphakala/filetools/internal/units"
	"github.com/tphakala/filetools/internal/volumes"
)

var sample = []volumes.VolumeInfo{
	{Name: "sda1", MountPoint: "/", Device: "/dev/sda1", Fstype: "ext4", TotalBytes: 100 << 30, UsedBytes: 40 << 30, PercentUsed: 40},
	{Name: "usb", MountPoint: "/media/usb", Device: "/dev/sdb1", Fstype: "vfat", TotalBytes: 16 << 30, UsedBytes: 1 << 29, PercentUsed: 3.125},
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample, FormatTable, units.GB))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "MOUNT POINT")
	assert.Contains(t, lines[1], "100.00 GB")
	assert.Contains(t, lines[1], "60.00 GB")
	assert.Contains(t, lines[1], "40.0%")
	assert.Contains(t, lines[2], "0.50 GB")
	assert.Contains(t, lines[2], "3.1%")
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample, FormatJSON, units.GB))

	var got []volumes.VolumeInfo
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample, got)
}

func TestRenderYAML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sample, FormatYAML, units.GB))

	var got []volumes.VolumeInfo
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, sample, got)
}

func TestRenderEmptyJSONIsArray(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, nil, FormatJSON, units.GB))
	assert.Equal(t, "[]\n", buf.String())
}
