package volumes

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/filetools/internal/errors"
)

func TestResolveLongestPrefix(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	resolvedDir, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	vols := []VolumeInfo{
		{Name: "root", MountPoint: "/"},
		{Name: "tmp", MountPoint: filepath.Dir(resolvedDir)},
		{Name: "sibling", MountPoint: resolvedDir + "-other"},
	}

	got, err := Resolve(dir, vols)
	require.NoError(t, err)
	assert.Equal(t, "tmp", got.Name)
}

func TestResolveMissingPath(t *testing.T) {
	t.Parallel()

	_, err := Resolve(filepath.Join(t.TempDir(), "missing"), []VolumeInfo{{MountPoint: "/"}})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestResolveNoVolume(t *testing.T) {
	t.Parallel()

	_, err := Resolve(t.TempDir(), []VolumeInfo{{MountPoint: "/definitely/not/here"}})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestContainsPath(t *testing.T) {
	t.Parallel()

	assert.True(t, containsPath("/", "/home/user"))
	assert.True(t, containsPath("/mnt/data", "/mnt/data"))
	assert.True(t, containsPath("/mnt/data", "/mnt/data/x"))
	assert.False(t, containsPath("/mnt/data", "/mnt/database"))
	assert.True(t, containsPath(`C:\`, `c:\Users\me`))
	assert.False(t, containsPath(`D:\`, `C:\Users\me`))
	assert.False(t, containsPath("", "/x"))
}

func TestMatchIsPure(t *testing.T) {
	t.Parallel()

	vols := []VolumeInfo{{Name: "root", MountPoint: "/"}, {Name: "data", MountPoint: "/data"}}

	got, err := Match("/data/projects/x", vols)
	require.NoError(t, err)
	assert.Equal(t, "data", got.Name)

	got, err = Match("/database", vols)
	require.NoError(t, err)
	assert.Equal(t, "root", got.Name)

	_, err = Match("relative/path", vols)
	require.Error(t, err)
}
