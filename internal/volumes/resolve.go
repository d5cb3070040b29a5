package volumes

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tphakala/filetools/internal/errors"
)

// Resolve returns the volume whose mount point is the longest prefix of path.
// Symlinks in path are resolved first when possible.
func Resolve(path string, vols []VolumeInfo) (VolumeInfo, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if _, statErr := os.Stat(path); statErr != nil {
			return VolumeInfo{}, errors.New(statErr).
				Component("volumes").
				Category(errors.CategoryNotFound).
				Context("path", path).
				Build()
		}
		resolved = path
	}
	if abs, err := filepath.Abs(resolved); err == nil {
		resolved = abs
	}

	return Match(resolved, vols)
}

// Match returns the volume whose mount point is the longest prefix of the absolute
// path without touching the filesystem
func Match(path string, vols []VolumeInfo) (VolumeInfo, error) {
	best := -1
	bestLen := 0
	for i := range vols {
		mp := vols[i].MountPoint
		if !containsPath(mp, path) {
			continue
		}
		if len(mp) > bestLen {
			best = i
			bestLen = len(mp)
		}
	}

	if best < 0 {
		return VolumeInfo{}, errors.Newf("no mounted volume contains %s", path).
			Component("volumes").
			Category(errors.CategoryNotFound).
			Context("path", path).
			Build()
	}
	return vols[best], nil
}

// containsPath reports whether path lies on the mount point mp
func containsPath(mp, path string) bool {
	if mp == "" {
		return false
	}
	if isWindowsStyle(mp) {
		mp = strings.ToLower(mp)
		path = strings.ToLower(path)
	}
	if path == mp || strings.TrimRight(mp, `/\`) == path {
		return true
	}
	if strings.HasSuffix(mp, "/") || strings.HasSuffix(mp, `\`) {
		return strings.HasPrefix(path, mp)
	}
	return strings.HasPrefix(path, mp+"/") || strings.HasPrefix(path, mp+`\`)
}

// isWindowsStyle reports whether mp is a drive letter mount such as C:\
func isWindowsStyle(mp string) bool {
	return len(mp) >= 2 && mp[1] == ':'
}
