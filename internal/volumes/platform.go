package volumes

import (
	"runtime"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v3/host"

	"github.com/tphakala/filetools/internal/logger"
)

// Platform selects the filtering and naming rules
type Platform string

const (
	PlatformWindows Platform = "windows"
	PlatformDarwin  Platform = "darwin"
	PlatformOther   Platform = "other"
)

// ParsePlatform maps an OS name as reported by gopsutil or runtime.GOOS to a Platform
func ParsePlatform(os string) Platform {
	switch strings.ToLower(strings.TrimSpace(os)) {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformDarwin
	default:
		return PlatformOther
	}
}

var detectPlatform = sync.OnceValue(func() Platform {
	info, err := host.Info()
	if err != nil || info.OS == "" {
		GetLogger().Debug("Host info unavailable, using build target OS",
			logger.String("goos", runtime.GOOS))
		return ParsePlatform(runtime.GOOS)
	}
	return ParsePlatform(info.OS)
})

// DetectPlatform probes the running host once and caches the result
func DetectPlatform() Platform {
	return detectPlatform()
}
