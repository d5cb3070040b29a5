//go:build windows

package allocator

import (
	"golang.org/x/sys/windows"

	"github.com/tphakala/filetools/internal/errors"
)

func classifyErrno(err error) (Kind, bool) {
	var errno windows.Errno
	if !errors.As(err, &errno) {
		return 0, false
	}

	switch errno {
	case windows.ERROR_DISK_FULL, windows.ERROR_HANDLE_DISK_FULL:
		return KindNoSpace, true
	case windows.ERROR_ACCESS_DENIED, windows.ERROR_WRITE_PROTECT:
		return KindPermission, true
	case windows.ERROR_INVALID_NAME, windows.ERROR_BAD_PATHNAME, windows.ERROR_DIRECTORY,
		windows.ERROR_FILENAME_EXCED_RANGE:
		return KindPathInvalid, true
	default:
		return 0, false
	}
}
