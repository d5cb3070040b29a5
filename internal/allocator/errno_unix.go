//go:build unix

package allocator

import (
	"golang.org/x/sys/unix"

	"github.com/tphakala/filetools/internal/errors"
)

func classifyErrno(err error) (Kind, bool) {
	var errno unix.Errno
	if !errors.As(err, &errno) {
		return 0, false
	}

	switch errno {
	case unix.ENOSPC, unix.EDQUOT:
		return KindNoSpace, true
	case unix.EACCES, unix.EPERM, unix.EROFS:
		return KindPermission, true
	case unix.ENAMETOOLONG, unix.ENOTDIR, unix.EISDIR, unix.EINVAL:
		return KindPathInvalid, true
	default:
		return 0, false
	}
}
