//go:build !unix && !windows

package allocator

func classifyErrno(error) (Kind, bool) {
	return 0, false
}
