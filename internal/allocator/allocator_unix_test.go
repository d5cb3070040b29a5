//go:build unix

package allocator

import (
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullFs accepts limit bytes per file and then fails writes with ENOSPC
type fullFs struct {
	afero.Fs
	limit int64
}

func (f *fullFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	file, err := f.Fs.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return &fullFile{File: file, remaining: f.limit}, nil
}

type fullFile struct {
	afero.File
	remaining int64
}

func (f *fullFile) Write(p []byte) (int, error) {
	if int64(len(p)) > f.remaining {
		return 0, &fs.PathError{Op: "write", Path: f.Name(), Err: syscall.ENOSPC}
	}
	f.remaining -= int64(len(p))
	return f.File.Write(p)
}

func TestAllocateNoSpace(t *testing.T) {
	t.Parallel()

	mem := afero.NewMemMapFs()
	a := newTestAllocator(&fullFs{Fs: mem, limit: 2 * testChunk})
	progress := &progressLog{}

	err := a.Allocate(t.Context(), Request{Path: "/a.bin", SizeBytes: 5 * testChunk}, progress.record)

	var allocErr *AllocationError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, KindNoSpace, allocErr.Kind)
	assert.Equal(t, int64(2*testChunk), allocErr.Written)
	assert.Equal(t, []int{20, 40}, progress.values)

	// partial file is left behind
	info, statErr := mem.Stat("/a.bin")
	require.NoError(t, statErr)
	assert.Equal(t, int64(2*testChunk), info.Size())
}

func TestClassifyErrno(t *testing.T) {
	t.Parallel()

	tests := []struct {
		errno syscall.Errno
		kind  Kind
	}{
		{syscall.ENOSPC, KindNoSpace},
		{syscall.EDQUOT, KindNoSpace},
		{syscall.EACCES, KindPermission},
		{syscall.EROFS, KindPermission},
		{syscall.ENAMETOOLONG, KindPathInvalid},
		{syscall.ENOTDIR, KindPathInvalid},
		{syscall.EIO, KindIO},
	}

	for _, tt := range tests {
		err := &fs.PathError{Op: "open", Path: "/x", Err: tt.errno}
		assert.Equal(t, tt.kind, classify(err), tt.errno.Error())
	}
}
