package allocator

import (
	"context"
	"io"
	"io/fs"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/tphakala/filetools/internal/errors"
	"github.com/tphakala/filetools/internal/logger"
)

const testChunk = 1024

// progressLog collects progress notifications
type progressLog struct {
	mu     sync.Mutex
	values []int
}

func (p *progressLog) record(pct int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values = append(p.values, pct)
}

// fakeRecorder captures Recorder calls
type fakeRecorder struct {
	mu       sync.Mutex
	statuses []string
	bytes    int64
}

func (r *fakeRecorder) RecordAllocation(status string, bytesWritten int64, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, status)
	r.bytes += bytesWritten
}

func newTestAllocator(fs afero.Fs, opts ...Option) *Allocator {
	base := []Option{
		WithFs(fs),
		WithChunkSize(testChunk),
		WithLogger(logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)),
	}
	return New(append(base, opts...)...)
}

func assertAllZero(t *testing.T, fs afero.Fs, path string, size int64) {
	t.Helper()

	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	require.Len(t, data, int(size))
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d is %d, want 0", i, b)
		}
	}
}

func TestAllocateExactSize(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	a := newTestAllocator(fs, WithChunkSize(100<<20))

	err := a.Allocate(t.Context(), Request{Path: "/out/a.bin", SizeBytes: 5 * 1024}, nil)
	require.NoError(t, err)

	info, err := fs.Stat("/out/a.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(5120), info.Size())
	assertAllZero(t, fs, "/out/a.bin", 5120)
}

func TestAllocateProgressExactMultiple(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	a := newTestAllocator(fs)
	progress := &progressLog{}

	err := a.Allocate(t.Context(), Request{Path: "/a.bin", SizeBytes: 2 * testChunk}, progress.record)
	require.NoError(t, err)

	assert.Equal(t, []int{50, 100}, progress.values)
}

func TestAllocateProgressWithRemainder(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	a := newTestAllocator(fs)
	progress := &progressLog{}

	// 100, 100, 50 units of chunk/100 => two full chunks plus a half chunk
	err := a.Allocate(t.Context(), Request{Path: "/a.bin", SizeBytes: testChunk*2 + testChunk/2}, progress.record)
	require.NoError(t, err)

	assert.Equal(t, []int{40, 80, 100}, progress.values)
	assertAllZero(t, fs, "/a.bin", testChunk*2+testChunk/2)
}

func TestAllocateProgressProperties(t *testing.T) {
	t.Parallel()

	sizes := []int64{1, testChunk - 1, testChunk, testChunk + 1, 3 * testChunk, 7*testChunk + 13, 100 * testChunk}

	for _, size := range sizes {
		fs := afero.NewMemMapFs()
		a := newTestAllocator(fs)
		progress := &progressLog{}

		require.NoError(t, a.Allocate(t.Context(), Request{Path: "/f", SizeBytes: size}, progress.record))

		info, err := fs.Stat("/f")
		require.NoError(t, err)
		assert.Equal(t, size, info.Size(), "size %d", size)

		require.NotEmpty(t, progress.values, "size %d", size)
		assert.Equal(t, 100, progress.values[len(progress.values)-1], "size %d", size)
		assert.IsNonDecreasing(t, progress.values, "size %d", size)

		fullChunks := size / testChunk
		if size < testChunk {
			fullChunks = 1
		}
		switch {
		case size%testChunk == 0 || size < testChunk:
			assert.Len(t, progress.values, int(fullChunks), "size %d", size)
		default:
			assert.Len(t, progress.values, int(fullChunks)+1, "size %d", size)
		}
	}
}

func TestAllocateRequestChunkOverride(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	a := newTestAllocator(fs)
	progress := &progressLog{}

	err := a.Allocate(t.Context(), Request{Path: "/a.bin", SizeBytes: 4 * testChunk, ChunkSizeBytes: 2 * testChunk}, progress.record)
	require.NoError(t, err)
	assert.Equal(t, []int{50, 100}, progress.values)
}

func TestAllocateRejectsNonPositiveSize(t *testing.T) {
	t.Parallel()

	for _, size := range []int64{0, -1} {
		memFs := afero.NewMemMapFs()
		a := newTestAllocator(memFs)
		progress := &progressLog{}

		err := a.Allocate(t.Context(), Request{Path: "/dir/a.bin", SizeBytes: size}, progress.record)

		kind, ok := KindOf(err)
		require.True(t, ok)
		assert.Equal(t, KindInvalidSize, kind)
		assert.True(t, errors.IsCategory(errors.New(err).Build(), errors.CategoryValidation))
		assert.Empty(t, progress.values)

		_, statErr := memFs.Stat("/dir")
		assert.ErrorIs(t, statErr, fs.ErrNotExist, "nothing may be created for size %d", size)
	}
}

func TestAllocateRejectsEmptyPath(t *testing.T) {
	t.Parallel()

	a := newTestAllocator(afero.NewMemMapFs())
	err := a.Allocate(t.Context(), Request{SizeBytes: 10}, nil)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindPathInvalid, kind)
}

func TestAllocateTruncatesExisting(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a.bin", []byte("previous content that is longer"), 0o644))

	a := newTestAllocator(fs)
	require.NoError(t, a.Allocate(t.Context(), Request{Path: "/a.bin", SizeBytes: 8}, nil))
	assertAllZero(t, fs, "/a.bin", 8)
}

func TestAllocateCreatesParentDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "deeper", "a.bin")

	a := New(WithChunkSize(testChunk), WithLogger(logger.NewSlogLogger(io.Discard, logger.LogLevelError, nil)))
	require.NoError(t, a.Allocate(t.Context(), Request{Path: path, SizeBytes: 3000}, nil))

	info, err := afero.NewOsFs().Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), info.Size())
}

func TestPackageAllocate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.bin")
	progress := &progressLog{}

	require.NoError(t, Allocate(t.Context(), path, 5*1024, progress.record))
	assert.Equal(t, []int{100}, progress.values)
}

func TestAllocateCanceledLeavesPartialFile(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	rec := &fakeRecorder{}
	a := newTestAllocator(fs, WithRecorder(rec))

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	progress := &progressLog{}
	err := a.Allocate(ctx, Request{Path: "/a.bin", SizeBytes: 4 * testChunk}, func(pct int) {
		progress.record(pct)
		cancel()
	})

	var allocErr *AllocationError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, KindCanceled, allocErr.Kind)
	assert.Equal(t, int64(testChunk), allocErr.Written)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{25}, progress.values)

	info, statErr := fs.Stat("/a.bin")
	require.NoError(t, statErr)
	assert.Equal(t, int64(testChunk), info.Size())

	assert.Equal(t, []string{StatusCanceled}, rec.statuses)
}

func TestAllocateReadOnlyFs(t *testing.T) {
	t.Parallel()

	rec := &fakeRecorder{}
	a := newTestAllocator(afero.NewReadOnlyFs(afero.NewMemMapFs()), WithRecorder(rec))

	err := a.Allocate(t.Context(), Request{Path: "a.bin", SizeBytes: 10}, nil)

	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindPermission, kind)
	assert.Equal(t, []string{StatusError}, rec.statuses)

	ee := errors.New(err).Build()
	assert.Equal(t, errors.CategoryPermission, ee.Category)
}

func TestAllocateRecordsSuccess(t *testing.T) {
	t.Parallel()

	rec := &fakeRecorder{}
	a := newTestAllocator(afero.NewMemMapFs(), WithRecorder(rec))

	require.NoError(t, a.Allocate(t.Context(), Request{Path: "/a", SizeBytes: 3 * testChunk}, nil))
	assert.Equal(t, []string{StatusSuccess}, rec.statuses)
	assert.Equal(t, int64(3*testChunk), rec.bytes)
}

func TestConcurrentAllocationsToDifferentPaths(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	a := newTestAllocator(fs)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			path := filepath.Join("/", "c", string(rune('a'+i)))
			assert.NoError(t, a.Allocate(t.Context(), Request{Path: path, SizeBytes: int64(i+1)*testChunk + 7}, nil))
		})
	}
	wg.Wait()

	for i := range 8 {
		path := filepath.Join("/", "c", string(rune('a'+i)))
		assertAllZero(t, fs, path, int64(i+1)*testChunk+7)
	}
}

func TestPercent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, percent(1, 1000))
	assert.Equal(t, 29, percent(29, 100))
	assert.Equal(t, 33, percent(1, 3))
	assert.Equal(t, 100, percent(7, 7))
	// large enough that written*100 overflows int64
	assert.Equal(t, 50, percent(1<<62, 1<<63-2))
}

func TestKindString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "no-space", KindNoSpace.String())
	assert.Equal(t, "io", KindIO.String())

	err := &AllocationError{Kind: KindNoSpace, Path: "/x", Err: fs.ErrClosed}
	assert.Contains(t, err.Error(), "/x: no-space")
	assert.Equal(t, errors.CategoryDiskFull, err.ErrorCategory())
}

func TestAllocateProgressRapid(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		size := rapid.Int64Range(1, 64*1024).Draw(rt, "size")
		chunk := rapid.Int64Range(1, 8*1024).Draw(rt, "chunk")

		memFs := afero.NewMemMapFs()
		a := newTestAllocator(memFs, WithChunkSize(chunk))
		var progress progressLog

		if err := a.Allocate(context.Background(), Request{Path: "/p.bin", SizeBytes: size}, progress.record); err != nil {
			rt.Fatalf("allocate: %v", err)
		}

		info, err := memFs.Stat("/p.bin")
		if err != nil || info.Size() != size {
			rt.Fatalf("file size = %v (%v), want %d", info, err, size)
		}

		effective := min(chunk, size)
		want := size / effective
		if size%effective != 0 {
			want++
		}
		if int64(len(progress.values)) != want {
			rt.Fatalf("got %d progress calls, want %d", len(progress.values), want)
		}
		for i := 1; i < len(progress.values); i++ {
			if progress.values[i] < progress.values[i-1] {
				rt.Fatalf("progress decreased: %v", progress.values)
			}
		}
		if last := progress.values[len(progress.values)-1]; last != 100 {
			rt.Fatalf("last progress = %d, want 100", last)
		}
	})
}
