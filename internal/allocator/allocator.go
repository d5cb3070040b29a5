// Package allocator creates zero-filled files of an exact size.
//
// Files are written sequentially in fixed-size chunks rather than truncated or
// preallocated, so the result is fully zero-initialized on every platform and peak
// memory stays bounded by the chunk size. Progress is reported after every full chunk
// and once more with 100 when the file is complete.
package allocator

import (
	"context"
	"io"
	"math/bits"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/tphakala/filetools/internal/errors"
	"github.com/tphakala/filetools/internal/logger"
)

// DefaultChunkSize is the write granularity used when none is configured
const DefaultChunkSize int64 = 100 << 20

const (
	dirPermissions  = 0o755
	filePermissions = 0o644
)

// Allocation outcomes reported to the Recorder
const (
	StatusSuccess  = "success"
	StatusError    = "error"
	StatusCanceled = "canceled"
)

// GetLogger returns the allocator module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("allocator")
}

// ProgressFunc receives integer percentages in [0, 100]. It is called synchronously
// from the writing goroutine and should return quickly.
type ProgressFunc func(percent int)

// Request describes one file to allocate
type Request struct {
	Path      string
	SizeBytes int64
	// ChunkSizeBytes overrides the allocator chunk size when positive
	ChunkSizeBytes int64
}

// Recorder receives allocation outcomes
type Recorder interface {
	RecordAllocation(status string, bytesWritten int64, seconds float64)
}

// Allocator writes zero-filled files through an afero filesystem
type Allocator struct {
	fs        afero.Fs
	chunkSize int64
	log       logger.Logger
	recorder  Recorder
}

// Option configures an Allocator
type Option func(*Allocator)

// WithFs sets the filesystem files are written to
func WithFs(fs afero.Fs) Option {
	return func(a *Allocator) {
		if fs != nil {
			a.fs = fs
		}
	}
}

// WithChunkSize sets the default chunk size. Non-positive values are ignored.
func WithChunkSize(size int64) Option {
	return func(a *Allocator) {
		if size > 0 {
			a.chunkSize = size
		}
	}
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(a *Allocator) {
		if log != nil {
			a.log = log
		}
	}
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(a *Allocator) {
		a.recorder = r
	}
}

// New creates an Allocator writing to the OS filesystem with DefaultChunkSize
func New(opts ...Option) *Allocator {
	a := &Allocator{
		fs:        afero.NewOsFs(),
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = GetLogger()
	}
	return a
}

// ChunkSize returns the configured default chunk size
func (a *Allocator) ChunkSize() int64 {
	return a.chunkSize
}

// Allocate is a convenience wrapper writing to the OS filesystem with the default chunk size
func Allocate(ctx context.Context, path string, sizeBytes int64, onProgress ProgressFunc) error {
	return New().Allocate(ctx, Request{Path: path, SizeBytes: sizeBytes}, onProgress)
}

// Allocate writes req.SizeBytes zero bytes to req.Path, creating parent directories
// and truncating any existing file. On failure the partial file is left in place and
// an *AllocationError is returned.
func (a *Allocator) Allocate(ctx context.Context, req Request, onProgress ProgressFunc) error {
	start := time.Now()
	written, err := a.allocate(ctx, req, onProgress)
	a.record(req, written, time.Since(start), err)
	return err
}

func (a *Allocator) allocate(ctx context.Context, req Request, onProgress ProgressFunc) (int64, error) {
	if req.Path == "" {
		return 0, &AllocationError{Kind: KindPathInvalid, Err: errors.NewStd("path must not be empty")}
	}
	if req.SizeBytes <= 0 {
		return 0, &AllocationError{
			Kind: KindInvalidSize,
			Path: req.Path,
			Err:  errors.Newf("size must be greater than zero, got %d", req.SizeBytes).Build(),
		}
	}

	chunkSize := a.chunkSize
	if req.ChunkSizeBytes > 0 {
		chunkSize = req.ChunkSizeBytes
	}
	if chunkSize > req.SizeBytes {
		chunkSize = req.SizeBytes
	}

	if dir := filepath.Dir(req.Path); dir != "" {
		if err := a.fs.MkdirAll(dir, dirPermissions); err != nil {
			return 0, newAllocationError(req.Path, 0, err)
		}
	}

	file, err := a.fs.OpenFile(req.Path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, filePermissions)
	if err != nil {
		return 0, newAllocationError(req.Path, 0, err)
	}

	fullChunks := req.SizeBytes / chunkSize
	remainder := req.SizeBytes % chunkSize

	a.log.Debug("Allocation started",
		logger.String("path", req.Path),
		logger.Int64("size_bytes", req.SizeBytes),
		logger.Int64("chunk_size", chunkSize),
		logger.Int64("full_chunks", fullChunks),
		logger.Int64("remainder", remainder))

	buf := getZeroBuffer(int(chunkSize))
	defer putZeroBuffer(buf)

	var written int64
	lastReported := -1

	for range fullChunks {
		if err := writeChunk(ctx, file, *buf); err != nil {
			_ = file.Close()
			return written, newAllocationError(req.Path, written, err)
		}
		written += chunkSize
		lastReported = percent(written, req.SizeBytes)
		report(onProgress, lastReported)
	}

	if remainder > 0 {
		if err := writeChunk(ctx, file, (*buf)[:remainder]); err != nil {
			_ = file.Close()
			return written, newAllocationError(req.Path, written, err)
		}
		written += remainder
	}

	if err := file.Sync(); err != nil {
		_ = file.Close()
		return written, newAllocationError(req.Path, written, err)
	}
	if err := file.Close(); err != nil {
		return written, newAllocationError(req.Path, written, err)
	}

	if lastReported != 100 {
		report(onProgress, 100)
	}

	return written, nil
}

// writeChunk writes buf unless ctx is already done
func writeChunk(ctx context.Context, w io.Writer, buf []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n, err := w.Write(buf)
	if err != nil {
		return err
	}
	if n != len(buf) {
		return io.ErrShortWrite
	}
	return nil
}

// percent returns floor(written*100/total) without overflowing int64
func percent(written, total int64) int {
	hi, lo := bits.Mul64(uint64(written), 100) //nolint:gosec // both values are positive
	q, _ := bits.Div64(hi, lo, uint64(total))  //nolint:gosec // written <= total keeps hi < total
	return int(q)                              //nolint:gosec // q <= 100
}

func report(onProgress ProgressFunc, pct int) {
	if onProgress != nil {
		onProgress(pct)
	}
}

func (a *Allocator) record(req Request, written int64, elapsed time.Duration, err error) {
	status := StatusSuccess
	switch kind, _ := KindOf(err); {
	case err == nil:
		a.log.Info("Allocation completed",
			logger.String("path", req.Path),
			logger.Int64("size_bytes", written),
			logger.Duration("elapsed", elapsed))
	case kind == KindCanceled:
		status = StatusCanceled
		a.log.Warn("Allocation canceled",
			logger.String("path", req.Path),
			logger.Int64("written_bytes", written))
	default:
		status = StatusError
		a.log.Error("Allocation failed",
			logger.String("path", req.Path),
			logger.String("kind", kind.String()),
			logger.Int64("written_bytes", written),
			logger.Error(err))
	}

	if a.recorder != nil {
		a.recorder.RecordAllocation(status, written, elapsed.Seconds())
	}
}
