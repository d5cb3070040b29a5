// Package filegen validates file generation requests, checks free space, runs the
// allocator and verifies the result.
package filegen

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/spf13/afero"

	"github.com/tphakala/filetools/internal/allocator"
	"github.com/tphakala/filetools/internal/errors"
	"github.com/tphakala/filetools/internal/logger"
	"github.com/tphakala/filetools/internal/units"
	"github.com/tphakala/filetools/internal/volumes"
)

// GetLogger returns the filegen module logger
func GetLogger() logger.Logger {
	return logger.Global().Module("filegen")
}

// Request is a file generation request as entered by a user
type Request struct {
	Dir  string `json:"dir"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Unit string `json:"unit"`
}

// Path returns the target file path
func (r *Request) Path() string {
	return filepath.Join(r.Dir, r.Name)
}

// Result describes a generated file
type Result struct {
	Path     string        `json:"path"`
	Bytes    int64         `json:"bytes"`
	Duration time.Duration `json:"duration"`
}

// Allocator writes zero-filled files. *allocator.Allocator implements it.
type Allocator interface {
	Allocate(ctx context.Context, req allocator.Request, onProgress allocator.ProgressFunc) error
}

// Lister enumerates volumes. *volumes.Enumerator implements it.
type Lister interface {
	Enumerate() ([]volumes.VolumeInfo, error)
}

// Generator runs validated allocations. It is safe for concurrent use; concurrent
// requests for the same path are rejected with ErrInProgress.
type Generator struct {
	fs             afero.Fs
	alloc          Allocator
	lister         Lister
	resolve        func(string, []volumes.VolumeInfo) (volumes.VolumeInfo, error)
	checkFreeSpace bool
	log            logger.Logger
	inflight       mapset.Set[string]
}

// Option configures a Generator
type Option func(*Generator)

// WithFs sets the filesystem used for validation and verification. Paths on a
// non-OS filesystem are matched to volumes without resolving symlinks.
func WithFs(fs afero.Fs) Option {
	return func(g *Generator) {
		if fs != nil {
			g.fs = fs
			g.resolve = volumes.Match
		}
	}
}

// WithAllocator sets the allocator
func WithAllocator(a Allocator) Option {
	return func(g *Generator) {
		if a != nil {
			g.alloc = a
		}
	}
}

// WithLister enables the free-space pre-check using l
func WithLister(l Lister) Option {
	return func(g *Generator) {
		g.lister = l
	}
}

// WithFreeSpaceCheck toggles the free-space pre-check
func WithFreeSpaceCheck(enabled bool) Option {
	return func(g *Generator) {
		g.checkFreeSpace = enabled
	}
}

// WithLogger sets the logger
func WithLogger(log logger.Logger) Option {
	return func(g *Generator) {
		if log != nil {
			g.log = log
		}
	}
}

// New creates a Generator writing to the OS filesystem
func New(opts ...Option) *Generator {
	g := &Generator{
		fs:             afero.NewOsFs(),
		resolve:        volumes.Resolve,
		checkFreeSpace: true,
		inflight:       mapset.NewSet[string](),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.alloc == nil {
		g.alloc = allocator.New(allocator.WithFs(g.fs))
	}
	if g.log == nil {
		g.log = GetLogger()
	}
	return g
}

// Validate checks req without touching the target. It returns the size in bytes.
func (g *Generator) Validate(req *Request) (int64, error) {
	if strings.TrimSpace(req.Dir) == "" || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Unit) == "" {
		return 0, fail(ErrMissingField, req.Path())
	}
	if req.Name != filepath.Base(req.Name) || req.Name == "." || req.Name == ".." || strings.ContainsAny(req.Name, `/\`) {
		return 0, fail(ErrInvalidName, req.Name)
	}

	info, err := g.fs.Stat(req.Dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return 0, fail(ErrDirNotFound, req.Dir)
	case err != nil:
		return 0, errors.New(err).
			Component("filegen").
			Context("path", req.Dir).
			Build()
	case !info.IsDir():
		return 0, fail(ErrNotDirectory, req.Dir)
	}

	if req.Size <= 0 {
		return 0, fail(ErrInvalidSize, req.Path())
	}

	unit, err := units.ParseUnit(req.Unit)
	if err != nil {
		return 0, errors.New(err).Component("filegen").Build()
	}
	size, err := units.ToBytes(req.Size, unit)
	if err != nil {
		return 0, err
	}
	return size, nil
}

// Task is a validated request whose path is claimed by this Generator. Run it,
// or Release it when it will not run.
type Task struct {
	g       *Generator
	path    string
	size    int64
	release sync.Once
}

// Path returns the target file path
func (t *Task) Path() string {
	return t.path
}

// SizeBytes returns the number of bytes the task will write
func (t *Task) SizeBytes() int64 {
	return t.size
}

// Release gives up the claim on the target path. It is safe to call more than once.
func (t *Task) Release() {
	t.release.Do(func() {
		t.g.inflight.Remove(t.path)
	})
}

// Run writes the file and verifies its size. The claim on the path is released
// when Run returns. onProgress may be nil.
func (t *Task) Run(ctx context.Context, onProgress allocator.ProgressFunc) (Result, error) {
	defer t.Release()

	g := t.g
	log := g.log.With(logger.String("path", t.path), logger.Int64("size_bytes", t.size))
	log.Info("Generating file")

	start := time.Now()
	if err := g.alloc.Allocate(ctx, allocator.Request{Path: t.path, SizeBytes: t.size}, onProgress); err != nil {
		return Result{}, err
	}

	if err := g.verify(t.path, t.size); err != nil {
		log.Error("Generated file failed verification", logger.Error(err))
		return Result{}, err
	}

	result := Result{Path: t.path, Bytes: t.size, Duration: time.Since(start)}
	log.Info("File generated", logger.Duration("elapsed", result.Duration))
	return result, nil
}

// Prepare validates req, claims its target path and runs the free-space check
// without writing anything
func (g *Generator) Prepare(req Request) (*Task, error) {
	size, err := g.Validate(&req)
	if err != nil {
		return nil, err
	}

	path := req.Path()
	if !g.inflight.Add(path) {
		return nil, fail(ErrInProgress, path)
	}
	task := &Task{g: g, path: path, size: size}

	if _, err := g.fs.Stat(path); err == nil {
		task.Release()
		return nil, fail(ErrFileExists, path)
	}

	if err := g.checkSpace(req.Dir, path, size); err != nil {
		task.Release()
		return nil, err
	}
	return task, nil
}

// Generate prepares and runs req. onProgress may be nil.
func (g *Generator) Generate(ctx context.Context, req Request, onProgress allocator.ProgressFunc) (Result, error) {
	task, err := g.Prepare(req)
	if err != nil {
		return Result{}, err
	}
	return task.Run(ctx, onProgress)
}

// InFlight reports whether path is currently being generated
func (g *Generator) InFlight(path string) bool {
	return g.inflight.Contains(path)
}

// checkSpace rejects requests larger than the free space of the volume holding dir.
// Failure to determine the volume is logged and does not block generation.
func (g *Generator) checkSpace(dir, path string, size int64) error {
	if !g.checkFreeSpace || g.lister == nil {
		return nil
	}

	vols, err := g.lister.Enumerate()
	if err != nil {
		g.log.Warn("Free space check skipped: cannot enumerate volumes", logger.Error(err))
		return nil
	}

	absDir := dir
	if abs, err := filepath.Abs(dir); err == nil {
		absDir = abs
	}
	vol, err := g.resolve(absDir, vols)
	if err != nil {
		g.log.Warn("Free space check skipped: no volume for directory",
			logger.String("dir", dir),
			logger.Error(err))
		return nil
	}

	if available := vol.AvailableBytes(); uint64(size) > available { //nolint:gosec // size validated positive
		return &InsufficientSpaceError{
			Path:      path,
			Volume:    vol.Name,
			Requested: size,
			Available: available,
		}
	}
	return nil
}

// verify checks the post-conditions the allocator does not check itself
func (g *Generator) verify(path string, size int64) error {
	info, err := g.fs.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fail(ErrFileMissing, path)
		}
		return errors.New(err).Component("filegen").Category(errors.CategoryFileIO).Build()
	}
	if info.Size() != size {
		return &SizeMismatchError{Path: path, Expected: size, Actual: info.Size()}
	}
	return nil
}

// allocationMessage translates allocator failures
func allocationMessage(err error) string {
	kind, ok := allocator.KindOf(err)
	if !ok {
		return "File generation failed: " + err.Error()
	}
	switch kind {
	case allocator.KindPermission:
		return "Permission denied: cannot write to the selected directory"
	case allocator.KindNoSpace:
		return "The disk ran out of space while writing the file"
	case allocator.KindPathInvalid:
		return "The file path is not valid on this system"
	case allocator.KindCanceled:
		return "File generation was canceled"
	case allocator.KindInvalidSize:
		return "The file size must be a number greater than zero"
	default:
		return "File generation failed: " + err.Error()
	}
}
