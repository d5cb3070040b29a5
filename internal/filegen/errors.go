package filegen

import (
	"fmt"

	"github.com/tphakala/filetools/internal/errors"
	"github.com/tphakala/filetools/internal/units"
)

// Sentinel errors returned (wrapped) by Generate
var (
	ErrMissingField = errors.NewStd("directory, file name, size and unit are required")
	ErrInvalidName  = errors.NewStd("file name must not contain path separators")
	ErrDirNotFound  = errors.NewStd("directory does not exist")
	ErrNotDirectory = errors.NewStd("path is not a directory")
	ErrInvalidSize  = errors.NewStd("size must be greater than zero")
	ErrFileExists   = errors.NewStd("target file already exists")
	ErrInProgress   = errors.NewStd("target file is already being generated")
	ErrFileMissing  = errors.NewStd("generated file does not exist")
)

// InsufficientSpaceError means the target volume cannot hold the requested file
type InsufficientSpaceError struct {
	Path      string
	Volume    string
	Requested int64
	Available uint64
}

func (e *InsufficientSpaceError) Error() string {
	return fmt.Sprintf("not enough space on %s for %s: %d bytes requested, %d available",
		e.Volume, e.Path, e.Requested, e.Available)
}

// ErrorCategory implements errors.CategorizedError
func (e *InsufficientSpaceError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryDiskFull
}

// SizeMismatchError means the written file does not have the requested size
type SizeMismatchError struct {
	Path     string
	Expected int64
	Actual   int64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("generated file %s has %d bytes, expected %d", e.Path, e.Actual, e.Expected)
}

// ErrorCategory implements errors.CategorizedError
func (e *SizeMismatchError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryFileIO
}

// categoryOf maps sentinels to error categories
func categoryOf(sentinel error) errors.ErrorCategory {
	switch sentinel {
	case ErrDirNotFound:
		return errors.CategoryNotFound
	case ErrFileExists, ErrInProgress:
		return errors.CategoryConflict
	case ErrFileMissing:
		return errors.CategoryFileIO
	default:
		return errors.CategoryValidation
	}
}

// fail wraps a sentinel with request context
func fail(sentinel error, path string) error {
	return errors.New(fmt.Errorf("%w: %s", sentinel, path)).
		Component("filegen").
		Category(categoryOf(sentinel)).
		Context("path", path).
		Build()
}

// UserMessage translates a Generate error into a message for people.
// Unknown errors fall back to their own text.
func UserMessage(err error) string {
	if err == nil {
		return "File generated successfully"
	}

	var (
		unitErr  *units.UnsupportedUnitError
		spaceErr *InsufficientSpaceError
		sizeErr  *SizeMismatchError
	)
	switch {
	case errors.Is(err, ErrMissingField):
		return "Please fill in the directory, file name, size and unit"
	case errors.Is(err, ErrInvalidName):
		return "The file name must not contain a directory"
	case errors.Is(err, ErrDirNotFound), errors.Is(err, ErrNotDirectory):
		return "The selected directory does not exist"
	case errors.Is(err, ErrInvalidSize):
		return "The file size must be a number greater than zero"
	case errors.As(err, &unitErr):
		return fmt.Sprintf("Unsupported unit %q, use KB, MB, GB or TB", unitErr.Unit)
	case errors.Is(err, ErrFileExists):
		return "A file with this name already exists"
	case errors.Is(err, ErrInProgress):
		return "This file is already being generated"
	case errors.As(err, &spaceErr):
		return fmt.Sprintf("Not enough free space: %s requested, %s available",
			units.FormatSize(spaceErr.Requested), units.FormatSize(int64(min(spaceErr.Available, uint64(1<<63-1))))) //nolint:gosec // clamped
	case errors.Is(err, ErrFileMissing), errors.As(err, &sizeErr):
		return "File generation failed: the file was not written completely"
	}
	return allocationMessage(err)
}
