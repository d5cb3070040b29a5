package allocator

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/tphakala/filetools/internal/errors"
)

// Kind classifies an allocation failure
type Kind int

const (
	// KindIO is any I/O failure not covered by a more specific kind
	KindIO Kind = iota
	// KindPermission means the destination or a parent directory is not writable
	KindPermission
	// KindNoSpace means the volume or a quota ran out of space
	KindNoSpace
	// KindPathInvalid means the destination path cannot name a regular file
	KindPathInvalid
	// KindCanceled means the context was canceled between chunks
	KindCanceled
	// KindInvalidSize means the requested size was not positive
	KindInvalidSize
)

func (k Kind) String() string {
	switch k {
	case KindPermission:
		return "permission"
	case KindNoSpace:
		return "no-space"
	case KindPathInvalid:
		return "path-invalid"
	case KindCanceled:
		return "canceled"
	case KindInvalidSize:
		return "invalid-size"
	default:
		return "io"
	}
}

// AllocationError reports why an allocation failed. A partially written file is
// left on disk; Written holds the number of bytes that reached it.
type AllocationError struct {
	Kind    Kind
	Path    string
	Written int64
	Err     error
}

func (e *AllocationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("allocate %s: %s", e.Path, e.Kind)
	}
	return fmt.Sprintf("allocate %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *AllocationError) Unwrap() error {
	return e.Err
}

// ErrorCategory implements errors.CategorizedError
func (e *AllocationError) ErrorCategory() errors.ErrorCategory {
	switch e.Kind {
	case KindPermission:
		return errors.CategoryPermission
	case KindNoSpace:
		return errors.CategoryDiskFull
	case KindPathInvalid, KindInvalidSize:
		return errors.CategoryValidation
	case KindCanceled:
		return errors.CategoryCancellation
	default:
		return errors.CategoryFileIO
	}
}

// KindOf returns the kind of the first AllocationError in err's chain
func KindOf(err error) (Kind, bool) {
	var allocErr *AllocationError
	if errors.As(err, &allocErr) {
		return allocErr.Kind, true
	}
	return 0, false
}

// newAllocationError classifies err and wraps it
func newAllocationError(path string, written int64, err error) *AllocationError {
	return &AllocationError{
		Kind:    classify(err),
		Path:    path,
		Written: written,
		Err:     err,
	}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, fs.ErrPermission):
		return KindPermission
	}
	if kind, ok := classifyErrno(err); ok {
		return kind
	}
	return KindIO
}
