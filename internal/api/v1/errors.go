package api

import (
	"net/http"

	"github.com/tphakala/filetools/internal/allocator"
	"github.com/tphakala/filetools/internal/errors"
	"github.com/tphakala/filetools/internal/filegen"
	"github.com/tphakala/filetools/internal/units"
)

// statusFor maps a generation error to an HTTP status
func statusFor(err error) int {
	var (
		spaceErr *filegen.InsufficientSpaceError
		unitErr  *units.UnsupportedUnitError
	)
	switch {
	case errors.As(err, &spaceErr):
		return http.StatusInsufficientStorage
	case errors.As(err, &unitErr),
		errors.Is(err, filegen.ErrDirNotFound),
		errors.IsCategory(err, errors.CategoryValidation):
		return http.StatusBadRequest
	case errors.IsCategory(err, errors.CategoryConflict):
		return http.StatusConflict
	}

	switch kind, ok := allocator.KindOf(err); {
	case ok && kind == allocator.KindPermission:
		return http.StatusForbidden
	case ok && kind == allocator.KindNoSpace:
		return http.StatusInsufficientStorage
	case ok && (kind == allocator.KindPathInvalid || kind == allocator.KindInvalidSize):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
