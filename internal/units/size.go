package units

import (
	"math"
	"strings"

	"github.com/c2h5oh/datasize"
	dockerunits "github.com/docker/go-units"
	"github.com/tphakala/filetools/internal/errors"
)

// ParseSize parses an integer size with an optional unit suffix, e.g. "250MB", "4 GB"
// or "512". Accepted suffixes are KB, MB, GB, TB, B or none, in any case.
func ParseSize(s string) (int64, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, errors.NewStd("size must not be empty")
	}

	digits := strings.IndexFunc(trimmed, func(r rune) bool { return r < '0' || r > '9' })
	if digits == 0 {
		return 0, errors.Newf("invalid size %q: must start with a number", s).
			Component("units").
			Category(errors.CategoryValidation).
			Build()
	}
	if digits > 0 {
		suffix := strings.ToUpper(strings.TrimSpace(trimmed[digits:]))
		if suffix != "B" {
			if _, err := ParseUnit(suffix); err != nil {
				return 0, err
			}
		}
	}

	size, err := datasize.ParseString(trimmed)
	if err != nil {
		return 0, errors.New(err).
			Component("units").
			Category(errors.CategoryValidation).
			Context("input", s).
			Build()
	}
	if size.Bytes() > math.MaxInt64 {
		return 0, errors.Newf("size %q overflows a 64-bit byte count", s).
			Component("units").
			Category(errors.CategoryValidation).
			Build()
	}
	return int64(size.Bytes()), nil //nolint:gosec // bounds checked above
}

// FormatSize renders bytes with the largest unit that keeps the value at least 1,
// falling back to plain bytes below 1 KB.
func FormatSize(bytes int64) string {
	units := Units()
	for i := len(units) - 1; i >= 0; i-- {
		m, _ := Multiplier(units[i])
		if bytes >= m {
			s, _ := Format(bytes, units[i])
			return s
		}
	}
	return datasize.ByteSize(max(bytes, 0)).String() //nolint:gosec // clamped to non-negative
}

// HumanSize renders bytes compactly with binary suffixes, e.g. "1.5GiB".
// Tables and progress lines use it where FormatSize is too wide.
func HumanSize(bytes uint64) string {
	return dockerunits.BytesSize(float64(bytes))
}
