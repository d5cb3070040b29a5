// Package units converts between byte counts and the display units KB, MB, GB and TB.
//
// Multipliers are binary (1 KB = 1024 bytes). All functions are pure and safe for
// concurrent use.
package units

import (
	"fmt"
	"math"
	"strings"

	"github.com/c2h5oh/datasize"
	"github.com/tphakala/filetools/internal/errors"
)

// Unit is a display unit name
type Unit string

const (
	KB Unit = "KB"
	MB Unit = "MB"
	GB Unit = "GB"
	TB Unit = "TB"
)

// unitTable maps each supported unit to its byte multiplier
var unitTable = map[Unit]datasize.ByteSize{
	KB: datasize.KB,
	MB: datasize.MB,
	GB: datasize.GB,
	TB: datasize.TB,
}

// Units returns the supported units in ascending order
func Units() []Unit {
	return []Unit{KB, MB, GB, TB}
}

// UnsupportedUnitError is returned for any unit outside KB, MB, GB and TB
type UnsupportedUnitError struct {
	Unit string
}

func (e *UnsupportedUnitError) Error() string {
	return fmt.Sprintf("unsupported unit %q: must be one of KB, MB, GB, TB", e.Unit)
}

// ErrorCategory implements errors.CategorizedError
func (e *UnsupportedUnitError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryValidation
}

// ParseUnit parses a unit name. Matching ignores case and surrounding whitespace.
func ParseUnit(s string) (Unit, error) {
	u := Unit(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := unitTable[u]; !ok {
		return "", &UnsupportedUnitError{Unit: s}
	}
	return u, nil
}

// String returns the unit name
func (u Unit) String() string {
	return string(u)
}

// Multiplier returns the number of bytes in one unit
func Multiplier(u Unit) (int64, error) {
	m, ok := unitTable[u]
	if !ok {
		return 0, &UnsupportedUnitError{Unit: string(u)}
	}
	return int64(m.Bytes()), nil //nolint:gosec // TB fits in int64
}

// ToBytes converts value units into bytes
func ToBytes(value int64, u Unit) (int64, error) {
	m, err := Multiplier(u)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, errors.Newf("value must not be negative: %d", value).
			Component("units").
			Category(errors.CategoryValidation).
			Build()
	}
	if value > math.MaxInt64/m {
		return 0, errors.Newf("%d %s overflows a 64-bit byte count", value, u).
			Component("units").
			Category(errors.CategoryValidation).
			Context("unit", string(u)).
			Build()
	}
	return value * m, nil
}

// FromBytes converts a byte count into u for display
func FromBytes(bytes int64, u Unit) (float64, error) {
	m, err := Multiplier(u)
	if err != nil {
		return 0, err
	}
	return float64(bytes) / float64(m), nil
}

// FromBytesUint is FromBytes for unsigned capacities as reported by the OS
func FromBytesUint(bytes uint64, u Unit) (float64, error) {
	m, err := Multiplier(u)
	if err != nil {
		return 0, err
	}
	return float64(bytes) / float64(m), nil
}

// Format renders bytes in u with two decimals, e.g. "1.50 GB"
func Format(bytes int64, u Unit) (string, error) {
	v, err := FromBytes(bytes, u)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%.2f %s", v, u), nil
}

// FormatUint is Format for unsigned capacities
func FormatUint(bytes uint64, u Unit) (string, error) {
	v, err := FromBytesUint(bytes, u)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%.2f %s", v, u), nil
}
