package align

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrMalformedNumeral is returned when numeric attribute is present but
// cannot be parsed. This aborts processing of the whole document.
var ErrMalformedNumeral = errors.New("malformed numeral")

// NumeralError describes which attribute could not be parsed and where.
type NumeralError struct {
	Attr  string
	Value string
	Path  string
	Err   error
}

func (e *NumeralError) Error() string {
	return fmt.Sprintf("%s %q in attribute %q of %s", ErrMalformedNumeral, e.Value, e.Attr, e.Path)
}

func (e *NumeralError) Unwrap() []error {
	return []error{ErrMalformedNumeral, e.Err}
}

// parseNumeral accepts anything float32 parser does. Values out of float32
// range saturate to infinity (or zero) and are not errors.
func parseNumeral(attr, value, path string) (float32, error) {
	v, err := strconv.ParseFloat(value, 32)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, &NumeralError{Attr: attr, Value: value, Path: path, Err: err}
	}
	return float32(v), nil
}

func formatNumeral(v float32) string {
	switch {
	case math.IsInf(float64(v), 1):
		return "inf"
	case math.IsInf(float64(v), -1):
		return "-inf"
	}
	return strconv.FormatFloat(float64(v), 'f', -1, 32)
}
