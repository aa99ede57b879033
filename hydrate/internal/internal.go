package internal

import (
	"fmt"
	"strconv"
)

// Convert the textual representation of a number, as found in a payload,
// into the scalar stored in records: `int64` if the number is integral and
// fits, `float64` otherwise.
func Number(text string) (any, error) {
	if asInt, err := strconv.ParseInt(text, 10, 64); err == nil {
		return asInt, nil
	}
	asFloat, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", text)
	}
	return asFloat, nil
}
