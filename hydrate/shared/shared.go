package shared

import (
	"reflect"
	"strconv"
)

// A driver for a specific payload format.
//
// The hydration core has no wire format of its own: drivers turn bytes into
// ordered records and back.
type Driver interface {
	// A short name for the format, e.g. "json".
	Name() string

	// Decode a payload whose top-level value is an object.
	Decode([]byte) (*Record, error)

	// Encode a record, preserving key order.
	Encode(*Record) ([]byte, error)
}

// A parser for strings into primitive values.
type Parser func(source string) (any, error)

// Lookup a parser for values of kind `fieldType`, or nil if strings
// cannot be parsed into this kind.
//
// Used to accept e.g. `"42"` for an `int` setter, which happens with query
// strings and forms, for which everything is a string.
func LookupParser(fieldType reflect.Type) *Parser {
	var result *Parser
	switch fieldType.Kind() {
	case reflect.Bool:
		var p Parser = func(source string) (any, error) {
			return strconv.ParseBool(source) //nolint:wrapcheck
		}
		result = &p
	case reflect.Float32:
		var p Parser = func(source string) (any, error) {
			return strconv.ParseFloat(source, 32) //nolint:wrapcheck
		}
		result = &p
	case reflect.Float64:
		var p Parser = func(source string) (any, error) {
			return strconv.ParseFloat(source, 64) //nolint:wrapcheck
		}
		result = &p
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		bits := fieldType.Bits()
		var p Parser = func(source string) (any, error) {
			return strconv.ParseInt(source, 10, bits) //nolint:wrapcheck
		}
		result = &p
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		bits := fieldType.Bits()
		var p Parser = func(source string) (any, error) {
			return strconv.ParseUint(source, 10, bits) //nolint:wrapcheck
		}
		result = &p
	case reflect.String:
		var p Parser = func(source string) (any, error) {
			return source, nil
		}
		result = &p
	default:
		return nil
	}
	return result
}

// A model that knows how to hydrate itself from a record.
//
// If a model implements `RecordLoader`, the hydrator does not bind keys
// one by one, it hands over the complete record instead.
//
// Important: We expect `RecordLoader` to be implemented on **pointers**.
type RecordLoader interface {
	LoadRecord(*Record) error
}

// A value that knows how to dehydrate itself.
//
// If a value implements `Dehydrater`, the dehydrator does not walk its
// getters, it uses the record returned by `Dehydrate` instead.
type Dehydrater interface {
	Dehydrate() (*Record, error)
}
