// Code specific to hydrating from and dehydrating to JSON.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/cyberphone/json-canonicalization/go/src/webpki.org/jsoncanonicalizer"

	"github.com/pasqal-io/gohydrate/hydrate/internal"
	"github.com/pasqal-io/gohydrate/hydrate/shared"
)

// The hydration driver for JSON.
type Driver struct{}

func (Driver) Name() string {
	return "json"
}

// Decode a JSON object into a record.
//
// Unlike `json.Unmarshal` into a `map[string]any`, key order is preserved at
// every depth. Integral numbers become `int64`, other numbers `float64`.
func (Driver) Decode(buf []byte) (*shared.Record, error) {
	return Decode(buf)
}

// Encode a record as JSON, in key order.
func (Driver) Encode(record *shared.Record) ([]byte, error) {
	return Encode(record)
}

var _ shared.Driver = Driver{}

// Decode a JSON object into a record.
func Decode(buf []byte) (*shared.Record, error) {
	decoder := json.NewDecoder(bytes.NewReader(buf))
	decoder.UseNumber()
	value, err := decodeValue(decoder)
	if err != nil {
		return nil, fmt.Errorf("invalid json value:\n\t * %w", err)
	}
	// Reject trailing data, e.g. `{} {}`.
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid json value: unexpected data after top-level value")
	}
	record, ok := value.(*shared.Record)
	if !ok {
		return nil, fmt.Errorf("expected a json object, got %T", value)
	}
	return record, nil
}

// Encode a record as JSON, in key order.
func Encode(record *shared.Record) ([]byte, error) {
	buf, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode record:\n\t * %w", err)
	}
	return buf, nil
}

// Encode a record as canonical JSON (RFC 8785): keys sorted, numbers and
// strings in their canonical form.
//
// Two records with the same content always produce the same bytes, which
// makes the output fit for hashing or signing.
func EncodeCanonical(record *shared.Record) ([]byte, error) {
	buf, err := Encode(record)
	if err != nil {
		return nil, err
	}
	canonical, err := jsoncanonicalizer.Transform(buf)
	if err != nil {
		return nil, fmt.Errorf("could not canonicalize record:\n\t * %w", err)
	}
	return canonical, nil
}

func decodeValue(decoder *json.Decoder) (any, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	switch typed := token.(type) {
	case json.Delim:
		switch typed {
		case '{':
			return decodeObject(decoder)
		case '[':
			return decodeArray(decoder)
		default:
			return nil, fmt.Errorf("unexpected delimiter %s", typed)
		}
	case json.Number:
		return internal.Number(typed.String())
	default:
		// nil, bool, string.
		return typed, nil
	}
}

func decodeObject(decoder *json.Decoder) (*shared.Record, error) {
	record := shared.NewRecord()
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return nil, err //nolint:wrapcheck
		}
		key, ok := token.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", token)
		}
		value, err := decodeValue(decoder)
		if err != nil {
			return nil, fmt.Errorf("at %s:\n\t * %w", key, err)
		}
		record.Set(key, value)
	}
	// Consume `}`.
	if _, err := decoder.Token(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return record, nil
}

func decodeArray(decoder *json.Decoder) ([]any, error) {
	result := make([]any, 0)
	for decoder.More() {
		value, err := decodeValue(decoder)
		if err != nil {
			return nil, fmt.Errorf("at [%d]:\n\t * %w", len(result), err)
		}
		result = append(result, value)
	}
	// Consume `]`.
	if _, err := decoder.Token(); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return result, nil
}
