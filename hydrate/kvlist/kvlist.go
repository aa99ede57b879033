// Code specific to hydrating from (key, value list) stores, e.g. query
// strings or url-encoded forms.
package kvlist

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/pasqal-io/gohydrate/hydrate/shared"
)

// The hydration driver for url-encoded (key, value list) payloads.
type Driver struct{}

// The type of a (key, value list) store.
type KVList map[string][]string

func (Driver) Name() string {
	return "kvlist"
}

// Decode a url-encoded payload, e.g. `kind=circle&radius=5`.
//
// Keys keep the order of their first occurrence. A key that appears once
// becomes a string, a key that appears several times becomes a sequence of
// strings. Strings are converted to the target type by the hydrator.
func (Driver) Decode(buf []byte) (*shared.Record, error) {
	return ParseQuery(string(buf))
}

// Encode a flat record as a url-encoded payload.
//
// Nested records cannot be represented and are rejected.
func (Driver) Encode(record *shared.Record) ([]byte, error) {
	var builder strings.Builder
	var err error
	record.Each(func(key string, value any) bool {
		var values []string
		values, err = flatten(value)
		if err != nil {
			err = fmt.Errorf("at %s:\n\t * %w", key, err)
			return false
		}
		for _, v := range values {
			if builder.Len() > 0 {
				builder.WriteByte('&')
			}
			builder.WriteString(url.QueryEscape(key))
			builder.WriteByte('=')
			builder.WriteString(url.QueryEscape(v))
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return []byte(builder.String()), nil
}

var _ shared.Driver = Driver{}

// Parse a raw query string into a record, preserving key order.
func ParseQuery(query string) (*shared.Record, error) {
	record := shared.NewRecord()
	for _, part := range strings.Split(query, "&") {
		if part == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(part, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("invalid key %q:\n\t * %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("invalid value for key %s:\n\t * %w", key, err)
		}
		appendValue(record, key, value)
	}
	return record, nil
}

// Convert a (key, value list) store into a record.
//
// Go maps are unordered, so keys are inserted in sorted order.
func (list KVList) ToRecord() *shared.Record {
	keys := make([]string, 0, len(list))
	for k := range list {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	record := shared.NewRecord()
	for _, key := range keys {
		for _, value := range list[key] {
			appendValue(record, key, value)
		}
	}
	return record
}

// Convert `url.Values` (e.g. `request.URL.Query()`) into a record.
func FromURLValues(values url.Values) *shared.Record {
	return KVList(values).ToRecord()
}

func appendValue(record *shared.Record, key string, value string) {
	previous, exists := record.Lookup(key)
	switch {
	case !exists:
		record.Set(key, value)
	default:
		if sequence, ok := previous.([]any); ok {
			record.Set(key, append(sequence, value))
		} else {
			record.Set(key, []any{previous, value})
		}
	}
}

func flatten(value any) ([]string, error) {
	switch typed := value.(type) {
	case nil:
		return []string{""}, nil
	case string:
		return []string{typed}, nil
	case bool:
		return []string{strconv.FormatBool(typed)}, nil
	case int64:
		return []string{strconv.FormatInt(typed, 10)}, nil
	case int:
		return []string{strconv.Itoa(typed)}, nil
	case float64:
		return []string{strconv.FormatFloat(typed, 'g', -1, 64)}, nil
	case []any:
		result := make([]string, 0, len(typed))
		for _, item := range typed {
			if shared.IsComposite(item) {
				return nil, errors.New("nested values cannot be url-encoded")
			}
			flat, err := flatten(item)
			if err != nil {
				return nil, err
			}
			result = append(result, flat...)
		}
		return result, nil
	case *shared.Record:
		return nil, errors.New("nested records cannot be url-encoded")
	case fmt.Stringer:
		return []string{typed.String()}, nil
	default:
		return []string{fmt.Sprint(typed)}, nil
	}
}
