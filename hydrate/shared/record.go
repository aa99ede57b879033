package shared

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// An insertion-ordered record, the untyped side of hydration.
//
// Values stored in a record are either:
// - `nil`;
// - a scalar (`bool`, `int64`, `float64`, `string`, or any other value the
//   caller chooses to pass through);
// - a nested `*Record`;
// - a sequence `[]any` of the above.
//
// Drivers (json, yaml, kvlist) only ever produce these shapes. Keys are
// iterated in the order in which they were first inserted, so hydration
// binds keys in payload order and dehydration writes fields in
// declaration order.
type Record struct {
	entries *orderedmap.OrderedMap[string, any]
}

// Create an empty record.
func NewRecord() *Record {
	return &Record{
		entries: orderedmap.New[string, any](),
	}
}

// Create a record from (key, value) pairs, e.g.
//
//	shared.RecordOf("kind", "circle", "radius", 5)
//
// Panics if `pairs` has an odd length or a key is not a string.
func RecordOf(pairs ...any) *Record {
	if len(pairs)%2 != 0 {
		panic("RecordOf expects (key, value) pairs")
	}
	record := NewRecord()
	for i := 0; i < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("RecordOf expects string keys, got %T at position %d", pairs[i], i))
		}
		record.Set(key, pairs[i+1])
	}
	return record
}

// Lookup a key.
func (r *Record) Lookup(key string) (any, bool) {
	if r == nil || r.entries == nil {
		return nil, false
	}
	return r.entries.Get(key)
}

// Lookup a key, returning `nil` if it is absent.
func (r *Record) Get(key string) any {
	value, _ := r.Lookup(key)
	return value
}

// Set a key.
//
// Setting an existing key replaces its value but keeps its position.
// Unlike the read accessors, Set needs a non-nil record and panics on nil.
func (r *Record) Set(key string, value any) {
	if r == nil {
		panic(fmt.Sprintf("cannot set key %q on a nil record", key))
	}
	if r.entries == nil {
		r.entries = orderedmap.New[string, any]()
	}
	r.entries.Set(key, value)
}

// Remove a key, returning `true` if it was present.
func (r *Record) Delete(key string) bool {
	if r == nil || r.entries == nil {
		return false
	}
	_, present := r.entries.Delete(key)
	return present
}

// The number of keys.
func (r *Record) Len() int {
	if r == nil || r.entries == nil {
		return 0
	}
	return r.entries.Len()
}

// The keys, in insertion order.
func (r *Record) Keys() []string {
	keys := make([]string, 0, r.Len())
	r.Each(func(key string, _ any) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Visit every (key, value), in insertion order, until `visit` returns `false`.
func (r *Record) Each(visit func(key string, value any) bool) {
	if r == nil || r.entries == nil {
		return
	}
	for pair := r.entries.Oldest(); pair != nil; pair = pair.Next() {
		if !visit(pair.Key, pair.Value) {
			return
		}
	}
}

// A deep copy of this record: nested records and sequences are copied,
// scalars are shared.
func (r *Record) Clone() *Record {
	clone := NewRecord()
	r.Each(func(key string, value any) bool {
		clone.Set(key, CloneValue(value))
		return true
	})
	return clone
}

// Convert into nested `map[string]any`, dropping key order.
//
// Useful to hand a record to libraries that only understand plain maps.
func (r *Record) ToMap() map[string]any {
	result := make(map[string]any, r.Len())
	r.Each(func(key string, value any) bool {
		result[key] = toPlain(value)
		return true
	})
	return result
}

// Convert nested `map[string]any` into a record.
//
// Go maps are unordered, so keys are inserted in sorted order to keep the
// result deterministic.
func FromMap(source map[string]any) *Record {
	record := NewRecord()
	keys := make([]string, 0, len(source))
	for key := range source {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		record.Set(key, fromPlain(source[key]))
	}
	return record
}

// Encode as a JSON object, in key order.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r == nil || r.entries == nil {
		return []byte("{}"), nil
	}
	return r.entries.MarshalJSON() //nolint:wrapcheck
}

func (r *Record) String() string {
	var builder strings.Builder
	builder.WriteString("{")
	first := true
	r.Each(func(key string, value any) bool {
		if !first {
			builder.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&builder, "%s: %v", key, value)
		return true
	})
	builder.WriteString("}")
	return builder.String()
}

var _ json.Marshaler = &Record{} //nolint:exhaustruct

// Deep-copy a record value.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case *Record:
		return typed.Clone()
	case []any:
		result := make([]any, len(typed))
		for i, item := range typed {
			result[i] = CloneValue(item)
		}
		return result
	default:
		return value
	}
}

// Return `true` if a value is composite, i.e. a record or a sequence.
func IsComposite(value any) bool {
	switch value.(type) {
	case *Record, []any:
		return true
	default:
		return false
	}
}

// Interpret a value as a record.
func AsRecord(value any) (*Record, bool) {
	record, ok := value.(*Record)
	return record, ok && record != nil
}

// Interpret a value as a sequence.
//
// A record is not a sequence.
func AsSequence(value any) ([]any, bool) {
	sequence, ok := value.([]any)
	return sequence, ok
}

// Return `true` if a value counts as empty when used as a discriminator:
// absent, nil or the empty string.
func IsEmpty(value any) bool {
	switch typed := value.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	default:
		return false
	}
}

func toPlain(value any) any {
	switch typed := value.(type) {
	case *Record:
		return typed.ToMap()
	case []any:
		result := make([]any, len(typed))
		for i, item := range typed {
			result[i] = toPlain(item)
		}
		return result
	default:
		return value
	}
}

func fromPlain(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return FromMap(typed)
	case []any:
		result := make([]any, len(typed))
		for i, item := range typed {
			result[i] = fromPlain(item)
		}
		return result
	default:
		return value
	}
}
