package tags

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/pasqal-io/gohydrate/assertions/initialized"
)

// The tag marking a struct field as directly hydratable, e.g.
//
//	type Circle struct {
//	    Radius int `hydrate:"radius"`
//	}
const Hydrate = "hydrate"

// The option marking a declared field as dehydrated but never bound, e.g.
// `hydrate:"id,readonly"`.
const Readonly = "readonly"

// A representation of the tags for a given field.
type Tags struct {
	tags    map[string][]string
	witness initialized.IsInitialized
}

func Empty() Tags {
	return Tags{
		tags:    make(map[string][]string),
		witness: initialized.Make(),
	}
}

// Parse the tag associated to a struct field, according to the specs
// of Go tags.
func Parse(tag reflect.StructTag) (Tags, error) {
	tags := make(map[string][]string)
	// Copied and pasted from Go's type.go.
	for tag != "" {
		// Skip leading space.
		i := 0
		for i < len(tag) && tag[i] == ' ' {
			i++
		}
		tag = tag[i:]
		if tag == "" {
			break
		}

		// Scan to colon. A space, a quote or a control character is a syntax error.
		// Strictly speaking, control chars include the range [0x7f, 0x9f], not just
		// [0x00, 0x1f], but in practice, we ignore the multi-byte control characters
		// as it is simpler to inspect the tag's bytes than the tag's runes.
		i = 0
		for i < len(tag) && tag[i] > ' ' && tag[i] != ':' && tag[i] != '"' && tag[i] != 0x7f {
			i++
		}
		if i == 0 || i+1 >= len(tag) || tag[i] != ':' || tag[i+1] != '"' {
			// Give up on parsing.
			break
		}
		name := string(tag[:i])
		if name == "" {
			return Tags{}, errors.New("invalid tag with empty name")
		}
		if _, exists := tags[name]; exists {
			return Tags{}, fmt.Errorf("invalid tag, name %s should only be defined once", name)
		}

		tag = tag[i+1:]

		// Scan quoted string to find value.
		i = 1
		for i < len(tag) && tag[i] != '"' {
			if tag[i] == '\\' {
				i++
			}
			i++
		}
		if i >= len(tag) {
			break
		}
		qvalue := string(tag[:i+1])
		tag = tag[i+1:]

		list, err := strconv.Unquote(qvalue)
		if err != nil {
			return Tags{}, fmt.Errorf("ill-formed tag %s:\n\t * %w", name, err)
		}

		split := strings.Split(list, ",")
		trimmed := make([]string, 0)
		for i, s := range split {
			t := strings.Trim(s, " ")
			// The first entry is positional (the public name), keep it even if empty.
			if t != "" || i == 0 {
				trimmed = append(trimmed, t)
			}
		}
		tags[name] = trimmed
	}
	return Tags{
		tags:    tags,
		witness: initialized.Make(),
	}, nil
}

// Return the public field name for a field.
//
// e.g. for `hydrate:"radius"`, this means that the field is bound to
// input key `radius` and dehydrated under the same key. A renamed field is
// no longer bound under its Go name.
//
// Returns nil if the tag is absent, empty (`hydrate:""`) or `-`.
func (tags Tags) PublicFieldName(key string) *string {
	tags.witness.Assert()
	result, ok := tags.tags[key]
	if !ok || len(result) == 0 || result[0] == "" || result[0] == "-" {
		return nil
	}
	return &result[0]
}

// Return `true` if this field was explicitly declared as hydratable,
// i.e. it carries tag `key` with a name other than `-`.
//
// An empty name (`hydrate:""`) declares the field hydratable under its
// default name.
func (tags Tags) IsDeclared(key string) bool {
	tags.witness.Assert()
	result, ok := tags.tags[key]
	if !ok {
		return false
	}
	return len(result) == 0 || result[0] != "-"
}

// Return `true` if this field is excluded with `-`, e.g. `hydrate:"-"`.
//
// Excluded fields are neither bound nor dehydrated, even if the model
// declares accessors for them.
func (tags Tags) IsExcluded(key string) bool {
	tags.witness.Assert()
	result, ok := tags.tags[key]
	return ok && len(result) > 0 && result[0] == "-"
}

// Return `true` if tag `key` lists `option` after the public name,
// e.g. `hydrate:"radius,readonly"` has option `readonly`.
func (tags Tags) HasOption(key string, option string) bool {
	tags.witness.Assert()
	result, ok := tags.tags[key]
	if !ok || len(result) < 2 {
		return false
	}
	for _, candidate := range result[1:] {
		if candidate == option {
			return true
		}
	}
	return false
}

// Return `true` if this field is marked as `flatten`, e.g.
//
//	type Labelled struct {
//	    Meta struct {
//	        name string
//	    } `flatten:""`
//	}
//
// in which case the dehydrated fields of `Meta` are written directly into
// the record of `Labelled`. Anonymous fields are always flattened.
func (tags Tags) IsFlattened() bool {
	tags.witness.Assert()
	_, ok := tags.tags["flatten"]
	return ok
}

// Lookup a key.
func (tags Tags) Lookup(key string) ([]string, bool) {
	tags.witness.Assert()
	result, ok := tags.tags[key]
	return result, ok
}
