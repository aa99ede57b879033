package hydrate

import (
	"encoding"
	"fmt"
	"reflect"

	"golang.org/x/exp/constraints"

	"github.com/pasqal-io/gohydrate/hydrate/shared"
)

// Convert a scalar (or a sequence or record of scalars) into a value of
// type `target`.
//
// Accepts:
//   - values already assignable to `target`;
//   - numbers of any Go numeric type, as long as they fit `target`
//     without overflow or truncation;
//   - strings, for numbers, booleans and types implementing
//     `encoding.TextUnmarshaler` (e.g. `uuid.UUID`);
//   - values convertible to named types, e.g. `"red"` for `type Color string`;
//   - sequences, for slices, element by element;
//   - records, for `map[string]T`, entry by entry.
func coerce(path string, value any, target reflect.Type) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(target), nil
	}
	source := reflect.ValueOf(value)
	if source.Type().AssignableTo(target) {
		if target.Kind() == reflect.Interface {
			return source.Convert(target), nil
		}
		return source, nil
	}
	if text, ok := value.(string); ok {
		return coerceString(path, text, target)
	}
	if result, ok := coerceNumber(value, target); ok {
		return result, nil
	}
	switch target.Kind() {
	case reflect.Bool, reflect.String:
		if source.Kind() == target.Kind() {
			return source.Convert(target), nil
		}
	case reflect.Slice:
		if sequence, ok := shared.AsSequence(value); ok {
			result := reflect.MakeSlice(target, 0, len(sequence))
			for i, item := range sequence {
				converted, err := coerce(fmt.Sprintf("%s[%d]", path, i), item, target.Elem())
				if err != nil {
					return reflect.Value{}, err
				}
				result = reflect.Append(result, converted)
			}
			return result, nil
		}
	case reflect.Map:
		if record, ok := shared.AsRecord(value); ok && target.Key().Kind() == reflect.String {
			result := reflect.MakeMapWithSize(target, record.Len())
			var err error
			record.Each(func(key string, item any) bool {
				var converted reflect.Value
				converted, err = coerce(path+"."+key, item, target.Elem())
				if err != nil {
					return false
				}
				result.SetMapIndex(reflect.ValueOf(key).Convert(target.Key()), converted)
				return true
			})
			if err != nil {
				return reflect.Value{}, err
			}
			return result, nil
		}
	default:
	}
	return reflect.Value{}, ValueError{
		Path:     path,
		Expected: target.String(),
		Got:      value,
		Wrapped:  nil,
	}
}

func coerceString(path string, text string, target reflect.Type) (reflect.Value, error) {
	if reflect.PointerTo(target).Implements(textUnmarshalerInterface) {
		result := reflect.New(target)
		if err := result.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil { //nolint:forcetypeassert
			return reflect.Value{}, ValueError{
				Path:     path,
				Expected: target.String(),
				Got:      text,
				Wrapped:  err,
			}
		}
		return result.Elem(), nil
	}
	parser := shared.LookupParser(target)
	if parser == nil {
		return reflect.Value{}, ValueError{
			Path:     path,
			Expected: target.String(),
			Got:      text,
			Wrapped:  nil,
		}
	}
	parsed, err := (*parser)(text)
	if err != nil {
		return reflect.Value{}, ValueError{
			Path:     path,
			Expected: target.String(),
			Got:      text,
			Wrapped:  err,
		}
	}
	return reflect.ValueOf(parsed).Convert(target), nil
}

type number interface {
	constraints.Integer | constraints.Float
}

// Convert any Go number into a number of type `target`.
func coerceNumber(value any, target reflect.Type) (reflect.Value, bool) {
	switch typed := value.(type) {
	case int:
		return convertNumber(typed, target)
	case int8:
		return convertNumber(typed, target)
	case int16:
		return convertNumber(typed, target)
	case int32:
		return convertNumber(typed, target)
	case int64:
		return convertNumber(typed, target)
	case uint:
		return convertNumber(typed, target)
	case uint8:
		return convertNumber(typed, target)
	case uint16:
		return convertNumber(typed, target)
	case uint32:
		return convertNumber(typed, target)
	case uint64:
		return convertNumber(typed, target)
	case float32:
		return convertNumber(typed, target)
	case float64:
		return convertNumber(typed, target)
	default:
		return reflect.Value{}, false
	}
}

// Convert `n` into a number of type `target`, rejecting conversions that
// would overflow or lose the fractional part.
func convertNumber[N number](n N, target reflect.Type) (reflect.Value, bool) {
	result := reflect.New(target).Elem()
	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		asInt := int64(n)
		if N(asInt) != n || (asInt < 0) != (n < 0) || result.OverflowInt(asInt) {
			return reflect.Value{}, false
		}
		result.SetInt(asInt)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if n < 0 {
			return reflect.Value{}, false
		}
		asUint := uint64(n)
		if N(asUint) != n || result.OverflowUint(asUint) {
			return reflect.Value{}, false
		}
		result.SetUint(asUint)
	case reflect.Float32, reflect.Float64:
		asFloat := float64(n)
		if result.OverflowFloat(asFloat) {
			return reflect.Value{}, false
		}
		result.SetFloat(asFloat)
	default:
		return reflect.Value{}, false
	}
	return result, true
}
