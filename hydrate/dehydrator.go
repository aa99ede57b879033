package hydrate

import (
	"fmt"
	"reflect"

	"github.com/pasqal-io/gohydrate/assertions/initialized"
	"github.com/pasqal-io/gohydrate/hydrate/shared"
)

// A dehydrator, converting models back into records.
//
// A field is dehydrated if and only if the model has a getter for it,
// e.g. field `radius` is dehydrated through `GetRadius()`. Fields are
// written in declaration order, under their `hydrate` tag name if any,
// or their external name otherwise.
type Dehydrator struct {
	witness  initialized.IsInitialized
	registry *Registry
}

// Create a dehydrator.
//
// The registry provides the naming convention and the capability cache,
// it may be shared with hydrators.
func NewDehydrator(registry *Registry) *Dehydrator {
	registry.witness.Assert()
	return &Dehydrator{
		witness:  initialized.Make(),
		registry: registry,
	}
}

// Dehydrate a model into a record.
//
// Nested models are dehydrated recursively, sequences element by element.
// Other values are written as they are.
func (d *Dehydrator) Dehydrate(instance any) (*shared.Record, error) {
	d.witness.Assert()
	value := reflect.ValueOf(instance)
	if !value.IsValid() {
		return nil, fmt.Errorf("cannot dehydrate %T, expected a model", instance)
	}
	return d.dehydrateModel(typeName(value.Type()), value)
}

func (d *Dehydrator) dehydrateModel(path string, value reflect.Value) (*shared.Record, error) {
	value = addressable(value)
	if value.Kind() != reflect.Pointer || value.IsNil() {
		return nil, fmt.Errorf("cannot dehydrate %s at %s, expected a model", value.Type(), path)
	}
	if dehydrater, ok := value.Interface().(shared.Dehydrater); ok {
		record, err := dehydrater.Dehydrate()
		if err != nil {
			return nil, CustomHydratorError{
				Operation: "Dehydrate",
				Path:      path,
				Wrapped:   err,
			}
		}
		return record, nil
	}
	if value.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("cannot dehydrate %s at %s, expected a model", value.Type(), path)
	}
	caps, err := d.registry.capabilitiesOf(value.Type())
	if err != nil {
		return nil, fmt.Errorf("at %s:\n\t * %w", path, err)
	}
	record := shared.NewRecord()
	for _, out := range caps.outputs {
		fieldPath := path + "." + out.key
		got, err := out.getter.call(value)
		if err != nil {
			return nil, CustomHydratorError{
				Operation: "getter " + out.getter.name,
				Path:      fieldPath,
				Wrapped:   err,
			}
		}
		converted, err := d.convert(fieldPath, got)
		if err != nil {
			return nil, err
		}
		record.Set(out.key, converted)
	}
	return record, nil
}

// Convert the result of a getter into a record value.
func (d *Dehydrator) convert(path string, value reflect.Value) (any, error) {
	if !value.IsValid() {
		return nil, nil
	}
	switch value.Kind() {
	case reflect.Interface:
		if value.IsNil() {
			return nil, nil
		}
		return d.convert(path, value.Elem())
	case reflect.Pointer:
		if value.IsNil() {
			return nil, nil
		}
	case reflect.Slice:
		if value.IsNil() {
			return nil, nil
		}
		if value.Type().Elem().Kind() == reflect.Uint8 {
			return value.Interface(), nil
		}
		result := make([]any, value.Len())
		for i := range value.Len() {
			converted, err := d.convert(fmt.Sprintf("%s[%d]", path, i), value.Index(i))
			if err != nil {
				return nil, err
			}
			result[i] = converted
		}
		return result, nil
	default:
	}
	if d.isModel(value) {
		return d.dehydrateModel(path, value)
	}
	return value.Interface(), nil
}

var dehydraterInterface = reflect.TypeFor[shared.Dehydrater]()

// Return `true` if a value is dehydrated as a nested record.
func (d *Dehydrator) isModel(value reflect.Value) bool {
	if !value.CanInterface() {
		return false
	}
	typ := value.Type()
	if typ == recordType {
		return false
	}
	if typ.Implements(dehydraterInterface) || reflect.PointerTo(typ).Implements(dehydraterInterface) {
		return true
	}
	if typ.Kind() == reflect.Struct {
		typ = reflect.PointerTo(typ)
	}
	if typ.Kind() != reflect.Pointer || typ.Elem().Kind() != reflect.Struct {
		return false
	}
	d.registry.mutex.RLock()
	_, registered := d.registry.byType[typ]
	d.registry.mutex.RUnlock()
	if registered {
		return true
	}
	caps, err := d.registry.capabilitiesOf(typ)
	return err == nil && len(caps.outputs) > 0
}

// Return a pointer to `value`, copying it if necessary, so that getters
// with pointer receivers are reachable.
func addressable(value reflect.Value) reflect.Value {
	if value.Kind() == reflect.Pointer {
		return value
	}
	if value.CanAddr() {
		return value.Addr()
	}
	copied := reflect.New(value.Type())
	copied.Elem().Set(value)
	return copied
}
