package hydrate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pasqal-io/gohydrate/hydrate/naming"
	"github.com/pasqal-io/gohydrate/hydrate/tags"
)

var errorInterface = reflect.TypeFor[error]()

// A setter, adder or getter, as found in the method set of a model.
type accessor struct {
	// The method name, e.g. "SetRadius".
	name string

	// The index in the method set of the model type.
	index int

	// For setters and adders, the type of the single argument.
	// For getters, the type of the first result.
	typ reflect.Type

	// `true` if the method also returns an `error`.
	fallible bool
}

// Call an accessor on a model, converting a returned `error` into a Go error.
func (a *accessor) call(receiver reflect.Value, args ...reflect.Value) (reflect.Value, error) {
	out := receiver.Method(a.index).Call(args)
	if a.fallible {
		if err, ok := out[len(out)-1].Interface().(error); ok && err != nil {
			return reflect.Value{}, err
		}
	}
	results := len(out)
	if a.fallible {
		results--
	}
	if results == 0 {
		return reflect.Value{}, nil
	}
	return out[0], nil
}

// A struct field explicitly declared as hydratable with tag `hydrate`.
type directField struct {
	// The Go field name.
	name string

	// The key under which the field is bound and dehydrated, if renamed.
	public *string

	index []int
	typ   reflect.Type
}

// An entry of the dehydration plan.
type output struct {
	// The key in the dehydrated record.
	key string

	getter *accessor
}

// What a model type can do, computed once per type.
type capabilities struct {
	typ reflect.Type

	// Indexed by accessor name, e.g. "Radius" for `SetRadius`.
	setters map[string]*accessor
	adders  map[string]*accessor
	getters map[string]*accessor

	// Indexed by Go field name.
	fields map[string]*directField

	// Indexed by public name, for renamed fields.
	renamed map[string]*directField

	// Getter-backed fields, in declaration order.
	outputs []output
}

// Return the capabilities of a model type, computing them if necessary.
func (r *Registry) capabilitiesOf(typ reflect.Type) (*capabilities, error) {
	if cached, ok := r.capabilities.Load(typ); ok {
		return cached.(*capabilities), nil //nolint:forcetypeassert
	}
	caps, err := buildCapabilities(typ, r.naming)
	if err != nil {
		return nil, err
	}
	actual, _ := r.capabilities.LoadOrStore(typ, caps)
	return actual.(*capabilities), nil //nolint:forcetypeassert
}

func buildCapabilities(typ reflect.Type, converter naming.Converter) (*capabilities, error) {
	caps := &capabilities{
		typ:     typ,
		setters: make(map[string]*accessor),
		adders:  make(map[string]*accessor),
		getters: make(map[string]*accessor),
		fields:  make(map[string]*directField),
		renamed: make(map[string]*directField),
		outputs: nil,
	}
	for i := range typ.NumMethod() {
		method := typ.Method(i)
		// Note: `method.Type` includes the receiver.
		in, out := method.Type.NumIn(), method.Type.NumOut()
		switch {
		case strings.HasPrefix(method.Name, "Set") && len(method.Name) > 3 && in == 2:
			if fallible, ok := setterResults(method.Type, out); ok {
				caps.setters[method.Name[3:]] = &accessor{name: method.Name, index: i, typ: method.Type.In(1), fallible: fallible}
			}
		case strings.HasPrefix(method.Name, "Add") && len(method.Name) > 3 && in == 2:
			if fallible, ok := setterResults(method.Type, out); ok {
				caps.adders[method.Name[3:]] = &accessor{name: method.Name, index: i, typ: method.Type.In(1), fallible: fallible}
			}
		case strings.HasPrefix(method.Name, "Get") && len(method.Name) > 3 && in == 1:
			switch {
			case out == 1:
				caps.getters[method.Name[3:]] = &accessor{name: method.Name, index: i, typ: method.Type.Out(0), fallible: false}
			case out == 2 && method.Type.Out(1) == errorInterface:
				caps.getters[method.Name[3:]] = &accessor{name: method.Name, index: i, typ: method.Type.Out(0), fallible: true}
			}
		}
	}
	if typ.Kind() != reflect.Pointer || typ.Elem().Kind() != reflect.Struct {
		return caps, nil
	}
	seen := make(map[string]bool)
	if err := caps.walkFields(typ.Elem(), nil, true, converter, seen, make(map[reflect.Type]bool)); err != nil {
		return nil, fmt.Errorf("invalid model %s:\n\t * %w", typeName(typ), err)
	}
	return caps, nil
}

// Setters and adders return nothing or an `error`.
func setterResults(method reflect.Type, out int) (bool, bool) {
	switch {
	case out == 0:
		return false, true
	case out == 1 && method.Out(0) == errorInterface:
		return true, true
	default:
		return false, false
	}
}

// Walk the fields of a struct in declaration order, recording direct
// fields and the dehydration plan. Anonymous and `flatten` fields are
// walked recursively.
//
// Fields reached through a pointer or an unexported struct are dehydrated
// but never set directly. A struct already being walked, e.g. one that
// embeds a pointer to itself, is not walked again.
func (caps *capabilities) walkFields(typ reflect.Type, prefix []int, settable bool, converter naming.Converter, seen map[string]bool, walking map[reflect.Type]bool) error {
	walking[typ] = true
	defer delete(walking, typ)
	for i := range typ.NumField() {
		field := typ.Field(i)
		fieldTags, err := tags.Parse(field.Tag)
		if err != nil {
			return fmt.Errorf("invalid tags on field %s:\n\t * %w", field.Name, err)
		}
		if fieldTags.IsExcluded(tags.Hydrate) {
			continue
		}
		index := append(append([]int{}, prefix...), i)
		if field.Anonymous || fieldTags.IsFlattened() {
			inner := field.Type
			if inner.Kind() == reflect.Pointer {
				inner = inner.Elem()
			}
			if walking[inner] {
				continue
			}
			if inner.Kind() == reflect.Struct {
				innerSettable := settable && field.Type.Kind() != reflect.Pointer && field.IsExported()
				if err := caps.walkFields(inner, index, innerSettable, converter, seen, walking); err != nil {
					return err
				}
				continue
			}
		}
		public := fieldTags.PublicFieldName(tags.Hydrate)
		if settable && field.IsExported() && fieldTags.IsDeclared(tags.Hydrate) && !fieldTags.HasOption(tags.Hydrate, tags.Readonly) {
			caps.addField(field, public, index)
		}

		accessorName := naming.UpperFirst(field.Name)
		getter, ok := caps.getters[accessorName]
		if !ok {
			accessorName = converter.Accessor(field.Name)
			getter, ok = caps.getters[accessorName]
		}
		if !ok {
			continue
		}
		key := converter.External(accessorName)
		if public != nil {
			key = *public
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		caps.outputs = append(caps.outputs, output{key: key, getter: getter})
	}
	return nil
}

func (caps *capabilities) addField(field reflect.StructField, public *string, index []int) {
	if _, ok := caps.fields[field.Name]; ok {
		return
	}
	direct := &directField{
		name:   field.Name,
		public: public,
		index:  index,
		typ:    field.Type,
	}
	caps.fields[field.Name] = direct
	if public != nil {
		caps.renamed[*public] = direct
	}
}
