package hydrate

import (
	"encoding"
	"reflect"

	"github.com/pasqal-io/gohydrate/hydrate/shared"
)

// How an input key binds to a model.
type BindingKind int

const (
	// The key binds to nothing and is dropped.
	Unbound BindingKind = iota

	// The key binds to a setter `SetX(T)`.
	Setter

	// The key binds to a setter `SetX([]E)` together with an adder
	// `AddX(E)`. Updates append through the adder.
	CollectionSetter

	// The key binds to a struct field declared with tag `hydrate`.
	DirectField
)

func (kind BindingKind) String() string {
	switch kind {
	case Unbound:
		return "unbound"
	case Setter:
		return "setter"
	case CollectionSetter:
		return "collection setter"
	case DirectField:
		return "direct field"
	default:
		return "unknown"
	}
}

// The resolved binding of one input key.
type FieldBinding struct {
	Kind BindingKind

	// The input key.
	Key string

	// The accessor form of the key, e.g. "FirstName" for "first_name".
	Accessor string

	// The type expected by the setter or the field, nil if unbound.
	Type reflect.Type

	// For collections, the element type accepted by the adder.
	Element reflect.Type

	setter *accessor
	adder  *accessor
	field  *directField
}

var textUnmarshalerInterface = reflect.TypeFor[encoding.TextUnmarshaler]()

// Resolve how input key `key`, holding `value`, binds to a model of type
// `model` (a pointer to a struct).
//
//  1. If the model has a setter for the key:
//     - if the value is composite, the setter accepts a slice and the model
//     also has an adder for the key, this is a `CollectionSetter`;
//     - otherwise, a `Setter`.
//  2. Otherwise, if the model declares a field for the key with tag
//     `hydrate`, under its public name if renamed, under its Go name
//     otherwise, this is a `DirectField`.
//  3. Otherwise, `Unbound`.
func (r *Registry) ResolveProperty(model reflect.Type, key string, value any) (FieldBinding, error) {
	r.witness.Assert()
	caps, err := r.capabilitiesOf(model)
	if err != nil {
		return FieldBinding{}, err //nolint:exhaustruct
	}
	return r.resolveProperty(caps, key, value), nil
}

func (r *Registry) resolveProperty(caps *capabilities, key string, value any) FieldBinding {
	name := r.naming.Accessor(key)
	binding := FieldBinding{
		Kind:     Unbound,
		Key:      key,
		Accessor: name,
		Type:     nil,
		Element:  nil,
		setter:   nil,
		adder:    nil,
		field:    nil,
	}
	if setter, ok := caps.setters[name]; ok {
		binding.Type = setter.typ
		binding.setter = setter
		if adder, ok := caps.adders[name]; ok && shared.IsComposite(value) && isCollection(setter.typ) {
			binding.Kind = CollectionSetter
			binding.Element = adder.typ
			binding.adder = adder
			return binding
		}
		binding.Kind = Setter
		if isCollection(setter.typ) {
			binding.Element = setter.typ.Elem()
		}
		return binding
	}
	// A renamed field only binds under its public name.
	field, ok := caps.renamed[key]
	if !ok {
		field, ok = caps.fields[name]
		ok = ok && field.public == nil
	}
	if ok {
		binding.Kind = DirectField
		binding.Type = field.typ
		binding.field = field
	}
	return binding
}

// Return `true` if values of this type are built by the hydrator from
// records, rather than converted from scalars.
func isObjectType(typ reflect.Type) bool {
	if reflect.PointerTo(typ).Implements(textUnmarshalerInterface) || typ.Implements(textUnmarshalerInterface) {
		return false
	}
	switch typ.Kind() {
	case reflect.Interface:
		return typ.NumMethod() > 0
	case reflect.Struct:
		return typ != recordType.Elem()
	case reflect.Pointer:
		return typ.Elem().Kind() == reflect.Struct && typ != recordType
	default:
		return false
	}
}

func isCollection(typ reflect.Type) bool {
	return typ.Kind() == reflect.Slice && typ.Elem().Kind() != reflect.Uint8
}

var recordType = reflect.TypeFor[*shared.Record]()
