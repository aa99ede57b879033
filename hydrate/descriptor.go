package hydrate

// How to select the concrete type of a polymorphic base from a record.
//
// Given record `{"kind": "circle", ...}` and descriptor
//
//	Descriptor{Field: "kind", Suffix: "Shape"}
//
// the discriminator value is `"circle"`, the candidate type name is the
// accessor form of `"circle" + "Shape"`, i.e. `"CircleShape"`. If no type
// is registered under that name, we retry within the namespace of the base
// (or `Namespace`, if set), e.g. `"shapes.CircleShape"`.
type Descriptor struct {
	// The record field holding the discriminator value. Required.
	Field string

	// The namespace used for the second lookup attempt.
	//
	// Optional. If empty, the namespace of the base type.
	Namespace string

	// Appended to the discriminator value before converting it into a
	// type name.
	Suffix string

	// Explicit discriminator value -> type name mapping. Takes precedence
	// over the naming convention. Type names found here are used verbatim.
	Map map[string]string
}

// A base type that knows its own descriptor.
//
// Implement it on the pointer type of a base struct, the registry calls
// it once on the prototype when the type is registered.
type Polymorphic interface {
	Discriminator() Descriptor
}

// Return the candidate type name for a discriminator value.
func (d *Descriptor) candidate(value string, accessor func(string) string) string {
	if name, ok := d.Map[value]; ok {
		return name
	}
	return accessor(value + d.Suffix)
}

func (d *Descriptor) clone() *Descriptor {
	if d == nil {
		return nil
	}
	mapping := make(map[string]string, len(d.Map))
	for k, v := range d.Map {
		mapping[k] = v
	}
	return &Descriptor{
		Field:     d.Field,
		Namespace: d.Namespace,
		Suffix:    d.Suffix,
		Map:       mapping,
	}
}
