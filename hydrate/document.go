package hydrate

import (
	"fmt"

	"github.com/pasqal-io/gohydrate/hydrate/json"
	"github.com/pasqal-io/gohydrate/hydrate/kvlist"
	"github.com/pasqal-io/gohydrate/hydrate/shared"
	"github.com/pasqal-io/gohydrate/hydrate/yaml"
)

// A generic model, for types that only exist as names, e.g. schemas read
// from an OpenAPI document.
//
// A document keeps the record it was loaded from verbatim. Updates merge
// into it key by key.
type Document struct {
	typeName string
	fields   *shared.Record
}

// Create an empty document of type `typeName`.
func NewDocument(typeName string) *Document {
	return &Document{
		typeName: typeName,
		fields:   shared.NewRecord(),
	}
}

// A constructor for documents of type `typeName`, to pass to
// `Registry.Register`.
func DocumentConstructor(typeName string) Constructor {
	return func(_ *shared.Record, _ Deps) (any, error) {
		return NewDocument(typeName), nil
	}
}

// The name of the type this document was constructed as.
func (d *Document) TypeName() string {
	return d.typeName
}

// The contents of the document.
func (d *Document) Fields() *shared.Record {
	return d.fields
}

func (d *Document) LoadRecord(data *shared.Record) error {
	if d.fields == nil {
		d.fields = shared.NewRecord()
	}
	data.Each(func(key string, value any) bool {
		d.fields.Set(key, shared.CloneValue(value))
		return true
	})
	return nil
}

func (d *Document) Dehydrate() (*shared.Record, error) {
	if d.fields == nil {
		return shared.NewRecord(), nil
	}
	return d.fields.Clone(), nil
}

func (d *Document) Updatable() bool {
	return true
}

var (
	_ shared.RecordLoader = &Document{} //nolint:exhaustruct
	_ shared.Dehydrater   = &Document{} //nolint:exhaustruct
	_ Updatable           = &Document{} //nolint:exhaustruct
)

// Lookup a driver by name: "json", "yaml" (or "yml") or "kvlist".
func DriverFor(name string) (shared.Driver, error) {
	switch name {
	case "json":
		return json.Driver{}, nil
	case "yaml", "yml":
		return yaml.Driver{}, nil
	case "kvlist":
		return kvlist.Driver{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q, expected json, yaml or kvlist", name)
	}
}
