// Read discriminators from OpenAPI 3 documents.
//
// Schemas that declare a `discriminator` become polymorphic bases:
//
//	components:
//	  schemas:
//	    Pet:
//	      discriminator:
//	        propertyName: petType
//	        mapping:
//	          kitty: '#/components/schemas/Cat'
//
// gives descriptor `{Field: "petType", Map: {"kitty": "Cat"}}`. Values absent
// from the mapping name the schema directly, e.g. `"Dog"`.
package openapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/pasqal-io/gohydrate/hydrate"
)

// The schemas of a document and their discriminators.
type Descriptors struct {
	// Every schema of `components.schemas`, sorted by name.
	Schemas []string

	// The descriptors of polymorphic schemas, by schema name.
	Discriminators map[string]hydrate.Descriptor
}

// Options for loading documents.
type Options struct {
	// Follow `$ref`s to other files or URLs.
	AllowExternalRefs bool

	// Validate the document before reading it.
	Validate bool
}

// Validate, no external refs.
func DefaultOptions() Options {
	return Options{
		AllowExternalRefs: false,
		Validate:          true,
	}
}

// Load a document from memory, as JSON or YAML.
func Load(ctx context.Context, data []byte, options Options) (*Descriptors, error) {
	if len(data) == 0 {
		return nil, errors.New("openapi: document is empty")
	}
	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: options.AllowExternalRefs,
	}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("openapi: cannot load document:\n\t * %w", err)
	}
	return read(ctx, spec, options)
}

// Load a document from a file, as JSON or YAML.
func LoadFile(ctx context.Context, path string, options Options) (*Descriptors, error) {
	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: options.AllowExternalRefs,
	}
	spec, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("openapi: cannot load %s:\n\t * %w", path, err)
	}
	return read(ctx, spec, options)
}

// The subset of a document we care about.
type document struct {
	Components struct {
		Schemas map[string]struct {
			Discriminator *struct {
				PropertyName string                     `json:"propertyName"`
				Mapping      map[string]json.RawMessage `json:"mapping"`
			} `json:"discriminator"`
		} `json:"schemas"`
	} `json:"components"`
}

func read(ctx context.Context, spec *openapi3.T, options Options) (*Descriptors, error) {
	if options.Validate {
		if err := spec.Validate(ctx, openapi3.DisableExamplesValidation()); err != nil {
			return nil, fmt.Errorf("openapi: invalid document:\n\t * %w", err)
		}
	}
	// Go through the serialized form, which is stable across versions
	// of the library.
	buf, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("openapi: cannot read document:\n\t * %w", err)
	}
	var doc document
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("openapi: cannot read document:\n\t * %w", err)
	}

	result := &Descriptors{
		Schemas:        make([]string, 0, len(doc.Components.Schemas)),
		Discriminators: make(map[string]hydrate.Descriptor),
	}
	for name, schema := range doc.Components.Schemas {
		result.Schemas = append(result.Schemas, name)
		if schema.Discriminator == nil {
			continue
		}
		if schema.Discriminator.PropertyName == "" {
			return nil, fmt.Errorf("openapi: schema %s has a discriminator without propertyName", name)
		}
		mapping := make(map[string]string, len(schema.Discriminator.Mapping))
		for value, raw := range schema.Discriminator.Mapping {
			ref, err := mappingRef(raw)
			if err != nil {
				return nil, fmt.Errorf("openapi: schema %s has an invalid mapping for %q:\n\t * %w", name, value, err)
			}
			mapping[value] = schemaName(ref)
		}
		result.Discriminators[name] = hydrate.Descriptor{
			Field:     schema.Discriminator.PropertyName,
			Namespace: "",
			Suffix:    "",
			Map:       mapping,
		}
	}
	slices.Sort(result.Schemas)
	return result, nil
}

// A mapping target is serialized either as a string or as `{"$ref": ...}`.
func mappingRef(raw json.RawMessage) (string, error) {
	var ref string
	if err := json.Unmarshal(raw, &ref); err == nil {
		return ref, nil
	}
	var object struct {
		Ref string `json:"$ref"`
	}
	if err := json.Unmarshal(raw, &object); err != nil {
		return "", err //nolint:wrapcheck
	}
	return object.Ref, nil
}

// `#/components/schemas/Cat` -> `Cat`.
func schemaName(ref string) string {
	if index := strings.LastIndex(ref, "/"); index >= 0 {
		return ref[index+1:]
	}
	return ref
}

// Attach the discriminators to the bases registered as
// `namespace + separator + schema`.
//
// Schemas that are not registered are skipped, returning their names.
func (d *Descriptors) Apply(registry *hydrate.Registry, namespace string) ([]string, error) {
	var skipped []string
	for _, schema := range d.Schemas {
		descriptor, ok := d.Discriminators[schema]
		if !ok {
			continue
		}
		name := registry.Qualify(namespace, schema)
		if _, ok := registry.Lookup(name); !ok {
			skipped = append(skipped, schema)
			continue
		}
		descriptor.Namespace = namespace
		if err := registry.SetDescriptor(name, descriptor); err != nil {
			return skipped, err
		}
	}
	return skipped, nil
}

// Register every schema as a `hydrate.Document` type named
// `namespace + separator + schema`, then apply the discriminators.
func (d *Descriptors) RegisterDocuments(registry *hydrate.Registry, namespace string) error {
	for _, schema := range d.Schemas {
		name := registry.Qualify(namespace, schema)
		if err := registry.Register(name, &hydrate.Document{}, hydrate.DocumentConstructor(name)); err != nil {
			return err
		}
	}
	_, err := d.Apply(registry, namespace)
	return err
}
