package hydrate

import (
	"fmt"
	"reflect"

	"github.com/pasqal-io/gohydrate/hydrate/shared"
)

// Select the concrete type to construct for a record expected to hold a
// value of type `base`.
//
// For monomorphic bases, this is the base itself. For polymorphic bases,
// the discriminator field of the record selects the type, see Descriptor.
func (r *Registry) Resolve(base reflect.Type, data *shared.Record) (*TypeInfo, error) {
	r.witness.Assert()
	info, _, err := r.resolveType(base, data)
	return info, err
}

// As Resolve, for a base identified by its registered name.
func (r *Registry) ResolveName(baseName string, data *shared.Record) (*TypeInfo, error) {
	r.witness.Assert()
	info, _, err := r.resolveNamed(baseName, data)
	return info, err
}

func (r *Registry) resolveType(base reflect.Type, data *shared.Record) (*TypeInfo, string, error) {
	info, ok := r.LookupType(base)
	if !ok {
		return nil, "", TypeNotFoundError{
			Base:       typeName(base),
			Value:      "",
			Candidates: nil,
		}
	}
	return r.resolve(info, data)
}

func (r *Registry) resolveNamed(baseName string, data *shared.Record) (*TypeInfo, string, error) {
	info, ok := r.Lookup(baseName)
	if !ok {
		return nil, "", TypeNotFoundError{
			Base:       baseName,
			Value:      "",
			Candidates: nil,
		}
	}
	return r.resolve(info, data)
}

// Resolve the concrete type for `base`, also returning the discriminator
// field of the record, if any.
func (r *Registry) resolve(base *TypeInfo, data *shared.Record) (*TypeInfo, string, error) {
	r.mutex.RLock()
	descriptor := base.descriptor
	r.mutex.RUnlock()
	if descriptor == nil {
		if base.construct == nil {
			return nil, "", TypeNotFoundError{
				Base:       base.Name,
				Value:      "",
				Candidates: nil,
			}
		}
		return base, "", nil
	}
	if descriptor.Field == "" {
		return nil, "", ConfigError{
			Base: base.Name,
		}
	}
	raw, _ := data.Lookup(descriptor.Field)
	if shared.IsEmpty(raw) || shared.IsComposite(raw) {
		return nil, "", DataError{
			Base:  base.Name,
			Field: descriptor.Field,
		}
	}
	value := fmt.Sprint(raw)

	candidate := descriptor.candidate(value, r.naming.Accessor)
	candidates := []string{candidate}
	namespace := descriptor.Namespace
	if namespace == "" {
		namespace = base.Namespace
	}
	if namespace != "" {
		candidates = append(candidates, namespace+r.separator+candidate)
	}
	for _, name := range candidates {
		if info, ok := r.Lookup(name); ok && info.construct != nil {
			return info, descriptor.Field, nil
		}
	}
	return nil, "", TypeNotFoundError{
		Base:       base.Name,
		Value:      value,
		Candidates: candidates,
	}
}
