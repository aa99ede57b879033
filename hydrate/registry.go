package hydrate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/pasqal-io/gohydrate/assertions/initialized"
	"github.com/pasqal-io/gohydrate/hydrate/naming"
	"github.com/pasqal-io/gohydrate/hydrate/shared"
)

// Build a new, empty instance of a registered type.
//
// The record is the data about to be loaded into the instance, handed over
// for constructors that need to look at it (e.g. to pick a unit system).
// Constructors must not load it themselves, the hydrator does.
type Constructor func(data *shared.Record, deps Deps) (any, error)

// Options for building a registry.
type RegistryOptions struct {
	// The separator between namespace and short name, e.g. "." in
	// "shapes.CircleShape".
	Separator string

	// The naming convention used to derive accessor names and type names
	// from external keys and discriminator values.
	Naming naming.Converter
}

// "." as separator, go-openapi naming.
func DefaultRegistryOptions() RegistryOptions {
	return RegistryOptions{
		Separator: ".",
		Naming:    naming.Swag{},
	}
}

// A type known to the registry.
type TypeInfo struct {
	// The name under which the type was registered.
	Name string

	// The part of Name before the last separator, possibly empty.
	Namespace string

	// The Go type. Either a pointer to a struct or an interface.
	Type reflect.Type

	// nil for bases that cannot be constructed, e.g. interfaces.
	construct Constructor

	// nil for monomorphic types. Guarded by `lock`, as `SetDescriptor`
	// may replace it.
	descriptor *Descriptor

	// The lock of the owning registry.
	lock *sync.RWMutex
}

// Return `true` if this type is a polymorphic base.
func (info *TypeInfo) IsPolymorphic() bool {
	return info.Descriptor() != nil
}

// Return a copy of the descriptor, or nil for monomorphic types.
func (info *TypeInfo) Descriptor() *Descriptor {
	if info.lock != nil {
		info.lock.RLock()
		defer info.lock.RUnlock()
	}
	return info.descriptor.clone()
}

// Return `true` if instances of this type can be constructed.
func (info *TypeInfo) IsConstructible() bool {
	return info.construct != nil
}

// The set of types the hydrator may construct.
//
// Registration is meant to happen at startup, but a registry may be shared
// by several hydrators and used concurrently.
type Registry struct {
	witness initialized.IsInitialized

	separator string
	naming    naming.Converter

	mutex  sync.RWMutex
	byName map[string]*TypeInfo
	byType map[reflect.Type]*TypeInfo

	// Types that were never registered but can still be constructed,
	// i.e. pointers to structs. reflect.Type -> *TypeInfo
	implicit sync.Map

	// reflect.Type -> *capabilities
	capabilities sync.Map
}

// Create a new registry.
func NewRegistry(options RegistryOptions) *Registry {
	if options.Separator == "" {
		options.Separator = "."
	}
	if options.Naming == nil {
		options.Naming = naming.Swag{}
	}
	return &Registry{
		witness:      initialized.Make(),
		separator:    options.Separator,
		naming:       options.Naming,
		mutex:        sync.RWMutex{},
		byName:       make(map[string]*TypeInfo),
		byType:       make(map[reflect.Type]*TypeInfo),
		implicit:     sync.Map{},
		capabilities: sync.Map{},
	}
}

// The naming convention of this registry.
func (r *Registry) Naming() naming.Converter {
	r.witness.Assert()
	return r.naming
}

// Register a concrete type under `name`.
//
// `prototype` must be a non-nil pointer to a struct, e.g. `&CircleShape{}`.
// If `construct` is nil, instances are built with `new`.
//
// If the prototype implements `Polymorphic`, the type is also a polymorphic
// base and its subtypes are selected with the descriptor it returns.
//
// A type may be registered under several names, each with its own
// constructor and descriptor. The first one is the entry returned by
// `LookupType`.
func (r *Registry) Register(name string, prototype any, construct Constructor) error {
	r.witness.Assert()
	typ := reflect.TypeOf(prototype)
	if typ == nil || typ.Kind() != reflect.Pointer || typ.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("cannot register %s: expected a pointer to a struct, got %T", name, prototype)
	}
	if construct == nil {
		construct = defaultConstructor(typ)
	}
	var descriptor *Descriptor
	if polymorphic, ok := prototype.(Polymorphic); ok {
		found := polymorphic.Discriminator()
		descriptor = &found
	}
	// Fail early on models whose tags we cannot parse.
	if _, err := r.capabilitiesOf(typ); err != nil {
		return fmt.Errorf("cannot register %s:\n\t * %w", name, err)
	}
	return r.insert(name, typ, construct, descriptor)
}

// Register a type that may only be used as a base, typically an interface.
//
// `descriptor` may be nil, in which case the base is monomorphic and
// cannot be constructed.
func (r *Registry) RegisterBase(name string, base reflect.Type, descriptor *Descriptor) error {
	r.witness.Assert()
	if base == nil {
		return fmt.Errorf("cannot register %s: missing type", name)
	}
	var construct Constructor
	switch {
	case base.Kind() == reflect.Interface:
	case base.Kind() == reflect.Pointer && base.Elem().Kind() == reflect.Struct:
		construct = defaultConstructor(base)
	default:
		return fmt.Errorf("cannot register %s: expected an interface or a pointer to a struct, got %s", name, base)
	}
	return r.insert(name, base, construct, descriptor.clone())
}

// Attach a descriptor to an already registered type, turning it into a
// polymorphic base.
func (r *Registry) SetDescriptor(name string, descriptor Descriptor) error {
	r.witness.Assert()
	r.mutex.Lock()
	defer r.mutex.Unlock()
	info, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("cannot set the descriptor of %s: no such type", name)
	}
	info.descriptor = descriptor.clone()
	return nil
}

// As Register, but panics on error.
func (r *Registry) MustRegister(name string, prototype any, construct Constructor) {
	if err := r.Register(name, prototype, construct); err != nil {
		panic(err)
	}
}

// As RegisterBase, but panics on error.
func (r *Registry) MustRegisterBase(name string, base reflect.Type, descriptor *Descriptor) {
	if err := r.RegisterBase(name, base, descriptor); err != nil {
		panic(err)
	}
}

// Register `*T` under `name`, with the default constructor.
func RegisterType[T any](r *Registry, name string) error {
	return r.Register(name, new(T), nil)
}

// Lookup a type by one of its registered names.
func (r *Registry) Lookup(name string) (*TypeInfo, bool) {
	r.witness.Assert()
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	info, ok := r.byName[name]
	return info, ok
}

// Lookup a type by its Go type.
//
// Pointers to structs that were never registered are still found, as
// constructible monomorphic types without a name in the registry.
func (r *Registry) LookupType(typ reflect.Type) (*TypeInfo, bool) {
	r.witness.Assert()
	r.mutex.RLock()
	info, ok := r.byType[typ]
	r.mutex.RUnlock()
	if ok {
		return info, true
	}
	if typ.Kind() != reflect.Pointer || typ.Elem().Kind() != reflect.Struct {
		return nil, false
	}
	if cached, ok := r.implicit.Load(typ); ok {
		return cached.(*TypeInfo), true //nolint:forcetypeassert
	}
	info = &TypeInfo{
		Name:       typeName(typ),
		Namespace:  "",
		Type:       typ,
		construct:  defaultConstructor(typ),
		descriptor: nil,
		lock:       &r.mutex,
	}
	if polymorphic, ok := reflect.New(typ.Elem()).Interface().(Polymorphic); ok {
		found := polymorphic.Discriminator()
		info.descriptor = &found
	}
	actual, _ := r.implicit.LoadOrStore(typ, info)
	return actual.(*TypeInfo), true //nolint:forcetypeassert
}

// The registered names, in no particular order.
func (r *Registry) Names() []string {
	r.witness.Assert()
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	result := make([]string, 0, len(r.byName))
	for name := range r.byName {
		result = append(result, name)
	}
	return result
}

func (r *Registry) insert(name string, typ reflect.Type, construct Constructor, descriptor *Descriptor) error {
	if name == "" {
		return errors.New("cannot register a type without a name")
	}
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if previous, ok := r.byName[name]; ok {
		return fmt.Errorf("cannot register %s as %s, this name is already used by %s", typ, name, previous.Type)
	}
	info := &TypeInfo{
		Name:       name,
		Namespace:  r.namespaceOf(name),
		Type:       typ,
		construct:  construct,
		descriptor: descriptor,
		lock:       &r.mutex,
	}
	r.byName[name] = info
	if _, ok := r.byType[typ]; !ok {
		r.byType[typ] = info
	}
	return nil
}

// Prefix `name` with `namespace`, if any, e.g. "shapes.CircleShape".
func (r *Registry) Qualify(namespace string, name string) string {
	r.witness.Assert()
	if namespace == "" {
		return name
	}
	return namespace + r.separator + name
}

func (r *Registry) namespaceOf(name string) string {
	index := strings.LastIndex(name, r.separator)
	if index < 0 {
		return ""
	}
	return name[:index]
}

func defaultConstructor(typ reflect.Type) Constructor {
	elem := typ.Elem()
	return func(_ *shared.Record, _ Deps) (any, error) {
		return reflect.New(elem).Interface(), nil
	}
}

// Return a human-readable name for a type.
func typeName(typ reflect.Type) string {
	if typ.Kind() == reflect.Pointer {
		return typeName(typ.Elem())
	}
	if typ.Name() != "" {
		return typ.Name()
	}
	return typ.String()
}
