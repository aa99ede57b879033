package hydrate

import (
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/pasqal-io/gohydrate/assertions/initialized"
	"github.com/pasqal-io/gohydrate/hydrate/shared"
	"github.com/pasqal-io/gohydrate/validation"
)

// A hydrator, populating models from records.
//
// A hydrator holds no per-call state and may be used from several
// goroutines at once, as long as they do not hydrate the same model.
type Hydrator struct {
	witness  initialized.IsInitialized
	registry *Registry
	options  Options
	logger   *slog.Logger
}

// Create a hydrator.
func New(registry *Registry, options Options) *Hydrator {
	registry.witness.Assert()
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Hydrator{
		witness:  initialized.Make(),
		registry: registry,
		options:  options,
		logger:   logger,
	}
}

// The registry used to resolve and construct nested instances.
func (h *Hydrator) Registry() *Registry {
	h.witness.Assert()
	return h.registry
}

// Populate a freshly constructed model.
//
// `instance` must be a non-nil pointer, usually to a struct. `null` values
// are skipped and collections are set wholesale.
func (h *Hydrator) Load(instance any, data *shared.Record) error {
	return h.LoadWith(instance, data, ModeInitial, KeepCollections)
}

// Merge a record into an existing model.
//
// If the model is not `Updatable`, this is a no-op. Otherwise, `null`
// values are applied and collections are appended to through their adder,
// unless `replace` covers them.
func (h *Hydrator) Update(instance any, data *shared.Record, replace Replace) error {
	return h.LoadWith(instance, data, ModeUpdate, replace)
}

// Populate a model with an explicit mode.
func (h *Hydrator) LoadWith(instance any, data *shared.Record, mode Mode, replace Replace) error {
	h.witness.Assert()
	value := reflect.ValueOf(instance)
	if !value.IsValid() || value.Kind() != reflect.Pointer || value.IsNil() {
		return fmt.Errorf("cannot hydrate %T, expected a non-nil pointer", instance)
	}
	path := h.rootPath(value.Type())
	if mode == ModeUpdate && !isUpdatable(instance) {
		h.logger.Debug("ignoring update of a model that is not updatable", "path", path)
		return nil
	}
	state := pass{
		mode:          mode,
		replace:       replace,
		deps:          dependenciesOf(instance, h.options.Deps),
		discriminator: "",
	}
	if err := h.load(path, value, data, state); err != nil {
		return err
	}
	return validate(path, instance)
}

// Construct and populate an instance of a registered base, selecting the
// concrete type with the discriminator of the base, if any.
func (h *Hydrator) Construct(baseName string, data *shared.Record) (any, error) {
	h.witness.Assert()
	path := baseName
	if h.options.RootPath != "" {
		path = h.options.RootPath
	}
	info, discriminator, err := h.registry.resolveNamed(baseName, data)
	if err != nil {
		return nil, fmt.Errorf("at %s:\n\t * %w", path, err)
	}
	value, err := h.instantiate(path, info, data, h.options.Deps, discriminator)
	if err != nil {
		return nil, err
	}
	return value.Interface(), nil
}

// Construct and populate a value of type `T`.
//
// `T` is typically a pointer to a struct or a polymorphic interface.
func Hydrate[T any](h *Hydrator, data *shared.Record) (T, error) {
	h.witness.Assert()
	var zero T
	target := reflect.TypeFor[T]()
	value, err := h.construct(h.rootPath(target), target, data, h.options.Deps)
	if err != nil {
		return zero, err
	}
	result, ok := value.Interface().(T)
	if !ok {
		return zero, fmt.Errorf("cannot hydrate %s, got %s", target, value.Type())
	}
	return result, nil
}

func (h *Hydrator) rootPath(typ reflect.Type) string {
	if h.options.RootPath != "" {
		return h.options.RootPath
	}
	return typeName(typ)
}

// The parameters of a single load.
type pass struct {
	mode    Mode
	replace Replace
	deps    Deps

	// The key that selected the type of the model, never reported
	// as unbound.
	discriminator string
}

// Bind every key of `data` to `model`, a pointer.
func (h *Hydrator) load(path string, model reflect.Value, data *shared.Record, state pass) error {
	caps, err := h.registry.capabilitiesOf(model.Type())
	if err != nil {
		return fmt.Errorf("at %s:\n\t * %w", path, err)
	}
	if loader, ok := model.Interface().(shared.RecordLoader); ok {
		if len(caps.fields) > 0 {
			h.logger.Warn("Type supports both RecordLoader and hydratable fields, defaulting to RecordLoader", "path", path, "type", model.Type())
		}
		if err := loader.LoadRecord(data); err != nil {
			return CustomHydratorError{
				Operation: "LoadRecord",
				Path:      path,
				Wrapped:   err,
			}
		}
		return nil
	}
	data.Each(func(key string, value any) bool {
		err = h.bind(path, model, caps, key, value, state)
		return err == nil
	})
	return err
}

// Bind one key of a record to `model`, a pointer.
func (h *Hydrator) bind(path string, model reflect.Value, caps *capabilities, key string, value any, state pass) error {
	if value == nil && state.mode == ModeInitial {
		return nil
	}
	binding := h.registry.resolveProperty(caps, key, value)
	keyPath := path + "." + key
	switch binding.Kind {
	case Unbound:
		if h.options.Strict && key != state.discriminator {
			return UnboundKeyError{
				Path: path,
				Key:  key,
			}
		}
		h.logger.Debug("dropping unbound key", "path", path, "key", key)
		return nil
	case DirectField:
		if model.Kind() != reflect.Pointer || model.Elem().Kind() != reflect.Struct {
			return fmt.Errorf("at %s, cannot set a field of %s", keyPath, model.Type())
		}
		converted, err := coerce(keyPath, value, binding.Type)
		if err != nil {
			return err
		}
		model.Elem().FieldByIndex(binding.field.index).Set(converted)
		return nil
	case Setter:
		converted, err := h.convert(keyPath, value, binding.Type, state.deps)
		if err != nil {
			return err
		}
		return callAccessor(keyPath, "setter", binding.setter, model, converted)
	case CollectionSetter:
		return h.bindCollection(keyPath, model, binding, value, state.mode == ModeUpdate && !state.replace.Covers(key), state.deps)
	default:
		return fmt.Errorf("at %s, unknown binding %s", keyPath, binding.Kind)
	}
}

func (h *Hydrator) bindCollection(path string, model reflect.Value, binding FieldBinding, value any, appending bool, deps Deps) error {
	// A single record stands for a sequence of one record.
	sequence, ok := shared.AsSequence(value)
	if !ok {
		sequence = []any{value}
	}
	if appending {
		for i, item := range sequence {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			converted, err := h.convert(itemPath, item, binding.Element, deps)
			if err != nil {
				return err
			}
			if err := callAccessor(itemPath, "adder", binding.adder, model, converted); err != nil {
				return err
			}
		}
		return nil
	}
	slice := reflect.MakeSlice(binding.Type, 0, len(sequence))
	for i, item := range sequence {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		converted, err := h.convert(itemPath, item, binding.Element, deps)
		if err != nil {
			return err
		}
		converted, err = assignable(itemPath, converted, binding.Type.Elem())
		if err != nil {
			return err
		}
		slice = reflect.Append(slice, converted)
	}
	return callAccessor(path, "setter", binding.setter, model, slice)
}

// Convert a record value into a value of type `target`, constructing
// nested instances as needed.
func (h *Hydrator) convert(path string, value any, target reflect.Type, deps Deps) (reflect.Value, error) {
	if value == nil {
		return reflect.Zero(target), nil
	}
	if record, ok := shared.AsRecord(value); ok && isObjectType(target) {
		return h.construct(path, target, record, deps)
	}
	if sequence, ok := shared.AsSequence(value); ok && isCollection(target) && isObjectType(target.Elem()) {
		slice := reflect.MakeSlice(target, 0, len(sequence))
		for i, item := range sequence {
			converted, err := h.convert(fmt.Sprintf("%s[%d]", path, i), item, target.Elem(), deps)
			if err != nil {
				return reflect.Value{}, err
			}
			slice = reflect.Append(slice, converted)
		}
		return slice, nil
	}
	return coerce(path, value, target)
}

// Construct a new value of type `target` from a record.
func (h *Hydrator) construct(path string, target reflect.Type, data *shared.Record, deps Deps) (reflect.Value, error) {
	base := target
	if target.Kind() == reflect.Struct {
		base = reflect.PointerTo(target)
	}
	info, discriminator, err := h.registry.resolveType(base, data)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("at %s:\n\t * %w", path, err)
	}
	value, err := h.instantiate(path, info, data, deps, discriminator)
	if err != nil {
		return reflect.Value{}, err
	}
	if target.Kind() == reflect.Struct {
		value = value.Elem()
	}
	return assignable(path, value, target)
}

// Construct an instance of a resolved type and populate it.
func (h *Hydrator) instantiate(path string, info *TypeInfo, data *shared.Record, deps Deps, discriminator string) (reflect.Value, error) {
	if info.construct == nil {
		return reflect.Value{}, TypeNotFoundError{
			Base:       info.Name,
			Value:      "",
			Candidates: nil,
		}
	}
	instance, err := info.construct(data, deps)
	if err != nil {
		return reflect.Value{}, CustomHydratorError{
			Operation: "constructor of " + info.Name,
			Path:      path,
			Wrapped:   err,
		}
	}
	value := reflect.ValueOf(instance)
	if !value.IsValid() || value.Kind() != reflect.Pointer || value.IsNil() {
		return reflect.Value{}, CustomHydratorError{
			Operation: "constructor of " + info.Name,
			Path:      path,
			Wrapped:   fmt.Errorf("expected a non-nil pointer, got %T", instance),
		}
	}
	if initializer, ok := instance.(validation.Initializer); ok {
		if err := initializer.Initialize(); err != nil {
			return reflect.Value{}, CustomHydratorError{
				Operation: "Initialize",
				Path:      path,
				Wrapped:   err,
			}
		}
	}
	state := pass{
		mode:          ModeInitial,
		replace:       KeepCollections,
		deps:          dependenciesOf(instance, deps),
		discriminator: discriminator,
	}
	if err := h.load(path, value, data, state); err != nil {
		return reflect.Value{}, err
	}
	if err := validate(path, instance); err != nil {
		return reflect.Value{}, err
	}
	return value, nil
}

func callAccessor(path string, operation string, method *accessor, model reflect.Value, arg reflect.Value) error {
	arg, err := assignable(path, arg, method.typ)
	if err != nil {
		return err
	}
	if _, err := method.call(model, arg); err != nil {
		return CustomHydratorError{
			Operation: operation + " " + method.name,
			Path:      path,
			Wrapped:   err,
		}
	}
	return nil
}

// Make sure that `value` may be passed where a `target` is expected.
func assignable(path string, value reflect.Value, target reflect.Type) (reflect.Value, error) {
	if value.Type().AssignableTo(target) {
		return value, nil
	}
	return reflect.Value{}, ValueError{
		Path:     path,
		Expected: target.String(),
		Got:      value.Type().String(),
		Wrapped:  errors.New("incompatible type"),
	}
}

func validate(path string, instance any) error {
	validator, ok := instance.(validation.Validator)
	if !ok {
		return nil
	}
	if err := validator.Validate(); err != nil {
		return validation.WrapError(path, err)
	}
	return nil
}

func isUpdatable(instance any) bool {
	updatable, ok := instance.(Updatable)
	return ok && updatable.Updatable()
}

func dependenciesOf(instance any, inherited Deps) Deps {
	if provider, ok := instance.(DependencyProvider); ok {
		return provider.Dependencies()
	}
	return inherited
}
