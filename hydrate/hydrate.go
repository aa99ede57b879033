// Populate typed models from untyped, ordered records, and back.
//
// A record is what a driver (see packages json, yaml, kvlist) decodes from
// a payload. The hydrator walks the record key by key and binds each key to
// the model:
//
//   - to a setter `SetX(T)` (optionally returning `error`);
//   - to a setter + adder pair `SetX([]E)` / `AddX(E)` for collections;
//   - to a struct field explicitly declared with tag `hydrate:"..."`.
//
// Keys that do not bind are dropped (or rejected, with `Options.Strict`).
//
// # Polymorphism
//
// Whenever a key binds to an object-typed parameter (a pointer to a struct,
// a struct or a non-empty interface) and the value is a record, the
// hydrator constructs a new instance. If the expected type is a polymorphic
// base, i.e. it was registered with a `Descriptor`, the concrete type is
// selected by inspecting a field of the record:
//
//	type Shape interface{ Area() float64 }
//
//	registry := hydrate.NewRegistry(hydrate.DefaultRegistryOptions())
//	registry.MustRegisterBase("shapes.Shape", reflect.TypeFor[Shape](), &hydrate.Descriptor{
//	    Field:  "kind",
//	    Suffix: "Shape",
//	})
//	registry.MustRegister("shapes.CircleShape", &CircleShape{}, nil)
//
//	// `{"kind": "circle", "radius": 5}` now hydrates as a `*CircleShape`.
//
// # Load and update
//
// `Load` populates a fresh model: `null` values are ignored and collections
// are replaced wholesale. `Update` merges into an existing model: `null`
// values are applied, collections are appended to through their adder
// unless they are marked for replacement, and models that do not declare
// themselves `Updatable` are left untouched.
//
// # Warning
//
// Mutations are not transactional: if hydration fails halfway through a
// record, keys bound before the failure remain bound. Models are not
// synchronized, hydrating the same model from several goroutines at once
// is a bug in the caller.
package hydrate

import (
	"log/slog"

	"github.com/pasqal-io/gohydrate/hydrate/shared"
)

// An ordered record, as decoded by a driver.
type Record = shared.Record

// Options for building a hydrator.
//
// See also DefaultOptions and StrictOptions for reasonable default values.
type Options struct {
	// Human-readable information on the nature of data you'll be
	// hydrating, used for logging and error messages.
	//
	// For instance, if you're hydrating the body of "POST /api/v1/drawings",
	// string "POST /api/v1/drawings" is an acceptable value for RootPath.
	//
	// Optional. If you leave this blank, the name of the model type is used.
	RootPath string

	// If `true`, keys that bind to nothing are reported as `UnboundKeyError`
	// instead of being dropped silently.
	Strict bool

	// The logger. If nil, `slog.Default()`.
	Logger *slog.Logger

	// Dependencies forwarded to the constructor of every nested instance,
	// unless the model being hydrated provides its own through
	// `DependencyProvider`.
	Deps Deps
}

// A preset that silently drops unbound keys.
func DefaultOptions() Options {
	return Options{
		RootPath: "",
		Strict:   false,
		Logger:   nil,
		Deps:     nil,
	}
}

// A preset that rejects records containing keys the model cannot bind.
func StrictOptions() Options {
	options := DefaultOptions()
	options.Strict = true
	return options
}

// Whether we are constructing a model or merging into an existing one.
type Mode int

const (
	// Construction: `null` values are skipped, collections are replaced.
	ModeInitial Mode = iota

	// Merge: `null` values are applied, collections are appended to unless
	// marked for replacement.
	ModeUpdate
)

func (mode Mode) String() string {
	switch mode {
	case ModeInitial:
		return "initial"
	case ModeUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// Which collections an update replaces instead of appending to.
//
// The zero value is KeepCollections.
type Replace struct {
	all    bool
	fields map[string]struct{}
}

// Append to every collection.
var KeepCollections = Replace{} //nolint:exhaustruct

// Replace every collection.
func ReplaceAll() Replace {
	return Replace{
		all:    true,
		fields: nil,
	}
}

// Replace the collections bound to these input keys, append to the others.
func ReplaceFields(keys ...string) Replace {
	fields := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		fields[key] = struct{}{}
	}
	return Replace{
		all:    false,
		fields: fields,
	}
}

// Return `true` if the collection bound to input key `key` must be replaced.
func (r Replace) Covers(key string) bool {
	if r.all {
		return true
	}
	_, ok := r.fields[key]
	return ok
}

// Extra construction arguments, forwarded to the constructor of every
// nested instance.
//
// Use them to hand shared services (a clock, a lookup table, a logger) to
// models that the hydrator builds on your behalf.
type Deps []any

// A model that provides the dependencies forwarded to the instances it
// contains.
//
// If a model does not implement DependencyProvider, it forwards the
// dependencies it was itself constructed with.
type DependencyProvider interface {
	Dependencies() Deps
}

// A model that accepts `Update`.
//
// Models that do not implement Updatable, or return `false`, are never
// modified by `Update`.
type Updatable interface {
	Updatable() bool
}

// Lookup the first dependency of type `T`.
func Dependency[T any](deps Deps) (T, bool) {
	for _, dep := range deps {
		if typed, ok := dep.(T); ok {
			return typed, true
		}
	}
	var zero T
	return zero, false
}
