package initialized

// A witness used to detect registries, hydrators and tag tables that were
// built without going through their constructor.
//
// In Go, `new(hydrate.Registry)` or `hydrate.Hydrator{}` both compile and
// both produce a value that looks usable but is missing its maps, its
// naming collaborator or its logger. Such values fail much later, usually
// with a nil map write deep inside a recursive load.
//
// Operation manual:
// - add a field `witness IsInitialized` in your struct;
// - set it with `initialized.Make()` from your constructor;
// - call `witness.Assert()` at the entry points of your public methods.
//
// Assert panics, as using a half-built value is a programming error
// rather than a payload error.
type IsInitialized struct {
	isInitialized bool
}

// Create an initialized witness.
func Make() IsInitialized {
	return IsInitialized{
		isInitialized: true,
	}
}

// Panic unless this witness was created with `Make()`.
func (witness IsInitialized) Assert() {
	if !witness.isInitialized {
		panic("struct was not initialized, use its constructor")
	}
}

// Report whether this witness was created with `Make()`, without panicking.
func (witness IsInitialized) IsSet() bool {
	return witness.isInitialized
}
