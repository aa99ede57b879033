package hydrate

import (
	"fmt"
	"strings"
)

// A polymorphic base carries a `Descriptor` that does not name its
// discriminator field.
//
// This is a bug in the model definitions, not in the payload.
type ConfigError struct {
	// The name of the base type.
	Base string
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("invalid discriminator for %s: the descriptor does not name a discriminator field", e.Base)
}

// The record under discrimination does not carry a usable discriminator value.
type DataError struct {
	// The name of the base type.
	Base string

	// The discriminator field that was expected.
	Field string
}

func (e DataError) Error() string {
	return fmt.Sprintf("cannot determine the concrete type of %s: field %q is missing or empty", e.Base, e.Field)
}

// No registered type matches the discriminator value.
//
// This is the expected failure for payloads that carry an unknown kind.
type TypeNotFoundError struct {
	// The name of the base type.
	Base string

	// The discriminator value, empty for monomorphic bases that cannot
	// be constructed.
	Value string

	// The type names we attempted, in order.
	Candidates []string
}

func (e TypeNotFoundError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("cannot construct a value of %s: no constructible type is registered", e.Base)
	}
	return fmt.Sprintf("cannot resolve a concrete type of %s for %q, tried %s", e.Base, e.Value, strings.Join(e.Candidates, ", "))
}

// A value cannot be converted to the type expected by the model.
type ValueError struct {
	// Where the value was found, e.g. `Drawing.shapes[1].radius`.
	Path string

	// The expected type.
	Expected string

	// The offending value.
	Got any

	// The underlying error, if any.
	Wrapped error
}

func (e ValueError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("invalid value at %s, expected %s, got %v:\n\t * %s", e.Path, e.Expected, e.Got, e.Wrapped.Error())
	}
	return fmt.Sprintf("invalid value at %s, expected %s, got %v", e.Path, e.Expected, e.Got)
}

func (e ValueError) Unwrap() error {
	return e.Wrapped
}

// A key binds to nothing in the model. Only reported with `Options.Strict`.
type UnboundKeyError struct {
	// The path of the model.
	Path string

	// The offending key.
	Key string
}

func (e UnboundKeyError) Error() string {
	return fmt.Sprintf("at %s, key %q does not match any setter or hydratable field", e.Path, e.Key)
}

// An error that arises because a model's own code failed: a setter, an
// adder, a getter, a constructor, an initializer or a `RecordLoader`.
type CustomHydratorError struct {
	// The operation that failed, e.g. "setter", "adder", "constructor".
	Operation string

	// Where it failed.
	Path string

	// The underlying error.
	Wrapped error
}

// Return the user-facing message.
func (e CustomHydratorError) Error() string {
	return fmt.Sprintf("at %s, %s failed:\n\t * %s", e.Path, e.Operation, e.Wrapped.Error())
}

// Unwrap the error.
func (e CustomHydratorError) Unwrap() error {
	return e.Wrapped
}

var (
	_ error = ConfigError{}         //nolint:exhaustruct
	_ error = DataError{}           //nolint:exhaustruct
	_ error = TypeNotFoundError{}   //nolint:exhaustruct
	_ error = ValueError{}          //nolint:exhaustruct
	_ error = UnboundKeyError{}     //nolint:exhaustruct
	_ error = CustomHydratorError{} //nolint:exhaustruct
)
