// Mechanisms to deal with initialization and validation of hydrated models.
//
// These interfaces are primarily designed to be implemented by models that
// the hydrator constructs on its own, i.e. nested values and members of
// collections.
package validation

import "fmt"

// A model that supports initialization.
//
// The hydrator calls `Initialize()` on every instance it constructs,
// **before** binding any key of the incoming record.
//
// Important: We expect `Initializer` to be implemented on **pointers**,
// rather than on structs.
//
// Otherwise, all its operations are performed on a copy of the struct and
// the result is lost immediately.
type Initializer interface {
	// Setup the contents of the struct.
	Initialize() error
}

// A model that supports validation.
//
// The hydrator calls `Validate()` on every instance it constructs,
// **after** every key of the incoming record has been bound, and on the
// root instance at the end of `Load` or `Update`.
//
// Important: We expect `Validator` to be implemented on **pointers**,
// rather than on structs.
type Validator interface {
	// Confirm that the data is valid.
	//
	// Return an error if it is invalid.
	//
	// If necessary, this method may alter the contents of the struct.
	Validate() error
}

// An error returned by a `Validator`, decorated with the position of the
// rejected value in the record.
type Error struct {
	// The path of the rejected value, e.g. `Drawing.shapes[2]`.
	Path string

	// The error returned by `Validate()`.
	Wrapped error
}

// Wrap an error returned by `Validate()`.
func WrapError(path string, err error) Error {
	return Error{
		Path:    path,
		Wrapped: err,
	}
}

func (e Error) Error() string {
	return fmt.Sprintf("hydrated value %s did not pass validation\n\t * %s", e.Path, e.Wrapped.Error())
}

func (e Error) Unwrap() error {
	return e.Wrapped
}

var _ error = Error{} //nolint:exhaustruct
