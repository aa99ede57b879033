// Conversions between external key names (as found in payloads, e.g.
// `first_name`, `firstName`) and Go identifiers (`FirstName`).
//
// The hydrator never converts case on its own, it always goes through a
// `Converter`. The default converter follows the go-openapi conventions,
// including Go initialisms: `id` becomes `ID`, `url_path` becomes `URLPath`.
package naming

import (
	"strings"

	"github.com/go-openapi/swag"
)

// A naming convention.
type Converter interface {
	// Convert an external key into the Go identifier used for accessors
	// (`Set<Accessor>`, `Get<Accessor>`, `Add<Accessor>`), direct fields and
	// type names.
	Accessor(key string) string

	// Convert a Go field name into the key used in dehydrated records.
	External(field string) string
}

// The default converter, backed by go-openapi/swag.
type Swag struct{}

func (Swag) Accessor(key string) string {
	return swag.ToGoName(key)
}

func (Swag) External(field string) string {
	return swag.ToJSONName(field)
}

var _ Converter = Swag{}

// A converter that keeps external keys as they are, only capitalizing
// the first letter for accessors.
//
// Use it when payloads already use Go-style names.
type Verbatim struct{}

func (Verbatim) Accessor(key string) string {
	return UpperFirst(key)
}

func (Verbatim) External(field string) string {
	return field
}

var _ Converter = Verbatim{}

// Capitalize the first byte of an identifier.
//
// Used to derive accessor names from (possibly unexported) Go field names,
// e.g. field `radius` has getter `GetRadius`.
func UpperFirst(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
