package testutils

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/pasqal-io/gohydrate/hydrate/json"
	"github.com/pasqal-io/gohydrate/hydrate/shared"
)

// Fail if two values are different.
//
// Does not stop the test.
func AssertEqual[T comparable](t *testing.T, actual, expected T, explanation string) {
	t.Helper()
	if expected != actual {
		t.Errorf("got: %+v; want: %+v (%s)", actual, expected, explanation)
		if reflect.ValueOf(expected).Kind() == reflect.Pointer {
			t.Error("Warning: you're comparing two pointers -- pointers are only equal if they point to the same physical object")
		}
	}
}

func AssertEqualArrays[T comparable](t *testing.T, actual, expected []T, explanation string) {
	t.Helper()
	AssertEqual(t, len(actual), len(expected), fmt.Sprintf("%s - invalid length", explanation))
	for i := 0; i < len(actual) && i < len(expected); i++ {
		AssertEqual(t, actual[i], expected[i], fmt.Sprintf("%s - invalid item %d", explanation, i))
	}
}

// Decode a JSON payload into a record, failing the test immediately if
// the payload is not a JSON object.
func Record(t *testing.T, payload string) *shared.Record {
	t.Helper()
	record, err := json.Decode([]byte(payload))
	if err != nil {
		t.Fatalf("payload is not a valid JSON object: %s\n\t * %s", payload, err)
	}
	return record
}

// Fail if a record does not encode to the expected JSON text, key order included.
func AssertJSON(t *testing.T, actual *shared.Record, expected string, explanation string) {
	t.Helper()
	encoded, err := json.Encode(actual)
	if err != nil {
		t.Errorf("could not encode record (%s)\n\t * %s\n%s", explanation, err, spew.Sdump(actual))
		return
	}
	if string(encoded) != expected {
		t.Errorf("got: %s; want: %s (%s)", encoded, expected, explanation)
	}
}
