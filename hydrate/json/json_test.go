package json_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pasqal-io/gohydrate/hydrate/json"
	"github.com/pasqal-io/gohydrate/hydrate/shared"
)

func TestDecodeKeepsOrder(t *testing.T) {
	record, err := json.Decode([]byte(`{"zeta": 1, "alpha": {"second": true, "first": null}, "list": [1, 2.5, "x"]}`))
	require.NoError(t, err)
	require.Equal(t, []string{"zeta", "alpha", "list"}, record.Keys())

	alpha, ok := shared.AsRecord(record.Get("alpha"))
	require.True(t, ok)
	require.Equal(t, []string{"second", "first"}, alpha.Keys())
	require.Equal(t, true, alpha.Get("second"))

	first, present := alpha.Lookup("first")
	require.True(t, present, "null values should be kept as keys")
	require.Nil(t, first)

	require.Equal(t, []any{int64(1), 2.5, "x"}, record.Get("list"))
}

func TestDecodeNumbers(t *testing.T) {
	record, err := json.Decode([]byte(`{"int": 5, "negative": -3, "float": 5.5, "big": 1e400}`))
	require.Error(t, err, "1e400 overflows float64")
	require.Nil(t, record)

	record, err = json.Decode([]byte(`{"int": 5, "negative": -3, "float": 5.5, "exp": 1e3}`))
	require.NoError(t, err)
	require.Equal(t, int64(5), record.Get("int"))
	require.Equal(t, int64(-3), record.Get("negative"))
	require.Equal(t, 5.5, record.Get("float"))
	require.Equal(t, 1000.0, record.Get("exp"))
}

func TestDecodeRejectsNonObjects(t *testing.T) {
	for _, payload := range []string{`[1, 2]`, `"text"`, `42`, ``, `{"a": 1} {"b": 2}`, `{"a": }`} {
		_, err := json.Decode([]byte(payload))
		require.Error(t, err, "payload %q should be rejected", payload)
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	source := `{"name":"drawing","shapes":[{"kind":"circle","radius":5},{"kind":"square","side":1.5}],"owner":null}`
	record, err := json.Decode([]byte(source))
	require.NoError(t, err)

	encoded, err := json.Encode(record)
	require.NoError(t, err)
	require.Equal(t, source, string(encoded))
}

func TestEncodeCanonical(t *testing.T) {
	record := shared.RecordOf("b", int64(2), "a", shared.RecordOf("d", true, "c", "x"))

	plain, err := json.Encode(record)
	require.NoError(t, err)
	require.Equal(t, `{"b":2,"a":{"d":true,"c":"x"}}`, string(plain))

	canonical, err := json.EncodeCanonical(record)
	require.NoError(t, err)
	require.Equal(t, `{"a":{"c":"x","d":true},"b":2}`, string(canonical))
}

func TestDriver(t *testing.T) {
	var driver shared.Driver = json.Driver{}
	require.Equal(t, "json", driver.Name())

	record, err := driver.Decode([]byte(`{"a":1}`))
	require.NoError(t, err)
	encoded, err := driver.Encode(record)
	require.NoError(t, err)
	require.Equal(t, `{"a":1}`, string(encoded))
}
