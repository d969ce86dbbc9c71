package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    Value
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"empty string", String(""), `""`},
		{"int", Int(42), "42"},
		{"negative int", Int(-100), "-100"},
		{"zero", Int(0), "0"},
		{"max int64", Int(9223372036854775807), "9223372036854775807"},
		{"min int64", Int(-9223372036854775808), "-9223372036854775808"},
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"null", Null{}, "null"},
		{"empty list", List{}, "[]"},
		{"empty object", Object{}, "{}"},
		{"list of ints", List{Int(1), Int(2), Int(3)}, "[1,2,3]"},
		{"simple object", Object{"a": Int(1)}, `{"a":1}`},
		{"object with null", Object{"holiday": Null{}}, `{"holiday":null}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := Object{
		"zebra": Int(1),
		"alpha": Int(2),
		"beta":  Int(3),
		"z": Object{
			"b": Int(1),
			"a": Int(2),
		},
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"z":{"a":2,"b":1},"zebra":1}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+10000 encodes as the surrogate pair 0xD800 0xDC00, which sorts
	// before U+E000 in UTF-16 but after it in UTF-8.
	obj := Object{
		"\uE000":     Int(1),
		"\U00010000": Int(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)

	expected := "{\"\U00010000\":2,\"\uE000\":1}"
	assert.Equal(t, expected, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	result, err := MarshalCanonical(String("<b>a & b</b>"))
	require.NoError(t, err)
	assert.Equal(t, `"<b>a & b</b>"`, string(result))
	assert.NotContains(t, string(result), `\u003c`)
	assert.NotContains(t, string(result), `\u0026`)
}

func TestMarshalCanonicalRejectsNil(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)

	_, err = MarshalCanonical(List{String("ok"), nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list[1]")
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	composed := "caf\u00E9"
	decomposed := "cafe\u0301"

	result1, err := MarshalCanonical(Object{composed: String(composed)})
	require.NoError(t, err)

	result2, err := MarshalCanonical(Object{decomposed: String(decomposed)})
	require.NoError(t, err)

	assert.Equal(t, result1, result2, "NFC normalization should make these equal")
}

func TestMarshalCanonicalHebrewText(t *testing.T) {
	// Segment keys may carry pointed Hebrew; combining marks in a different
	// order must normalize to the same bytes.
	a := "\u05D1\u05BC\u05B8" // bet + dagesh + qamats
	b := "\u05D1\u05B8\u05BC" // bet + qamats + dagesh

	ra, err := MarshalCanonical(String(a))
	require.NoError(t, err)
	rb, err := MarshalCanonical(String(b))
	require.NoError(t, err)

	assert.Equal(t, ra, rb)
}

func TestMarshalCanonicalStringEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"newline", "a\nb", `"a\nb"`},
		{"tab", "a\tb", `"a\tb"`},
		{"carriage return", "a\rb", `"a\rb"`},
		{"backspace", "a\bb", `"a\bb"`},
		{"form feed", "a\fb", `"a\fb"`},
		{"quote", `a"b`, `"a\"b"`},
		{"backslash", `a\b`, `"a\\b"`},
		{"control char", "a\x01b", `"a\u0001b"`},
		{"unit separator", "a\x1fb", `"a\u001fb"`},
		{"literal backslash-u2028 text", `seq \u2028`, `"seq \\u2028"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(String(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalU2028U2029NotEscaped(t *testing.T) {
	result, err := MarshalCanonical(Object{
		"key\u2028": String("a\u2028b\u2029c"),
	})
	require.NoError(t, err)

	assert.Equal(t, "{\"key\u2028\":\"a\u2028b\u2029c\"}", string(result))
	assert.NotContains(t, string(result), `\u2028`)
	assert.NotContains(t, string(result), `\u2029`)
}

func TestMarshalCanonicalIdempotency(t *testing.T) {
	testCases := []Value{
		String("hello"),
		Int(42),
		Bool(true),
		Null{},
		List{Int(1), String("two"), Bool(false)},
		Object{"a": Int(1), "b": String("test")},
		Object{
			"nested": Object{"list": List{Int(1), Null{}}},
			"simple": String("value"),
		},
	}

	for _, original := range testCases {
		canonical1, err := MarshalCanonical(original)
		require.NoError(t, err)

		val, err := UnmarshalValue(canonical1)
		require.NoError(t, err)

		canonical2, err := MarshalCanonical(val)
		require.NoError(t, err)

		assert.Equal(t, canonical1, canonical2, "canonical marshaling must be idempotent")
	}
}

func FuzzMarshalCanonicalIdempotent(f *testing.F) {
	f.Add(`{"a":1,"b":"test"}`)
	f.Add(`[1,2,null]`)
	f.Add(`"hello"`)
	f.Add(`42`)
	f.Add(`{"nested":{"deep":{"value":123}}}`)

	f.Fuzz(func(t *testing.T, jsonStr string) {
		val, err := UnmarshalValue([]byte(jsonStr))
		if err != nil {
			t.Skip()
		}

		canonical1, err := MarshalCanonical(val)
		if err != nil {
			t.Skip()
		}

		val2, err := UnmarshalValue(canonical1)
		require.NoError(t, err)

		canonical2, err := MarshalCanonical(val2)
		require.NoError(t, err)

		assert.Equal(t, canonical1, canonical2, "canonical marshaling must be idempotent")
	})
}
