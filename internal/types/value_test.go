package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_PreservesKeyOrder(t *testing.T) {
	v, err := DecodeString(`{"Name":"Acme","Secteur":"IT; Health","id":3}`)
	require.NoError(t, err)
	require.Equal(t, KindMapping, v.Kind())

	members := v.Members()
	require.Len(t, members, 3)
	assert.Equal(t, "Name", members[0].Key)
	assert.Equal(t, "Secteur", members[1].Key)
	assert.Equal(t, "id", members[2].Key)

	out, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"Name":"Acme","Secteur":"IT; Health","id":3}`, string(out))
}

func TestDecode_AllKinds(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  Kind
	}{
		{"null", `null`, KindNull},
		{"bool", `true`, KindBool},
		{"number", `-1.5e3`, KindNumber},
		{"string", `"x"`, KindString},
		{"sequence", `[1, "a", null]`, KindSequence},
		{"mapping", `{"a": {"b": []}}`, KindMapping},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DecodeString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []string{``, `{`, `{"a" 1}`, `[1,]`, `{} {}`, `not json`}
	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := DecodeString(input)
			assert.Error(t, err)
		})
	}
}

func TestDecode_DuplicateKeys(t *testing.T) {
	v, err := DecodeString(`{"a":1,"b":2,"a":3}`)
	require.NoError(t, err)

	out, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"b":2}`, string(out))
}

func TestMarshalJSON_NoHTMLOrUnicodeEscaping(t *testing.T) {
	v := Mapping(M("nom", String("Café <Tech> & Co")))
	out, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"nom":"Café <Tech> & Co"}`, string(out))
}

func TestValue_JSONInterop(t *testing.T) {
	var forest []Value
	require.NoError(t, json.Unmarshal([]byte(`[{"label":"x"},[{"Name":"Acme"}],"raw"]`), &forest))
	require.Len(t, forest, 3)
	assert.True(t, forest[0].IsMapping())
	assert.True(t, forest[1].IsSequence())

	out, err := json.Marshal(forest)
	require.NoError(t, err)
	assert.Equal(t, `[{"label":"x"},[{"Name":"Acme"}],"raw"]`, string(out))
}

func TestValue_IsFalsy(t *testing.T) {
	tests := []struct {
		name  string
		value Value
		falsy bool
	}{
		{"null", Null(), true},
		{"false", Bool(false), true},
		{"true", Bool(true), false},
		{"zero", Number("0"), true},
		{"zero float", Number("0.0"), true},
		{"nonzero", Number("7"), false},
		{"empty string", String(""), true},
		{"space", String(" "), false},
		{"empty sequence", Sequence(), true},
		{"sequence", Sequence(Null()), false},
		{"empty mapping", Mapping(), true},
		{"mapping", Mapping(M("a", Null())), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.falsy, tt.value.IsFalsy())
		})
	}
}

func TestValue_Text(t *testing.T) {
	assert.Equal(t, "", Null().Text())
	assert.Equal(t, "true", Bool(true).Text())
	assert.Equal(t, "12", Int(12).Text())
	assert.Equal(t, "abc", String("abc").Text())
	assert.Equal(t, `["go","rust"]`, Sequence(String("go"), String("rust")).Text())
}

func TestEqual(t *testing.T) {
	a := Mapping(M("a", Sequence(Int(1), String("x"))))
	b := Mapping(M("a", Sequence(Int(1), String("x"))))
	c := Mapping(M("a", Sequence(Int(2), String("x"))))

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(Null(), String("")))
}

func TestValue_Get(t *testing.T) {
	v := Mapping(M("Name", String("Acme")))

	got, ok := v.Get("Name")
	require.True(t, ok)
	s, _ := got.Str()
	assert.Equal(t, "Acme", s)

	_, ok = v.Get("name")
	assert.False(t, ok)

	_, ok = String("x").Get("Name")
	assert.False(t, ok)
}
