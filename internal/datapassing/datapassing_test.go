package datapassing

import "testing"

func TestNameForNative(t *testing.T) {
	cases := map[string]string{
		"str":   "String",
		"int":   "Integer",
		"float": "Float",
		"bool":  "Boolean",
		"list":  "JsonArray",
		"dict":  "JsonObject",
	}
	for native, want := range cases {
		got, ok := NameForNative(native)
		if !ok || got != want {
			t.Fatalf("NameForNative(%q) = %q, %v; want %q", native, got, ok, want)
		}
	}
	if _, ok := NameForNative("tuple"); ok {
		t.Fatalf("expected tuple to be unknown")
	}
}

func TestSerialize(t *testing.T) {
	cases := []struct {
		name     string
		value    any
		typeName string
		want     string
	}{
		{"string passthrough", "already", TypeInteger, "already"},
		{"integer", 42, TypeInteger, "42"},
		{"float keeps point", 2.5, TypeFloat, "2.5"},
		{"integral float", 3.0, TypeFloat, "3.0"},
		{"int as float", 7, TypeFloat, "7.0"},
		{"bool true", true, TypeBoolean, "True"},
		{"bool false", false, TypeBoolean, "False"},
		{"json array", []any{1, "two"}, TypeJSONArray, `[1,"two"]`},
		{"json object", map[string]any{"k": 1}, TypeJSONObject, `{"k":1}`},
		{"unknown type bool", true, "GCSPath", "True"},
		{"unknown type none", nil, "GCSPath", "None"},
	}
	for _, tc := range cases {
		got, err := Serialize(tc.value, tc.typeName)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestSerializeTypeMismatch(t *testing.T) {
	if _, err := Serialize(1.5, TypeInteger); err == nil {
		t.Fatalf("expected error for float as Integer")
	}
	if _, err := Serialize(1, TypeBoolean); err == nil {
		t.Fatalf("expected error for int as Boolean")
	}
}

func TestDeserializerAndSerializerTables(t *testing.T) {
	d, ok := DeserializerFor(TypeBoolean)
	if !ok || d.Expr != "_deserialize_bool" || d.Definition == "" {
		t.Fatalf("unexpected boolean deserializer %+v", d)
	}
	d, ok = DeserializerFor(TypeJSONArray)
	if !ok || d.Expr != "json.loads" || d.Definition != "import json" {
		t.Fatalf("unexpected json deserializer %+v", d)
	}
	if _, ok := DeserializerFor("GCSPath"); ok {
		t.Fatalf("expected no deserializer for unknown type")
	}

	s, ok := SerializerFor(TypeJSONObject)
	if !ok || s.Expr != "_serialize_json" || s.Definition == "" {
		t.Fatalf("unexpected json serializer %+v", s)
	}
	s, ok = SerializerFor(TypeInteger)
	if !ok || s.Expr != "str" {
		t.Fatalf("unexpected integer serializer %+v", s)
	}
}
