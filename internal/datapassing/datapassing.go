// Package datapassing maps native annotations to canonical data-passing type
// names and provides serialization in both directions of the container
// boundary: Go-side serialization of literal values (defaults, task
// arguments) and Python code fragments for the generated shim.
package datapassing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Canonical type names.
const (
	TypeString     = "String"
	TypeInteger    = "Integer"
	TypeFloat      = "Float"
	TypeBoolean    = "Boolean"
	TypeJSONArray  = "JsonArray"
	TypeJSONObject = "JsonObject"
)

var nativeToName = map[string]string{
	"str":   TypeString,
	"int":   TypeInteger,
	"float": TypeFloat,
	"bool":  TypeBoolean,
	"list":  TypeJSONArray,
	"dict":  TypeJSONObject,
}

// NameForNative maps a native type keyword to its canonical type name.
func NameForNative(native string) (string, bool) {
	name, ok := nativeToName[native]
	return name, ok
}

// Serialize renders a value as the string that crosses the container
// boundary for the given canonical type name. Values of unknown types are
// rendered with the default textual form.
func Serialize(value any, typeName string) (string, error) {
	if s, ok := value.(string); ok {
		// Strings pass through for every type; they are assumed to be
		// serialized already.
		return s, nil
	}
	switch typeName {
	case TypeInteger:
		switch v := value.(type) {
		case int:
			return strconv.Itoa(v), nil
		case int64:
			return strconv.FormatInt(v, 10), nil
		default:
			return "", fmt.Errorf("value %v is not an integer", value)
		}
	case TypeFloat:
		switch v := value.(type) {
		case float64:
			return formatFloat(v), nil
		case int:
			return formatFloat(float64(v)), nil
		case int64:
			return formatFloat(float64(v)), nil
		default:
			return "", fmt.Errorf("value %v is not a float", value)
		}
	case TypeBoolean:
		v, ok := value.(bool)
		if !ok {
			return "", fmt.Errorf("value %v is not a boolean", value)
		}
		if v {
			return "True", nil
		}
		return "False", nil
	case TypeJSONArray, TypeJSONObject:
		data, err := json.Marshal(value)
		if err != nil {
			return "", fmt.Errorf("serialize %s: %w", typeName, err)
		}
		return string(data), nil
	default:
		return defaultTextualForm(value), nil
	}
}

// formatFloat matches the interpreter's textual float form: integral floats
// keep a trailing ".0".
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") && s != "inf" && s != "-inf" && s != "nan" {
		s += ".0"
	}
	return s
}

func defaultTextualForm(value any) string {
	switch v := value.(type) {
	case bool:
		if v {
			return "True"
		}
		return "False"
	case nil:
		return "None"
	case float64:
		return formatFloat(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// PythonDeserializer parses the boundary string back into a live value
// inside the generated program. Expr is the callable expression; Definition
// is the supporting code it needs, if any.
type PythonDeserializer struct {
	Expr       string
	Definition string
}

// PythonSerializer renders a live value to its boundary string inside the
// generated program.
type PythonSerializer struct {
	Expr       string
	Definition string
}

const deserializeBoolDef = `def _deserialize_bool(s) -> bool:
    from distutils.util import strtobool
    return strtobool(s) == 1`

const serializeJSONDef = `def _serialize_json(obj) -> str:
    if isinstance(obj, str):
        return obj
    import json
    def default_serializer(obj):
        if hasattr(obj, 'to_struct'):
            return obj.to_struct()
        else:
            raise TypeError("Object of type '%s' is not JSON serializable and does not have .to_struct() method." % obj.__class__.__name__)
    return json.dumps(obj, default=default_serializer, sort_keys=True)`

var deserializers = map[string]PythonDeserializer{
	TypeString:     {Expr: "str"},
	TypeInteger:    {Expr: "int"},
	TypeFloat:      {Expr: "float"},
	TypeBoolean:    {Expr: "_deserialize_bool", Definition: deserializeBoolDef},
	TypeJSONArray:  {Expr: "json.loads", Definition: "import json"},
	TypeJSONObject: {Expr: "json.loads", Definition: "import json"},
}

var serializers = map[string]PythonSerializer{
	TypeString:     {Expr: "str"},
	TypeInteger:    {Expr: "str"},
	TypeFloat:      {Expr: "str"},
	TypeBoolean:    {Expr: "str"},
	TypeJSONArray:  {Expr: "_serialize_json", Definition: serializeJSONDef},
	TypeJSONObject: {Expr: "_serialize_json", Definition: serializeJSONDef},
}

// DeserializerFor returns the in-program deserializer for a canonical type
// name. Unknown types have none; their values stay strings.
func DeserializerFor(typeName string) (PythonDeserializer, bool) {
	d, ok := deserializers[typeName]
	return d, ok
}

// SerializerFor returns the in-program serializer for a canonical type name.
// Unknown types fall back to the default textual form.
func SerializerFor(typeName string) (PythonSerializer, bool) {
	s, ok := serializers[typeName]
	return s, ok
}
