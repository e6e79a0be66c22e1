package domain

import (
	"errors"
	"fmt"
	"strings"
)

// TypeRef is a parameter or return annotation. The zero value means the
// declaration is untyped. At most one of Native, Forward, or Raw is set:
// Native holds a recognized type keyword (str, int, float, bool, list,
// dict), Forward holds a type name given as a quoted string, and Raw holds
// anything else verbatim.
type TypeRef struct {
	Native  string
	Forward string
	Raw     string
}

// IsZero reports whether the declaration carries no annotation.
func (t TypeRef) IsZero() bool {
	return t.Native == "" && t.Forward == "" && t.Raw == ""
}

// Value is an analyzed default value. Null distinguishes an explicit None
// default from an absent one.
type Value struct {
	Null bool
	V    any
}

// Parameter is one analyzed parameter of the source function.
type Parameter struct {
	Name    string
	Passing PassingStyle
	Type    TypeRef
	Default *Value
}

// ReturnField is one field of a named-tuple return annotation.
type ReturnField struct {
	Name string
	Type TypeRef
}

// ReturnSpec describes the function's return annotation. Either Fields is
// non-empty (named-tuple return, one output per field) or Single describes
// the whole return value.
type ReturnSpec struct {
	Single TypeRef
	Fields []ReturnField
}

// InterpreterVersion identifies the interpreter that serialized a closure.
type InterpreterVersion struct {
	Major int
	Minor int
	Micro int
}

func (v InterpreterVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Micro)
}

// FunctionSpec is the analyzed description of a source function to compile
// into a component: its signature plus the captured body.
type FunctionSpec struct {
	Name       string
	Doc        string
	Parameters []Parameter
	Returns    *ReturnSpec

	// Source is the function's source text for source-copy capture.
	Source string

	// SerializedClosure and PicklerVersion carry a pickled closure for
	// serialization capture.
	SerializedClosure []byte
	PicklerVersion    *InterpreterVersion

	// Overrides; each defaults from the function itself when empty.
	HumanName   string
	Description string
	BaseImage   string
	TargetFile  string
}

// Validate performs lightweight structural checks ahead of analysis.
func (f FunctionSpec) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("function name is required")
	}
	seen := make(map[string]struct{}, len(f.Parameters))
	for i, p := range f.Parameters {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("parameter[%d] name is required", i)
		}
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("duplicate parameter name %q", p.Name)
		}
		seen[p.Name] = struct{}{}
		switch p.Passing {
		case "", PassingValue, PassingInputPath, PassingInputTextFile, PassingInputBinaryFile,
			PassingOutputPath, PassingOutputTextFile, PassingOutputBinaryFile:
		default:
			return fmt.Errorf("parameter %q has unknown passing style %q", p.Name, p.Passing)
		}
	}
	if f.Returns != nil {
		for i, field := range f.Returns.Fields {
			if strings.TrimSpace(field.Name) == "" {
				return fmt.Errorf("return field[%d] name is required", i)
			}
		}
	}
	return nil
}
