// Package manifest parses function manifests: YAML documents describing a
// function's signature and captured body, the compiler's input.
package manifest

import (
	"bytes"
	"encoding/base64"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kiln-labs/kiln-go/internal/domain"
)

var nativeKeywords = map[string]struct{}{
	"str":   {},
	"int":   {},
	"float": {},
	"bool":  {},
	"list":  {},
	"dict":  {},
}

var passingStyles = map[string]domain.PassingStyle{
	"value":            domain.PassingValue,
	"inputPath":        domain.PassingInputPath,
	"inputTextFile":    domain.PassingInputTextFile,
	"inputBinaryFile":  domain.PassingInputBinaryFile,
	"outputPath":       domain.PassingOutputPath,
	"outputTextFile":   domain.PassingOutputTextFile,
	"outputBinaryFile": domain.PassingOutputBinaryFile,
}

// Parse reads a function manifest. Unknown fields are rejected.
func Parse(data []byte) (domain.FunctionSpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var payload functionPayload
	if err := dec.Decode(&payload); err != nil {
		return domain.FunctionSpec{}, fmt.Errorf("parse function manifest: %w", err)
	}

	fn := domain.FunctionSpec{
		Name:        payload.Name,
		Doc:         payload.Doc,
		Source:      payload.Source,
		HumanName:   payload.HumanName,
		Description: payload.Description,
		BaseImage:   payload.BaseImage,
		TargetFile:  payload.TargetFile,
	}
	if payload.PickledClosure != "" {
		blob, err := base64.StdEncoding.DecodeString(payload.PickledClosure)
		if err != nil {
			return domain.FunctionSpec{}, fmt.Errorf("parse function manifest: pickledClosure is not valid base64: %w", err)
		}
		fn.SerializedClosure = blob
	}
	if payload.PicklerVersion != nil {
		fn.PicklerVersion = &domain.InterpreterVersion{
			Major: payload.PicklerVersion.Major,
			Minor: payload.PicklerVersion.Minor,
			Micro: payload.PicklerVersion.Micro,
		}
	}

	for i, p := range payload.Parameters {
		param := domain.Parameter{
			Name: p.Name,
			Type: typeRef(p.Type),
		}
		if p.Passing != "" {
			style, ok := passingStyles[p.Passing]
			if !ok {
				return domain.FunctionSpec{}, fmt.Errorf("parse function manifest: parameter[%d] has unknown passing style %q", i, p.Passing)
			}
			param.Passing = style
		}
		if !p.Default.IsZero() {
			value, err := decodeDefault(&p.Default)
			if err != nil {
				return domain.FunctionSpec{}, fmt.Errorf("parse function manifest: parameter[%d] default: %w", i, err)
			}
			param.Default = value
		}
		fn.Parameters = append(fn.Parameters, param)
	}

	if payload.Returns != nil {
		returns := &domain.ReturnSpec{Single: typeRef(payload.Returns.Type)}
		for _, field := range payload.Returns.Fields {
			returns.Fields = append(returns.Fields, domain.ReturnField{
				Name: field.Name,
				Type: typeRef(field.Type),
			})
		}
		fn.Returns = returns
	}

	if err := fn.Validate(); err != nil {
		return domain.FunctionSpec{}, fmt.Errorf("parse function manifest: %w", err)
	}
	return fn, nil
}

func typeRef(name string) domain.TypeRef {
	if name == "" {
		return domain.TypeRef{}
	}
	if _, ok := nativeKeywords[name]; ok {
		return domain.TypeRef{Native: name}
	}
	return domain.TypeRef{Raw: name}
}

// decodeDefault keeps the absent/null distinction: an explicit null default
// makes the input optional without a serialized default value.
func decodeDefault(node *yaml.Node) (*domain.Value, error) {
	if node.Tag == "!!null" {
		return &domain.Value{Null: true}, nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, err
	}
	return &domain.Value{V: v}, nil
}

type functionPayload struct {
	Name           string                  `yaml:"name"`
	Doc            string                  `yaml:"doc"`
	HumanName      string                  `yaml:"humanName"`
	Description    string                  `yaml:"description"`
	BaseImage      string                  `yaml:"baseImage"`
	TargetFile     string                  `yaml:"targetFile"`
	Source         string                  `yaml:"source"`
	PickledClosure string                  `yaml:"pickledClosure"`
	PicklerVersion *interpreterVersionYAML `yaml:"picklerVersion"`
	Parameters     []parameterPayload      `yaml:"parameters"`
	Returns        *returnsPayload         `yaml:"returns"`
}

type parameterPayload struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Passing string    `yaml:"passing"`
	Default yaml.Node `yaml:"default"`
}

type returnsPayload struct {
	Type   string               `yaml:"type"`
	Fields []returnFieldPayload `yaml:"fields"`
}

type returnFieldPayload struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

type interpreterVersionYAML struct {
	Major int `yaml:"major"`
	Minor int `yaml:"minor"`
	Micro int `yaml:"micro"`
}
