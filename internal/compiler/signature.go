package compiler

import (
	"fmt"
	"strings"

	"github.com/kiln-labs/kiln-go/internal/datapassing"
	"github.com/kiln-labs/kiln-go/internal/domain"
)

// singleOutputName labels the output of a function whose return annotation
// is a plain type rather than a named tuple.
const singleOutputName = "Output"

// AnalyzeSignature derives the component interface (inputs, outputs, name,
// description) from an analyzed function. It performs no code generation.
func AnalyzeSignature(fn domain.FunctionSpec) (domain.ComponentSpec, error) {
	if err := fn.Validate(); err != nil {
		return domain.ComponentSpec{}, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}

	var inputs []domain.InputSpec
	var outputs []domain.OutputSpec
	inputNames := make(map[string]struct{})
	outputNames := make(map[string]struct{})

	for _, param := range fn.Parameters {
		passing := param.Passing
		if passing == "" {
			passing = domain.PassingValue
		}
		ioName := param.Name
		if passing != domain.PassingValue {
			if param.Default != nil {
				return domain.ComponentSpec{}, fmt.Errorf("%w: parameter %q: default values for file inputs and outputs are not supported", ErrConfiguration, param.Name)
			}
			// File parameters are usually named after the path they receive
			// (model_path, examples_file). The component-level name refers to
			// the data itself, so the path/file suffix comes off.
			if passing == domain.PassingInputPath || passing == domain.PassingOutputPath {
				ioName = strings.TrimSuffix(ioName, "_path")
			}
			ioName = strings.TrimSuffix(ioName, "_file")
		}
		typeName := resolveTypeName(param.Type)

		if passing.IsFileOutputStyle() {
			name := uniqueName(ioName, outputNames)
			outputNames[name] = struct{}{}
			outputs = append(outputs, domain.OutputSpec{
				Name:          name,
				Type:          typeName,
				Passing:       passing,
				ParameterName: param.Name,
			})
			continue
		}

		name := uniqueName(ioName, inputNames)
		inputNames[name] = struct{}{}
		in := domain.InputSpec{
			Name:          name,
			Type:          typeName,
			Passing:       passing,
			ParameterName: param.Name,
		}
		if param.Default != nil {
			in.Optional = true
			if !param.Default.Null {
				serialized, err := datapassing.Serialize(param.Default.V, typeName)
				if err != nil {
					return domain.ComponentSpec{}, fmt.Errorf("%w: parameter %q default: %v", ErrConfiguration, param.Name, err)
				}
				in.Default = &serialized
			}
		}
		inputs = append(inputs, in)
	}

	if fn.Returns != nil {
		switch {
		case len(fn.Returns.Fields) > 0:
			for _, field := range fn.Returns.Fields {
				name := uniqueName(field.Name, outputNames)
				outputNames[name] = struct{}{}
				outputs = append(outputs, domain.OutputSpec{
					Name:            name,
					Type:            resolveTypeName(field.Type),
					Passing:         domain.PassingReturnValue,
					ReturnFieldName: field.Name,
				})
			}
		case !fn.Returns.Single.IsZero():
			// The constant can collide with an output parameter named
			// "output_path"; uniqueName resolves that.
			name := uniqueName(singleOutputName, outputNames)
			outputNames[name] = struct{}{}
			outputs = append(outputs, domain.OutputSpec{
				Name:    name,
				Type:    resolveTypeName(fn.Returns.Single),
				Passing: domain.PassingReturnValue,
			})
		}
	}

	name := fn.HumanName
	if name == "" {
		name = humanizeName(fn.Name)
	}
	description := fn.Description
	if description == "" {
		description = fn.Doc
	}
	if description != "" {
		description = strings.TrimSpace(description) + "\n"
	}

	return domain.ComponentSpec{
		Name:        name,
		Description: description,
		Inputs:      inputs,
		Outputs:     outputs,
	}, nil
}
