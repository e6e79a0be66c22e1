package domain

import (
	"errors"
	"fmt"
	"strings"
)

// PassingStyle records how a parameter or output crosses the container
// boundary.
type PassingStyle string

const (
	PassingValue            PassingStyle = "value"
	PassingInputPath        PassingStyle = "inputPath"
	PassingInputTextFile    PassingStyle = "inputTextFile"
	PassingInputBinaryFile  PassingStyle = "inputBinaryFile"
	PassingOutputPath       PassingStyle = "outputPath"
	PassingOutputTextFile   PassingStyle = "outputTextFile"
	PassingOutputBinaryFile PassingStyle = "outputBinaryFile"
	PassingReturnValue      PassingStyle = "returnValue"
)

// IsInputStyle reports whether the style declares an input.
func (s PassingStyle) IsInputStyle() bool {
	switch s {
	case PassingValue, PassingInputPath, PassingInputTextFile, PassingInputBinaryFile:
		return true
	}
	return false
}

// IsFileOutputStyle reports whether the style declares an output produced
// through a parameter rather than a return value.
func (s PassingStyle) IsFileOutputStyle() bool {
	switch s {
	case PassingOutputPath, PassingOutputTextFile, PassingOutputBinaryFile:
		return true
	}
	return false
}

// InputSpec declares one component input.
type InputSpec struct {
	Name        string
	Type        string
	Description string
	Optional    bool
	Default     *string

	// Analysis-only fields; not part of the wire format.
	Passing       PassingStyle
	ParameterName string
}

// OutputSpec declares one component output.
type OutputSpec struct {
	Name        string
	Type        string
	Description string

	// Analysis-only fields; not part of the wire format.
	Passing         PassingStyle
	ParameterName   string
	ReturnFieldName string
}

// ContainerSpec is the runnable half of a component.
type ContainerSpec struct {
	Image   string
	Command []Argument
	Args    []Argument
}

// ComponentSpec is the declarative, serializable description of one
// containerized pipeline step.
type ComponentSpec struct {
	Name        string
	Description string
	Inputs      []InputSpec
	Outputs     []OutputSpec
	Container   *ContainerSpec
}

// InputByName returns the input with the given name, if any.
func (c ComponentSpec) InputByName(name string) (InputSpec, bool) {
	for _, in := range c.Inputs {
		if in.Name == name {
			return in, true
		}
	}
	return InputSpec{}, false
}

// OutputByName returns the output with the given name, if any.
func (c ComponentSpec) OutputByName(name string) (OutputSpec, bool) {
	for _, out := range c.Outputs {
		if out.Name == name {
			return out, true
		}
	}
	return OutputSpec{}, false
}

// ReturnOutputs returns the outputs fulfilled by the function's return value,
// in declaration order.
func (c ComponentSpec) ReturnOutputs() []OutputSpec {
	var outs []OutputSpec
	for _, out := range c.Outputs {
		if out.Passing == PassingReturnValue {
			outs = append(outs, out)
		}
	}
	return outs
}

// FileOutputs returns the outputs fulfilled through output parameters, in
// declaration order.
func (c ComponentSpec) FileOutputs() []OutputSpec {
	var outs []OutputSpec
	for _, out := range c.Outputs {
		if out.Passing.IsFileOutputStyle() {
			outs = append(outs, out)
		}
	}
	return outs
}

// Validate performs structural checks, including that every placeholder in
// the container command references a declared input or output.
func (c ComponentSpec) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("component name is required")
	}
	inputs := make(map[string]struct{}, len(c.Inputs))
	for i, in := range c.Inputs {
		if strings.TrimSpace(in.Name) == "" {
			return fmt.Errorf("input[%d] name is required", i)
		}
		if _, ok := inputs[in.Name]; ok {
			return fmt.Errorf("duplicate input name %q", in.Name)
		}
		inputs[in.Name] = struct{}{}
	}
	outputs := make(map[string]struct{}, len(c.Outputs))
	for i, out := range c.Outputs {
		if strings.TrimSpace(out.Name) == "" {
			return fmt.Errorf("output[%d] name is required", i)
		}
		if _, ok := outputs[out.Name]; ok {
			return fmt.Errorf("duplicate output name %q", out.Name)
		}
		outputs[out.Name] = struct{}{}
	}
	if c.Container == nil {
		return nil
	}
	if strings.TrimSpace(c.Container.Image) == "" {
		return errors.New("container image is required")
	}
	if err := validateArguments(c.Container.Command, inputs, outputs); err != nil {
		return fmt.Errorf("container command: %w", err)
	}
	if err := validateArguments(c.Container.Args, inputs, outputs); err != nil {
		return fmt.Errorf("container args: %w", err)
	}
	return nil
}

func validateArguments(args []Argument, inputs, outputs map[string]struct{}) error {
	for _, arg := range args {
		switch arg.Kind {
		case ArgumentLiteral:
		case ArgumentInputValue, ArgumentInputPath:
			if _, ok := inputs[arg.Name]; !ok {
				return fmt.Errorf("placeholder references undeclared input %q", arg.Name)
			}
		case ArgumentOutputPath:
			if _, ok := outputs[arg.Name]; !ok {
				return fmt.Errorf("placeholder references undeclared output %q", arg.Name)
			}
		case ArgumentIf:
			if arg.If == nil {
				return errors.New("if argument is missing its body")
			}
			if _, ok := inputs[arg.If.IsPresent]; !ok {
				return fmt.Errorf("presence guard references undeclared input %q", arg.If.IsPresent)
			}
			if err := validateArguments(arg.If.Then, inputs, outputs); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown argument kind %q", arg.Kind)
		}
	}
	return nil
}
