// Package speccodec serializes component specifications to their canonical
// YAML wire format and parses them back.
package speccodec

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/kiln-labs/kiln-go/internal/domain"
)

// Dump serializes a component specification with stable field names and
// ordering. The result is the component's shareable definition.
func Dump(spec domain.ComponentSpec) ([]byte, error) {
	payload := componentPayload{
		Name:        spec.Name,
		Description: spec.Description,
	}
	for _, in := range spec.Inputs {
		payload.Inputs = append(payload.Inputs, inputPayload{
			Name:        in.Name,
			Type:        in.Type,
			Description: in.Description,
			Default:     in.Default,
			Optional:    in.Optional,
		})
	}
	for _, out := range spec.Outputs {
		payload.Outputs = append(payload.Outputs, outputPayload{
			Name:        out.Name,
			Type:        out.Type,
			Description: out.Description,
		})
	}
	if spec.Container != nil {
		container := containerPayload{Image: spec.Container.Image}
		var err error
		if container.Command, err = encodeArguments(spec.Container.Command); err != nil {
			return nil, err
		}
		if container.Args, err = encodeArguments(spec.Container.Args); err != nil {
			return nil, err
		}
		payload.Implementation = &implementationPayload{Container: container}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(payload); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Load parses a component definition. Data-passing styles and function
// parameter names are analysis-time details and are not part of the wire
// format; loaded specs leave them unset.
func Load(data []byte) (domain.ComponentSpec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var payload componentPayload
	if err := dec.Decode(&payload); err != nil {
		return domain.ComponentSpec{}, fmt.Errorf("parse component definition: %w", err)
	}
	spec := domain.ComponentSpec{
		Name:        payload.Name,
		Description: payload.Description,
	}
	for _, in := range payload.Inputs {
		spec.Inputs = append(spec.Inputs, domain.InputSpec{
			Name:        in.Name,
			Type:        in.Type,
			Description: in.Description,
			Default:     in.Default,
			Optional:    in.Optional,
		})
	}
	for _, out := range payload.Outputs {
		spec.Outputs = append(spec.Outputs, domain.OutputSpec{
			Name:        out.Name,
			Type:        out.Type,
			Description: out.Description,
		})
	}
	if payload.Implementation != nil {
		container := &domain.ContainerSpec{Image: payload.Implementation.Container.Image}
		var err error
		if container.Command, err = decodeArguments(payload.Implementation.Container.Command); err != nil {
			return domain.ComponentSpec{}, err
		}
		if container.Args, err = decodeArguments(payload.Implementation.Container.Args); err != nil {
			return domain.ComponentSpec{}, err
		}
		spec.Container = container
	}
	return spec, nil
}

func encodeArguments(args []domain.Argument) ([]yaml.Node, error) {
	if args == nil {
		return nil, nil
	}
	encoded := make([]yaml.Node, 0, len(args))
	for _, arg := range args {
		value, err := argumentPayload(arg)
		if err != nil {
			return nil, err
		}
		var node yaml.Node
		if err := node.Encode(value); err != nil {
			return nil, err
		}
		encoded = append(encoded, node)
	}
	return encoded, nil
}

func argumentPayload(arg domain.Argument) (any, error) {
	switch arg.Kind {
	case domain.ArgumentLiteral:
		return arg.Text, nil
	case domain.ArgumentInputValue:
		return inputValuePayload{InputValue: arg.Name}, nil
	case domain.ArgumentInputPath:
		return inputPathPayload{InputPath: arg.Name}, nil
	case domain.ArgumentOutputPath:
		return outputPathPayload{OutputPath: arg.Name}, nil
	case domain.ArgumentIf:
		if arg.If == nil {
			return nil, errors.New("if argument is missing its body")
		}
		then, err := encodeArguments(arg.If.Then)
		if err != nil {
			return nil, err
		}
		return ifPayload{If: ifBodyPayload{
			Cond: condPayload{IsPresent: arg.If.IsPresent},
			Then: then,
		}}, nil
	default:
		return nil, fmt.Errorf("unknown argument kind %q", arg.Kind)
	}
}

func decodeArguments(nodes []yaml.Node) ([]domain.Argument, error) {
	var args []domain.Argument
	for i := range nodes {
		arg, err := decodeArgument(&nodes[i])
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
	return args, nil
}

func decodeArgument(node *yaml.Node) (domain.Argument, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		var text string
		if err := node.Decode(&text); err != nil {
			return domain.Argument{}, err
		}
		return domain.Literal(text), nil
	case yaml.MappingNode:
		if len(node.Content) < 2 {
			return domain.Argument{}, errors.New("empty argument placeholder")
		}
		key := node.Content[0].Value
		value := node.Content[1]
		switch key {
		case "inputValue":
			return domain.InputValuePlaceholder(value.Value), nil
		case "inputPath":
			return domain.InputPathPlaceholder(value.Value), nil
		case "outputPath":
			return domain.OutputPathPlaceholder(value.Value), nil
		case "if":
			var body struct {
				Cond struct {
					IsPresent string `yaml:"isPresent"`
				} `yaml:"cond"`
				Then []yaml.Node `yaml:"then"`
			}
			if err := value.Decode(&body); err != nil {
				return domain.Argument{}, err
			}
			then, err := decodeArguments(body.Then)
			if err != nil {
				return domain.Argument{}, err
			}
			return domain.IfPresent(body.Cond.IsPresent, then), nil
		default:
			return domain.Argument{}, fmt.Errorf("unknown argument placeholder %q", key)
		}
	default:
		return domain.Argument{}, fmt.Errorf("unexpected argument node kind %d", node.Kind)
	}
}

type componentPayload struct {
	Name           string                 `yaml:"name"`
	Description    string                 `yaml:"description,omitempty"`
	Inputs         []inputPayload         `yaml:"inputs,omitempty"`
	Outputs        []outputPayload        `yaml:"outputs,omitempty"`
	Implementation *implementationPayload `yaml:"implementation,omitempty"`
}

type inputPayload struct {
	Name        string  `yaml:"name"`
	Type        string  `yaml:"type,omitempty"`
	Description string  `yaml:"description,omitempty"`
	Default     *string `yaml:"default,omitempty"`
	Optional    bool    `yaml:"optional,omitempty"`
}

type outputPayload struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type,omitempty"`
	Description string `yaml:"description,omitempty"`
}

type implementationPayload struct {
	Container containerPayload `yaml:"container"`
}

type containerPayload struct {
	Image   string      `yaml:"image"`
	Command []yaml.Node `yaml:"command,omitempty"`
	Args    []yaml.Node `yaml:"args,omitempty"`
}

type inputValuePayload struct {
	InputValue string `yaml:"inputValue"`
}

type inputPathPayload struct {
	InputPath string `yaml:"inputPath"`
}

type outputPathPayload struct {
	OutputPath string `yaml:"outputPath"`
}

type ifPayload struct {
	If ifBodyPayload `yaml:"if"`
}

type ifBodyPayload struct {
	Cond condPayload `yaml:"cond"`
	Then []yaml.Node `yaml:"then"`
}

type condPayload struct {
	IsPresent string `yaml:"isPresent"`
}
