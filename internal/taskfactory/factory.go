// Package taskfactory binds arguments to a component specification,
// resolving its command template into a concrete runnable task.
package taskfactory

import (
	"errors"
	"fmt"
	"path"

	"github.com/google/uuid"

	"github.com/kiln-labs/kiln-go/internal/domain"
)

var (
	ErrMissingArgument = errors.New("missing required argument")
	ErrUnknownArgument = errors.New("unknown argument")
)

const (
	inputsRoot  = "/tmp/inputs"
	outputsRoot = "/tmp/outputs"
)

// Factory creates tasks from one component specification.
type Factory struct {
	spec domain.ComponentSpec
}

// New validates the specification and returns a factory for it. Components
// without an implementation cannot be instantiated.
func New(spec domain.ComponentSpec) (*Factory, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if spec.Container == nil {
		return nil, fmt.Errorf("component %q has no container implementation", spec.Name)
	}
	return &Factory{spec: spec}, nil
}

// Task is a fully resolved component invocation.
type Task struct {
	ID            string
	ComponentName string
	Image         string
	Command       []string
	Args          []string

	// InputPaths and OutputPaths map input/output names to the in-container
	// paths the command was resolved against.
	InputPaths  map[string]string
	OutputPaths map[string]string
}

// NewTask binds arguments (keyed by input name, values serialized) and
// resolves the command template. Optional inputs may be omitted; their
// guarded argument groups drop out of the command line.
func (f *Factory) NewTask(arguments map[string]string) (Task, error) {
	for name := range arguments {
		if _, ok := f.spec.InputByName(name); !ok {
			return Task{}, fmt.Errorf("%w: component %q has no input %q", ErrUnknownArgument, f.spec.Name, name)
		}
	}
	for _, in := range f.spec.Inputs {
		if in.Optional {
			continue
		}
		if _, ok := arguments[in.Name]; !ok {
			return Task{}, fmt.Errorf("%w: %q", ErrMissingArgument, in.Name)
		}
	}

	task := Task{
		ID:            uuid.NewString(),
		ComponentName: f.spec.Name,
		Image:         f.spec.Container.Image,
		InputPaths:    make(map[string]string),
		OutputPaths:   make(map[string]string),
	}
	var err error
	if task.Command, err = f.resolve(f.spec.Container.Command, arguments, &task); err != nil {
		return Task{}, err
	}
	if task.Args, err = f.resolve(f.spec.Container.Args, arguments, &task); err != nil {
		return Task{}, err
	}
	return task, nil
}

func (f *Factory) resolve(template []domain.Argument, arguments map[string]string, task *Task) ([]string, error) {
	var resolved []string
	for _, arg := range template {
		switch arg.Kind {
		case domain.ArgumentLiteral:
			resolved = append(resolved, arg.Text)
		case domain.ArgumentInputValue:
			value, ok := arguments[arg.Name]
			if !ok {
				in, _ := f.spec.InputByName(arg.Name)
				if in.Default == nil {
					return nil, fmt.Errorf("%w: %q", ErrMissingArgument, arg.Name)
				}
				value = *in.Default
			}
			resolved = append(resolved, value)
		case domain.ArgumentInputPath:
			if _, ok := arguments[arg.Name]; !ok {
				return nil, fmt.Errorf("%w: %q", ErrMissingArgument, arg.Name)
			}
			p := path.Join(inputsRoot, arg.Name, "data")
			task.InputPaths[arg.Name] = p
			resolved = append(resolved, p)
		case domain.ArgumentOutputPath:
			p := path.Join(outputsRoot, arg.Name, "data")
			task.OutputPaths[arg.Name] = p
			resolved = append(resolved, p)
		case domain.ArgumentIf:
			if arg.If == nil {
				return nil, errors.New("if argument is missing its body")
			}
			if _, present := arguments[arg.If.IsPresent]; !present {
				continue
			}
			group, err := f.resolve(arg.If.Then, arguments, task)
			if err != nil {
				return nil, err
			}
			resolved = append(resolved, group...)
		default:
			return nil, fmt.Errorf("unknown argument kind %q", arg.Kind)
		}
	}
	return resolved, nil
}
