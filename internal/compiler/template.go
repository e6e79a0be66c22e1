package compiler

import "github.com/kiln-labs/kiln-go/internal/domain"

// boundParameter ties one function parameter to its command-line flag.
// Exactly one of Input or Output is set; file outputs are delivered through
// parameters and therefore bound like inputs.
type boundParameter struct {
	Flag     string
	Input    *domain.InputSpec
	Output   *domain.OutputSpec
	Required bool
}

// commandPlan is the lowering plan shared by the args template and the
// generated program: the flag-bound parameters in declaration order, then
// the outputs fulfilled by the return value.
type commandPlan struct {
	Params        []boundParameter
	ReturnOutputs []domain.OutputSpec
}

// sharedOutputPathsFlag carries the file paths for all return-value outputs
// as one multi-value argument. The extra dashes keep it from colliding with
// flags derived from input names.
const sharedOutputPathsFlag = "----output-paths"

func planCommand(spec domain.ComponentSpec) commandPlan {
	var plan commandPlan
	for i := range spec.Inputs {
		in := &spec.Inputs[i]
		plan.Params = append(plan.Params, boundParameter{
			Flag:     flagForName(in.Name),
			Input:    in,
			Required: !in.Optional,
		})
	}
	for i := range spec.Outputs {
		out := &spec.Outputs[i]
		if out.Passing.IsFileOutputStyle() {
			plan.Params = append(plan.Params, boundParameter{
				Flag:     flagForName(out.Name),
				Output:   out,
				Required: true,
			})
		}
	}
	plan.ReturnOutputs = spec.ReturnOutputs()
	return plan
}

// arguments lowers the plan to the container args template.
func (p commandPlan) arguments() ([]domain.Argument, error) {
	var args []domain.Argument
	for _, param := range p.Params {
		var group []domain.Argument
		switch {
		case param.Output != nil:
			group = []domain.Argument{domain.Literal(param.Flag), domain.OutputPathPlaceholder(param.Output.Name)}
		case param.Input.Passing == domain.PassingValue:
			group = []domain.Argument{domain.Literal(param.Flag), domain.InputValuePlaceholder(param.Input.Name)}
		case param.Input.Passing.IsInputStyle():
			group = []domain.Argument{domain.Literal(param.Flag), domain.InputPathPlaceholder(param.Input.Name)}
		default:
			return nil, ErrUnsupportedPassingStyle
		}
		if param.Required {
			args = append(args, group...)
		} else {
			args = append(args, domain.IfPresent(param.Input.Name, group))
		}
	}
	if len(p.ReturnOutputs) > 0 {
		args = append(args, domain.Literal(sharedOutputPathsFlag))
		for _, out := range p.ReturnOutputs {
			args = append(args, domain.OutputPathPlaceholder(out.Name))
		}
	}
	return args, nil
}
