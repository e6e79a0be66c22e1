package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/kiln-labs/kiln-go/internal/datapassing"
	"github.com/kiln-labs/kiln-go/internal/domain"
)

// orderedSet deduplicates generated-code definitions while preserving the
// order they were first needed in, keeping the program deterministic.
type orderedSet struct {
	seen   map[string]struct{}
	values []string
}

func (s *orderedSet) add(v string) {
	if s.seen == nil {
		s.seen = make(map[string]struct{})
	}
	if _, ok := s.seen[v]; ok {
		return
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
}

// pyRepr renders s as a Python string literal.
func pyRepr(s string) string {
	quote := "'"
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		quote = `"`
	}
	var b strings.Builder
	b.WriteString(quote)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case string(r) == quote:
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20:
			fmt.Fprintf(&b, `\x%02x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteString(quote)
	return b.String()
}

func pyBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// Annotation classes referenced by the captured function signature. The
// generated program must define them before the function code runs.
var markerClassDefs = map[domain.PassingStyle]string{
	domain.PassingInputPath: `class InputPath:
    '''When creating component from function, InputPath should be used as function parameter annotation to tell the system to pass the *data file path* to the function instead of passing the actual data.'''
    def __init__(self, type=None):
        self.type = type`,
	domain.PassingInputTextFile: `class InputTextFile:
    '''When creating component from function, InputTextFile should be used as function parameter annotation to tell the system to pass the *text data stream* object (` + "`io.TextIOWrapper`" + `) to the function instead of passing the actual data.'''
    def __init__(self, type=None):
        self.type = type`,
	domain.PassingInputBinaryFile: `class InputBinaryFile:
    '''When creating component from function, InputBinaryFile should be used as function parameter annotation to tell the system to pass the *binary data stream* object (` + "`io.BytesIO`" + `) to the function instead of passing the actual data.'''
    def __init__(self, type=None):
        self.type = type`,
	domain.PassingOutputPath: `class OutputPath:
    '''When creating component from function, OutputPath should be used as function parameter annotation to tell the system that the function wants to output data by writing it into a file with the given path instead of returning the data from the function.'''
    def __init__(self, type=None):
        self.type = type`,
	domain.PassingOutputTextFile: `class OutputTextFile:
    '''When creating component from function, OutputTextFile should be used as function parameter annotation to tell the system that the function wants to output data by writing it into a given text file stream (` + "`io.TextIOWrapper`" + `) instead of returning the data from the function.'''
    def __init__(self, type=None):
        self.type = type`,
	domain.PassingOutputBinaryFile: `class OutputBinaryFile:
    '''When creating component from function, OutputBinaryFile should be used as function parameter annotation to tell the system that the function wants to output data by writing it into a given binary file stream (` + "`io.BytesIO`" + `) instead of returning the data from the function.'''
    def __init__(self, type=None):
        self.type = type`,
}

const makeParentDirsDef = `def _make_parent_dirs_and_return_path(file_path: str):
    import os
    os.makedirs(os.path.dirname(file_path), exist_ok=True)
    return file_path`

const parentDirsMakerDef = `def _parent_dirs_maker_that_returns_open_file(mode: str, encoding: str = None):
    def make_parent_dirs_and_return_path(file_path: str):
        import os
        os.makedirs(os.path.dirname(file_path), exist_ok=True)
        return open(file_path, mode=mode, encoding=encoding)
    return make_parent_dirs_and_return_path`

const normalizeOutputsBlock = `if not hasattr(_outputs, '__getitem__') or isinstance(_outputs, str):
    _outputs = [_outputs]`

const writeOutputsBlock = `import os
for idx, output_file in enumerate(_output_files):
    try:
        os.makedirs(os.path.dirname(output_file))
    except OSError:
        pass
    with open(output_file, 'w') as f:
        f.write(_output_serializers[idx](_outputs[idx]))`

var blankRuns = regexp.MustCompile(`\n\n\n+`)

type programBuilder struct {
	preDefs orderedSet
	defs    orderedSet
}

// argparseType returns the argparse "type" expression converting the flag's
// string to the value the function parameter expects, registering any
// supporting definitions it needs.
func (b *programBuilder) argparseType(param boundParameter) (string, error) {
	passing := domain.PassingValue
	typeName := ""
	if param.Output != nil {
		passing = param.Output.Passing
		typeName = param.Output.Type
	} else {
		passing = param.Input.Passing
		typeName = param.Input.Type
	}
	if passing != domain.PassingValue {
		b.preDefs.add(markerClassDefs[passing])
	}
	switch passing {
	case domain.PassingValue:
		if d, ok := datapassing.DeserializerFor(typeName); ok {
			if d.Definition != "" {
				b.defs.add(d.Definition)
			}
			return d.Expr, nil
		}
		return "str", nil
	case domain.PassingInputPath:
		return "str", nil
	case domain.PassingInputTextFile:
		return "argparse.FileType('rt')", nil
	case domain.PassingInputBinaryFile:
		return "argparse.FileType('rb')", nil
	case domain.PassingOutputPath:
		// argparse.FileType does not create parent directories, so the
		// output styles use helpers that do.
		b.preDefs.add(makeParentDirsDef)
		return "_make_parent_dirs_and_return_path", nil
	case domain.PassingOutputTextFile:
		b.preDefs.add(parentDirsMakerDef)
		return "_parent_dirs_maker_that_returns_open_file('wt')", nil
	case domain.PassingOutputBinaryFile:
		b.preDefs.add(parentDirsMakerDef)
		return "_parent_dirs_maker_that_returns_open_file('wb')", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPassingStyle, passing)
	}
}

func (b *programBuilder) serializerExpr(typeName string) string {
	if s, ok := datapassing.SerializerFor(typeName); ok {
		if s.Definition != "" {
			b.defs.add(s.Definition)
		}
		return s.Expr
	}
	return "str"
}

// buildProgram generates the single-file program the container runs: the
// captured function wrapped in argument parsing, invocation, and output
// writing. Output is deterministic for a given component.
func buildProgram(fn domain.FunctionSpec, spec domain.ComponentSpec, plan commandPlan, funcCode, extraCode string) (string, error) {
	var b programBuilder

	argLines := []string{
		"import argparse",
		fmt.Sprintf("_parser = argparse.ArgumentParser(prog=%s, description=%s)", pyRepr(spec.Name), pyRepr(spec.Description)),
	}
	for _, param := range plan.Params {
		typeExpr, err := b.argparseType(param)
		if err != nil {
			return "", err
		}
		dest := ""
		if param.Output != nil {
			dest = param.Output.ParameterName
		} else {
			dest = param.Input.ParameterName
		}
		argLines = append(argLines, fmt.Sprintf(
			`_parser.add_argument(%q, dest=%q, type=%s, required=%s, default=argparse.SUPPRESS)`,
			param.Flag, dest, typeExpr, pyBool(param.Required),
		))
	}
	if len(plan.ReturnOutputs) > 0 {
		argLines = append(argLines, fmt.Sprintf(
			`_parser.add_argument(%q, dest="_output_paths", type=str, nargs=%d)`,
			sharedOutputPathsFlag, len(plan.ReturnOutputs),
		))
	}

	serializerExprs := make([]string, 0, len(plan.ReturnOutputs))
	for _, out := range plan.ReturnOutputs {
		serializerExprs = append(serializerExprs, b.serializerExpr(out.Type))
	}

	var parseBlock []string
	for _, def := range b.defs.values {
		parseBlock = append(parseBlock, def, "")
	}
	parseBlock = append(parseBlock, argLines...)
	parseBlock = append(parseBlock,
		"_parsed_args = vars(_parser.parse_args())",
		`_output_files = _parsed_args.pop("_output_paths", [])`,
	)

	blocks := []string{
		strings.Join(b.preDefs.values, "\n\n"),
		extraCode,
		funcCode,
		strings.Join(parseBlock, "\n"),
		fmt.Sprintf("_outputs = %s(**_parsed_args)", fn.Name),
		normalizeOutputsBlock,
		"_output_serializers = [\n    " + strings.Join(serializerExprs, ",\n    ") + "\n]",
		writeOutputsBlock,
	}

	program := strings.Join(blocks, "\n\n")
	program = blankRuns.ReplaceAllString(program, "\n\n")
	return strings.Trim(program, "\n") + "\n", nil
}
