package compiler

import (
	"strings"
	"testing"

	"github.com/kiln-labs/kiln-go/internal/domain"
)

func TestPyRepr(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain", "'plain'"},
		{"it's", `"it's"`},
		{`both ' and "`, `'both \' and "'`},
		{"line\nbreak\ttab", `'line\nbreak\ttab'`},
		{"back\\slash", `'back\\slash'`},
		{"bell\x07", `'bell\x07'`},
	}
	for _, tc := range cases {
		if got := pyRepr(tc.in); got != tc.want {
			t.Fatalf("pyRepr(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestOrderedSetKeepsFirstInsertionOrder(t *testing.T) {
	var s orderedSet
	s.add("b")
	s.add("a")
	s.add("b")
	if len(s.values) != 2 || s.values[0] != "b" || s.values[1] != "a" {
		t.Fatalf("unexpected values %v", s.values)
	}
}

func compileProgram(t *testing.T, fn domain.FunctionSpec, opts Options) string {
	t.Helper()
	spec, err := Compile(fn, opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmd := spec.Container.Command
	if len(cmd) < 4 || cmd[len(cmd)-3].Text != "-u" {
		t.Fatalf("unexpected command shape %+v", cmd)
	}
	return cmd[len(cmd)-1].Text
}

func exampleFunction() domain.FunctionSpec {
	return domain.FunctionSpec{
		Name: "add_numbers",
		Doc:  "Adds two numbers.",
		Parameters: []domain.Parameter{
			{Name: "a", Type: domain.TypeRef{Native: "int"}},
			{Name: "b", Type: domain.TypeRef{Native: "int"}, Default: &domain.Value{V: 5}},
		},
		Returns: &domain.ReturnSpec{Single: domain.TypeRef{Native: "int"}},
		Source:  "def add_numbers(a: int, b: int = 5) -> int:\n    return a + b\n",
	}
}

func TestBuildProgramArgumentParsing(t *testing.T) {
	program := compileProgram(t, exampleFunction(), Options{})

	for _, want := range []string{
		"_parser = argparse.ArgumentParser(prog='Add numbers', description='Adds two numbers.\\n')",
		`_parser.add_argument("--a", dest="a", type=int, required=True, default=argparse.SUPPRESS)`,
		`_parser.add_argument("--b", dest="b", type=int, required=False, default=argparse.SUPPRESS)`,
		`_parser.add_argument("----output-paths", dest="_output_paths", type=str, nargs=1)`,
		"_parsed_args = vars(_parser.parse_args())",
		`_output_files = _parsed_args.pop("_output_paths", [])`,
		"_outputs = add_numbers(**_parsed_args)",
	} {
		if !strings.Contains(program, want) {
			t.Fatalf("program missing %q:\n%s", want, program)
		}
	}
}

func TestBuildProgramDeterministic(t *testing.T) {
	first := compileProgram(t, exampleFunction(), Options{})
	second := compileProgram(t, exampleFunction(), Options{})
	if first != second {
		t.Fatalf("program text differs between compilations")
	}
}

func TestBuildProgramDefinitionsPrecedeArgparse(t *testing.T) {
	fn := domain.FunctionSpec{
		Name: "flip",
		Parameters: []domain.Parameter{
			{Name: "flag", Type: domain.TypeRef{Native: "bool"}},
			{Name: "items", Type: domain.TypeRef{Native: "list"}},
		},
		Returns: &domain.ReturnSpec{Single: domain.TypeRef{Native: "dict"}},
		Source:  "def flip(flag: bool, items: list) -> dict:\n    return {}\n",
	}
	program := compileProgram(t, fn, Options{})

	boolDef := strings.Index(program, "def _deserialize_bool(s) -> bool:")
	jsonImport := strings.Index(program, "import json")
	jsonSerializer := strings.Index(program, "def _serialize_json(obj) -> str:")
	argparseImport := strings.Index(program, "import argparse")
	if boolDef == -1 || jsonImport == -1 || jsonSerializer == -1 || argparseImport == -1 {
		t.Fatalf("missing expected definitions:\n%s", program)
	}
	if !(boolDef < argparseImport && jsonImport < argparseImport && jsonSerializer < argparseImport) {
		t.Fatalf("definitions must precede import argparse:\n%s", program)
	}
	if boolDef > jsonImport {
		t.Fatalf("definitions out of first-use order:\n%s", program)
	}
	if strings.Contains(program, "_serialize_json,\n    _serialize_json") {
		// a single dict output; only one serializer entry expected
		t.Fatalf("duplicated serializer entries:\n%s", program)
	}
	if !strings.Contains(program, "_output_serializers = [\n    _serialize_json\n]") {
		t.Fatalf("missing serializer list:\n%s", program)
	}
}

func TestBuildProgramFileParameters(t *testing.T) {
	fn := domain.FunctionSpec{
		Name: "copy_data",
		Parameters: []domain.Parameter{
			{Name: "source_path", Passing: domain.PassingInputPath},
			{Name: "notes_file", Passing: domain.PassingInputTextFile},
			{Name: "blob_file", Passing: domain.PassingInputBinaryFile},
			{Name: "dest_path", Passing: domain.PassingOutputPath},
			{Name: "report_file", Passing: domain.PassingOutputTextFile},
			{Name: "archive_file", Passing: domain.PassingOutputBinaryFile},
		},
		Source: "def copy_data(source_path, notes_file, blob_file, dest_path, report_file, archive_file):\n    pass\n",
	}
	program := compileProgram(t, fn, Options{})

	for _, want := range []string{
		"class InputPath:",
		"class InputTextFile:",
		"class InputBinaryFile:",
		"class OutputPath:",
		"class OutputTextFile:",
		"class OutputBinaryFile:",
		`_parser.add_argument("--source", dest="source_path", type=str, required=True, default=argparse.SUPPRESS)`,
		`_parser.add_argument("--notes", dest="notes_file", type=argparse.FileType('rt'), required=True, default=argparse.SUPPRESS)`,
		`_parser.add_argument("--blob", dest="blob_file", type=argparse.FileType('rb'), required=True, default=argparse.SUPPRESS)`,
		`_parser.add_argument("--dest", dest="dest_path", type=_make_parent_dirs_and_return_path, required=True, default=argparse.SUPPRESS)`,
		`_parser.add_argument("--report", dest="report_file", type=_parent_dirs_maker_that_returns_open_file('wt'), required=True, default=argparse.SUPPRESS)`,
		`_parser.add_argument("--archive", dest="archive_file", type=_parent_dirs_maker_that_returns_open_file('wb'), required=True, default=argparse.SUPPRESS)`,
	} {
		if !strings.Contains(program, want) {
			t.Fatalf("program missing %q:\n%s", want, program)
		}
	}
	if strings.Contains(program, "----output-paths") {
		t.Fatalf("file outputs must not use the shared output paths flag:\n%s", program)
	}
	if idx := strings.Index(program, "class InputPath:"); idx > strings.Index(program, "import argparse") {
		t.Fatalf("marker classes must precede the parse block:\n%s", program)
	}
}

func TestBuildProgramCollapsesBlankRuns(t *testing.T) {
	fn := exampleFunction()
	fn.Source = "def add_numbers(a: int, b: int = 5) -> int:\n\n\n\n    return a + b\n"
	program := compileProgram(t, fn, Options{})
	if strings.Contains(program, "\n\n\n") {
		t.Fatalf("program contains uncollapsed blank runs:\n%s", program)
	}
	if !strings.HasSuffix(program, "\n") || strings.HasSuffix(program, "\n\n") {
		t.Fatalf("program must end with exactly one newline")
	}
	if strings.HasPrefix(program, "\n") {
		t.Fatalf("program must not start with a newline")
	}
}

