package compiler

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kiln-labs/kiln-go/internal/domain"
)

func TestCompileUsesDefaultBaseImage(t *testing.T) {
	spec, err := Compile(exampleFunction(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Container.Image != DefaultBaseImage {
		t.Fatalf("expected default image, got %q", spec.Container.Image)
	}
}

func TestCompileBaseImagePrecedence(t *testing.T) {
	fn := exampleFunction()
	fn.BaseImage = "python:3.8"

	spec, err := Compile(fn, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Container.Image != "python:3.8" {
		t.Fatalf("expected function image, got %q", spec.Container.Image)
	}

	// The same image in the options is not a conflict.
	if _, err := Compile(fn, Options{BaseImage: "python:3.8"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Compile(fn, Options{BaseImage: "python:3.9"}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for conflicting images, got %v", err)
	}
}

func TestCompileBaseImageFactory(t *testing.T) {
	defer SetDefaultBaseImage(DefaultBaseImage)
	SetDefaultBaseImageFactory(func() string { return "custom:latest" })

	spec, err := Compile(exampleFunction(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Container.Image != "custom:latest" {
		t.Fatalf("expected factory image, got %q", spec.Container.Image)
	}
}

func TestCompilePackageInstallPrefix(t *testing.T) {
	spec, err := Compile(exampleFunction(), Options{PackagesToInstall: []string{"pandas==1.0.0", "scikit-learn"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cmd := spec.Container.Command
	if len(cmd) != 7 {
		t.Fatalf("expected sh wrapper plus interpreter command, got %d entries", len(cmd))
	}
	if cmd[0].Text != "sh" || cmd[1].Text != "-c" {
		t.Fatalf("expected sh -c prefix, got %+v", cmd[:2])
	}
	install := "PIP_DISABLE_PIP_VERSION_CHECK=1 python3 -m pip install --quiet --no-warn-script-location 'pandas==1.0.0' 'scikit-learn'"
	want := "(" + install + " || " + install + ` --user) && "$0" "$@"`
	if cmd[2].Text != want {
		t.Fatalf("install wrapper mismatch:\n got %q\nwant %q", cmd[2].Text, want)
	}
	if cmd[3].Text != "python3" || cmd[4].Text != "-u" || cmd[5].Text != "-c" {
		t.Fatalf("unexpected interpreter command %+v", cmd[3:6])
	}
}

func TestCompileArgumentsTemplate(t *testing.T) {
	fn := domain.FunctionSpec{
		Name: "train",
		Parameters: []domain.Parameter{
			{Name: "epochs", Type: domain.TypeRef{Native: "int"}},
			{Name: "seed", Type: domain.TypeRef{Native: "int"}, Default: &domain.Value{V: 0}},
			{Name: "model_path", Passing: domain.PassingOutputPath},
		},
		Returns: &domain.ReturnSpec{Single: domain.TypeRef{Native: "float"}},
		Source:  "def train(epochs, seed=0, model_path=''):\n    return 0.0\n",
	}

	spec, err := Compile(fn, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []domain.Argument{
		domain.Literal("--epochs"),
		domain.InputValuePlaceholder("epochs"),
		domain.IfPresent("seed", []domain.Argument{
			domain.Literal("--seed"),
			domain.InputValuePlaceholder("seed"),
		}),
		domain.Literal("--model"),
		domain.OutputPathPlaceholder("model"),
		domain.Literal("----output-paths"),
		domain.OutputPathPlaceholder("Output"),
	}
	if !reflect.DeepEqual(spec.Container.Args, want) {
		t.Fatalf("args mismatch:\n got %+v\nwant %+v", spec.Container.Args, want)
	}
}

func TestCompileExtraCodePrecedesFunction(t *testing.T) {
	program := compileProgram(t, exampleFunction(), Options{ExtraCode: "SCALE = 2"})
	scale := strings.Index(program, "SCALE = 2")
	def := strings.Index(program, "def add_numbers")
	if scale == -1 || def == -1 || scale > def {
		t.Fatalf("extra code must precede the function:\n%s", program)
	}
}

func TestCompileToTextRoundTrips(t *testing.T) {
	text, err := CompileToText(exampleFunction(), Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(text, "name: Add numbers\n") {
		t.Fatalf("unexpected document start:\n%s", text)
	}
	for _, want := range []string{
		"implementation:", "container:", "image: tensorflow/tensorflow:1.13.2-py3",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("document missing %q:\n%s", want, text)
		}
	}
}
