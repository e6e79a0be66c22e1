// Package compiler lowers an analyzed function into a declarative component
// specification: it derives the component interface from the signature,
// captures the function body, and assembles the container command that runs
// it.
package compiler

import (
	"fmt"
	"os"
	"strings"

	"github.com/kiln-labs/kiln-go/internal/domain"
	"github.com/kiln-labs/kiln-go/internal/speccodec"
)

// DefaultBaseImage is the image components run on when neither the compile
// options nor the function attach one.
const DefaultBaseImage = "tensorflow/tensorflow:1.13.2-py3"

var (
	processBaseImage        = DefaultBaseImage
	processBaseImageFactory func() string
)

// SetDefaultBaseImage replaces the process-wide default image. Not safe to
// call concurrently with Compile.
func SetDefaultBaseImage(image string) {
	processBaseImage = image
	processBaseImageFactory = nil
}

// SetDefaultBaseImageFactory installs a function that resolves the default
// image at compile time. Not safe to call concurrently with Compile.
func SetDefaultBaseImageFactory(factory func() string) {
	processBaseImageFactory = factory
}

func currentDefaultBaseImage() string {
	if processBaseImageFactory != nil {
		return processBaseImageFactory()
	}
	return processBaseImage
}

// Options control one compilation.
type Options struct {
	// BaseImage overrides the container image. Conflicts with a different
	// image attached to the function itself.
	BaseImage string

	// ExtraCode is placed before the function code in the generated
	// program, e.g. to define types used in the signature.
	ExtraCode string

	// PackagesToInstall are pip packages installed before the program runs.
	PackagesToInstall []string

	// UseCodePickling selects closure-serialization capture instead of
	// source copy.
	UseCodePickling bool
}

func resolveBaseImage(fn domain.FunctionSpec, opts Options) (string, error) {
	if fn.BaseImage != "" {
		if opts.BaseImage != "" && opts.BaseImage != fn.BaseImage {
			return "", fmt.Errorf("%w: base image %q conflicts with the image attached to the function (%q)", ErrConfiguration, opts.BaseImage, fn.BaseImage)
		}
		return fn.BaseImage, nil
	}
	if opts.BaseImage != "" {
		return opts.BaseImage, nil
	}
	return currentDefaultBaseImage(), nil
}

// pipInstallPrefix wraps the container command so packages are installed
// before it runs, retrying as a user install when the global one fails.
func pipInstallPrefix(packages []string) []domain.Argument {
	quoted := make([]string, len(packages))
	for i, pkg := range packages {
		quoted[i] = pyRepr(pkg)
	}
	install := "PIP_DISABLE_PIP_VERSION_CHECK=1 python3 -m pip install --quiet --no-warn-script-location " + strings.Join(quoted, " ")
	return []domain.Argument{
		domain.Literal("sh"),
		domain.Literal("-c"),
		domain.Literal(fmt.Sprintf(`(%s || %s --user) && "$0" "$@"`, install, install)),
	}
}

// Compile lowers an analyzed function to a complete component specification.
func Compile(fn domain.FunctionSpec, opts Options) (domain.ComponentSpec, error) {
	image, err := resolveBaseImage(fn, opts)
	if err != nil {
		return domain.ComponentSpec{}, err
	}

	spec, err := AnalyzeSignature(fn)
	if err != nil {
		return domain.ComponentSpec{}, err
	}

	var capture CaptureStrategy = SourceCopy{}
	if opts.UseCodePickling {
		capture = ClosureSerialization{}
	}
	funcCode, err := capture.Capture(fn)
	if err != nil {
		return domain.ComponentSpec{}, err
	}

	plan := planCommand(spec)
	program, err := buildProgram(fn, spec, plan, funcCode, opts.ExtraCode)
	if err != nil {
		return domain.ComponentSpec{}, err
	}
	args, err := plan.arguments()
	if err != nil {
		return domain.ComponentSpec{}, err
	}

	var command []domain.Argument
	if len(opts.PackagesToInstall) > 0 {
		command = append(command, pipInstallPrefix(opts.PackagesToInstall)...)
	}
	command = append(command,
		domain.Literal("python3"),
		domain.Literal("-u"),
		domain.Literal("-c"),
		domain.Literal(program),
	)

	spec.Container = &domain.ContainerSpec{
		Image:   image,
		Command: command,
		Args:    args,
	}
	if err := spec.Validate(); err != nil {
		return domain.ComponentSpec{}, err
	}
	return spec, nil
}

// CompileToText compiles the function and returns the component's canonical
// textual representation.
func CompileToText(fn domain.FunctionSpec, opts Options) (string, error) {
	spec, err := Compile(fn, opts)
	if err != nil {
		return "", err
	}
	data, err := speccodec.Dump(spec)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// CompileToFile compiles the function and writes the component definition to
// path, falling back to the target file attached to the function.
func CompileToFile(fn domain.FunctionSpec, opts Options, path string) error {
	if path == "" {
		path = fn.TargetFile
	}
	if path == "" {
		return fmt.Errorf("%w: no output file given for function %q", ErrConfiguration, fn.Name)
	}
	text, err := CompileToText(fn, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}
