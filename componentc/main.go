// componentc compiles a function manifest into a component definition.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/kiln-labs/kiln-go/internal/compiler"
	"github.com/kiln-labs/kiln-go/internal/manifest"
)

func main() {
	var (
		manifestPath  = flag.String("manifest", "", "Function manifest file (required)")
		outPath       = flag.String("out", "", "Output file; defaults to the manifest's targetFile or stdout")
		baseImage     = flag.String("image", "", "Container image override")
		packagesRaw   = flag.String("packages", "", "Comma-separated pip packages to install before the function runs")
		extraCodePath = flag.String("extra-code", "", "File with code placed before the function in the generated program")
		usePickling   = flag.Bool("pickle", false, "Embed the serialized closure instead of copying source")
	)
	flag.Parse()

	if strings.TrimSpace(*manifestPath) == "" {
		fmt.Fprintln(os.Stderr, "error: -manifest is required")
		flag.Usage()
		os.Exit(2)
	}

	data, err := os.ReadFile(*manifestPath)
	if err != nil {
		die("read manifest", err)
	}
	fn, err := manifest.Parse(data)
	if err != nil {
		die("parse manifest", err)
	}

	opts := compiler.Options{
		BaseImage:       *baseImage,
		UseCodePickling: *usePickling,
	}
	if *packagesRaw != "" {
		for _, pkg := range strings.Split(*packagesRaw, ",") {
			if pkg = strings.TrimSpace(pkg); pkg != "" {
				opts.PackagesToInstall = append(opts.PackagesToInstall, pkg)
			}
		}
	}
	if *extraCodePath != "" {
		extra, err := os.ReadFile(*extraCodePath)
		if err != nil {
			die("read extra code", err)
		}
		opts.ExtraCode = string(extra)
	}

	if *outPath == "" && fn.TargetFile == "" {
		text, err := compiler.CompileToText(fn, opts)
		if err != nil {
			die("compile", err)
		}
		fmt.Print(text)
		return
	}

	if err := compiler.CompileToFile(fn, opts, *outPath); err != nil {
		die("compile", err)
	}
}

func die(step string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", step, err)
	os.Exit(1)
}
