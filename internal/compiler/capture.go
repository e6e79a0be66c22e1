package compiler

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/kiln-labs/kiln-go/internal/domain"
)

// CaptureStrategy turns an analyzed function into the code text embedded in
// the generated program.
type CaptureStrategy interface {
	Capture(fn domain.FunctionSpec) (string, error)
}

// SourceCopy embeds the function's own source text, cleaned of decorators
// and enclosing-scope indentation.
type SourceCopy struct{}

func (SourceCopy) Capture(fn domain.FunctionSpec) (string, error) {
	if fn.Source == "" {
		return "", fmt.Errorf("%w: function %q has no source text", ErrConfiguration, fn.Name)
	}
	lines := strings.Split(fn.Source, "\n")
	for len(lines) > 0 && strings.HasPrefix(strings.TrimLeft(lines[0], " \t"), "@") {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("%w: function %q source contains only decorators", ErrConfiguration, fn.Name)
	}

	// The function may have been defined in an indented scope.
	first := lines[0]
	indent := len(first) - len(strings.TrimLeft(first, " \t"))
	for i, line := range lines {
		if len(line) >= indent {
			lines[i] = line[indent:]
		} else {
			lines[i] = strings.TrimLeft(line, " \t")
		}
	}

	if fn.Returns != nil && len(fn.Returns.Fields) > 0 {
		lines = append([]string{"from typing import NamedTuple", ""}, lines...)
	}
	return strings.Join(lines, "\n"), nil
}

// ClosureSerialization embeds a base64 pickled closure plus loader code that
// installs the pickling library if missing and refuses to run under an
// incompatible interpreter.
type ClosureSerialization struct{}

const closureLoaderInstall = `import sys
try:
    import cloudpickle as _cloudpickle
except ImportError:
    import subprocess
    try:
        print("cloudpickle is not installed. Installing it globally", file=sys.stderr)
        subprocess.run([sys.executable, "-m", "pip", "install", "cloudpickle==1.1.1", "--quiet"], env={"PIP_DISABLE_PIP_VERSION_CHECK": "1"}, check=True)
        print("Installed cloudpickle globally", file=sys.stderr)
    except:
        print("Failed to install cloudpickle globally. Installing for the current user.", file=sys.stderr)
        subprocess.run([sys.executable, "-m", "pip", "install", "cloudpickle==1.1.1", "--user", "--quiet"], env={"PIP_DISABLE_PIP_VERSION_CHECK": "1"}, check=True)
        print("Installed cloudpickle for the current user", file=sys.stderr)
        # Loading from the user site directory needs an explicit path entry when it was empty at interpreter start.
        import site
        sys.path.append(site.getusersitepackages())
    import cloudpickle as _cloudpickle
    print("cloudpickle loaded successfully after installing.", file=sys.stderr)`

const closureVersionGuard = `pickler_python_version = (%d, %d, %d)
current_python_version = tuple(sys.version_info)[:3]
if (
    current_python_version[0] != pickler_python_version[0] or
    current_python_version[1] < pickler_python_version[1] or
    current_python_version[0] == 3 and ((pickler_python_version[1] < 6) != (current_python_version[1] < 6))
    ):
    raise RuntimeError("Incompatible python versions: " + str(current_python_version) + " instead of " + str(pickler_python_version))

if current_python_version != pickler_python_version:
    print("Warning!: Different python versions. The code may crash! Current environment python version: " + str(current_python_version) + ". Component code python version: " + str(pickler_python_version), file=sys.stderr)`

func (ClosureSerialization) Capture(fn domain.FunctionSpec) (string, error) {
	if len(fn.SerializedClosure) == 0 {
		return "", fmt.Errorf("%w: function %q has no serialized closure", ErrConfiguration, fn.Name)
	}
	if fn.PicklerVersion == nil {
		return "", fmt.Errorf("%w: function %q closure is missing the pickler interpreter version", ErrConfiguration, fn.Name)
	}
	v := fn.PicklerVersion
	blob := base64.StdEncoding.EncodeToString(fn.SerializedClosure)
	var b strings.Builder
	b.WriteString(closureLoaderInstall)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, closureVersionGuard, v.Major, v.Minor, v.Micro)
	b.WriteString("\n\nimport base64\nimport pickle\n\n")
	fmt.Fprintf(&b, "%s = pickle.loads(base64.b64decode(b'%s'))\n", fn.Name, blob)
	return b.String(), nil
}
