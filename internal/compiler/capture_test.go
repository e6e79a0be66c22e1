package compiler

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/kiln-labs/kiln-go/internal/domain"
)

func TestSourceCopyDropsDecoratorsAndDedents(t *testing.T) {
	fn := domain.FunctionSpec{
		Name: "inner",
		Source: "    @component\n" +
			"    @staticmethod\n" +
			"    def inner(x: int) -> int:\n" +
			"        return x\n",
	}
	got, err := SourceCopy{}.Capture(fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "def inner(x: int) -> int:\n    return x\n"
	if got != want {
		t.Fatalf("captured source mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestSourceCopyPrependsNamedTupleImport(t *testing.T) {
	fn := domain.FunctionSpec{
		Name:   "split",
		Source: "def split() -> NamedTuple('Outputs', [('a', int)]):\n    return (1,)\n",
		Returns: &domain.ReturnSpec{Fields: []domain.ReturnField{
			{Name: "a", Type: domain.TypeRef{Native: "int"}},
		}},
	}
	got, err := SourceCopy{}.Capture(fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "from typing import NamedTuple\n\ndef split()") {
		t.Fatalf("missing NamedTuple import:\n%s", got)
	}
}

func TestSourceCopyRequiresSource(t *testing.T) {
	if _, err := (SourceCopy{}).Capture(domain.FunctionSpec{Name: "f"}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestClosureSerializationCapture(t *testing.T) {
	closure := []byte{0x80, 0x04, 0x95}
	fn := domain.FunctionSpec{
		Name:              "pickled",
		SerializedClosure: closure,
		PicklerVersion:    &domain.InterpreterVersion{Major: 3, Minor: 8, Micro: 10},
	}
	got, err := ClosureSerialization{}.Capture(fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	blob := base64.StdEncoding.EncodeToString(closure)
	for _, want := range []string{
		"import cloudpickle as _cloudpickle",
		`"pip", "install", "cloudpickle==1.1.1", "--quiet"`,
		"pickler_python_version = (3, 8, 10)",
		"current_python_version = tuple(sys.version_info)[:3]",
		"pickled = pickle.loads(base64.b64decode(b'" + blob + "'))",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("captured code missing %q:\n%s", want, got)
		}
	}
}

func TestClosureSerializationRequiresClosureAndVersion(t *testing.T) {
	if _, err := (ClosureSerialization{}).Capture(domain.FunctionSpec{Name: "f"}); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for missing closure, got %v", err)
	}
	fn := domain.FunctionSpec{Name: "f", SerializedClosure: []byte{1}}
	if _, err := (ClosureSerialization{}).Capture(fn); !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration for missing version, got %v", err)
	}
}
