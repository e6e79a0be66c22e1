package compiler

import (
	"github.com/kiln-labs/kiln-go/internal/datapassing"
	"github.com/kiln-labs/kiln-go/internal/domain"
)

// resolveTypeName maps an annotation to the type name recorded on the
// component interface. Annotations naming a native keyword map to their
// canonical data-passing names, including forward references and string
// forms; anything else passes through verbatim. The zero annotation stays
// untyped.
func resolveTypeName(ref domain.TypeRef) string {
	raw := ""
	switch {
	case ref.Native != "":
		raw = ref.Native
	case ref.Forward != "":
		raw = ref.Forward
	case ref.Raw != "":
		raw = ref.Raw
	default:
		return ""
	}
	if name, ok := datapassing.NameForNative(raw); ok {
		return name
	}
	return raw
}
