package compiler

import (
	"fmt"
	"strings"
	"unicode"
)

// uniqueName returns name if unused, otherwise name with the smallest
// numeric suffix (starting from 2) that makes it unused.
func uniqueName(name string, used map[string]struct{}) string {
	if _, taken := used[name]; !taken {
		return name
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

// humanizeName turns a function name into a display name: underscores become
// spaces, runs of spaces collapse, and the result is capitalized with the
// remainder lowered.
func humanizeName(name string) string {
	s := strings.ReplaceAll(name, "_", " ")
	fields := strings.Fields(s)
	s = strings.Join(fields, " ")
	if s == "" {
		return ""
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// flagForName derives the command-line flag for an input or output name.
func flagForName(name string) string {
	return "--" + strings.ReplaceAll(name, "_", "-")
}
