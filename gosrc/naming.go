package gosrc

import (
	"strings"
	"unicode"
)

// ImageExt is the file extension of module images.
const ImageExt = ".dtm"

// ImageFileName returns the default image file name for a Go import path.
// e.g., "encoding/json" → "Json.dtm", "go-yaml" → "GoYaml.dtm"
func ImageFileName(importPath string) string {
	parts := strings.Split(strings.TrimSuffix(importPath, "/"), "/")
	return toPascal(parts[len(parts)-1]) + ImageExt
}

// toPascal converts a string to PascalCase.
// Handles hyphenated, dotted and underscore-separated names.
func toPascal(s string) string {
	if len(s) == 0 {
		return s
	}

	var b strings.Builder
	nextUpper := true
	for _, r := range s {
		if r == '-' || r == '_' || r == '.' {
			nextUpper = true
			continue
		}
		if nextUpper {
			b.WriteRune(unicode.ToUpper(r))
			nextUpper = false
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
