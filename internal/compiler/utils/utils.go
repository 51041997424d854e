package utils

import (
	"path"
	"strings"
	"unicode"
)

// ToPascalCase converts snake_case, kebab-case and camelCase to PascalCase.
// Any rune that cannot appear in a Go identifier separates words.
func ToPascalCase(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, w := range words {
		words[i] = Capitalize(w)
	}
	return strings.Join(words, "")
}

// Capitalize upper-cases the first letter.
func Capitalize(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// GoIdent builds a Go identifier from prefix and the base name of a file,
// without its extension: ("goxModule", "lib/strings_util.gox") gives
// "goxModuleStringsUtil".
func GoIdent(prefix, file string) string {
	base := path.Base(strings.ReplaceAll(file, "\\", "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	name := prefix + ToPascalCase(base)
	if name == "" || unicode.IsDigit([]rune(name)[0]) {
		name = "_" + name
	}
	return name
}
