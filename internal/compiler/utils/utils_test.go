package utils

import "testing"

func TestToPascalCase(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple", "email", "Email"},
		{"snake", "strings_util", "StringsUtil"},
		{"kebab", "math-helpers", "MathHelpers"},
		{"camel", "firstName", "FirstName"},
		{"already Pascal", "UserID", "UserID"},
		{"empty string", "", ""},
		{"single char", "a", "A"},
		{"trailing underscore", "field_", "Field"},
		{"leading underscore", "_field", "Field"},
		{"dots", "v1.2", "V12"},
		{"unicode", "été_chaud", "ÉtéChaud"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToPascalCase(tt.input)
			if result != tt.expected {
				t.Errorf("ToPascalCase(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCapitalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple word", "hello", "Hello"},
		{"empty string", "", ""},
		{"single char", "a", "A"},
		{"already capitalized", "Hello", "Hello"},
		{"multibyte", "ä", "Ä"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Capitalize(tt.input)
			if result != tt.expected {
				t.Errorf("Capitalize(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGoIdent(t *testing.T) {
	tests := []struct {
		prefix, file, expected string
	}{
		{"goxModule", "lib/strings_util.gox", "goxModuleStringsUtil"},
		{"goxModule", "/abs/path/math.gox", "goxModuleMath"},
		{"goxModule", `C:\scripts\my-lib.gox`, "goxModuleMyLib"},
		{"", "2fast.gox", "_2fast"},
		{"", ".gox", "_"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			if got := GoIdent(tt.prefix, tt.file); got != tt.expected {
				t.Errorf("GoIdent(%q, %q) = %q, want %q", tt.prefix, tt.file, got, tt.expected)
			}
		})
	}
}
