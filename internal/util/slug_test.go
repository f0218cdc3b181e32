package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		// Basic normalization
		{"two words", "Nature Shots", "nature-shots"},
		{"lowercase", "SUNSET", "sunset"},
		{"already a slug", "street-art", "street-art"},
		{"underscores kept", "black_and_white", "black_and_white"},

		// Whitespace handling
		{"trim whitespace", "  macro  ", "macro"},
		{"multiple spaces", "long   exposure", "long-exposure"},
		{"tabs and spaces", "long\t exposure", "long-exposure"},

		// Special characters
		{"emoji removal", "🐉 Dragons!", "dragons"},
		{"accents folded", "Café Crème", "cafe-creme"},
		{"apostrophe removal", "don't", "dont"},
		{"slash removed", "b/w", "bw"},

		// Dash handling
		{"multiple dashes", "street--art", "street-art"},
		{"space dash space", "city - night", "city-night"},
		{"leading and trailing", "--leading--", "leading"},
		{"trailing underscore", "_wide_", "wide"},

		// Edge cases
		{"empty string", "", ""},
		{"only spaces", "   ", ""},
		{"only special chars", "!@#$%", ""},
		{"numbers allowed", "top10", "top10"},
		{"mixed case with numbers", "Top 10 Shots", "top-10-shots"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}
