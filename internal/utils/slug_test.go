package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "punctuation stripped", input: "My Photos!", expected: "my-photos"},
		{name: "surrounding whitespace", input: "  Hello   World  ", expected: "hello-world"},
		{name: "hyphen runs collapse", input: "a -- b", expected: "a-b"},
		{name: "underscores kept", input: "snake_case_name", expected: "snake_case_name"},
		{name: "leading and trailing hyphens", input: "-leading-", expected: "leading"},
		{name: "digits and parens", input: "2024 Taxes (final)", expected: "2024-taxes-final"},
		{name: "non ascii letters dropped", input: "Café Menu", expected: "caf-menu"},
		{name: "tabs and newlines", input: "one\ttwo\nthree", expected: "one-two-three"},
		{name: "only punctuation", input: "!!!", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Slugify(tt.input))
		})
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	for _, input := range []string{"My Photos!", "  Hello   World  ", "a -- b", "Café Menu"} {
		once := Slugify(input)
		assert.Equal(t, once, Slugify(once), "input %q", input)
	}
}

func TestSplitPath(t *testing.T) {
	assert.Equal(t, []string{"work", "reports"}, SplitPath("work/reports"))
	assert.Equal(t, []string{"work", "reports"}, SplitPath("/work//reports/"))
	assert.Empty(t, SplitPath(""))
	assert.Empty(t, SplitPath("///"))
}

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "report.pdf", SanitizeFileName("report.pdf"))
	assert.Equal(t, "passwd", SanitizeFileName("../../etc/passwd"))
	assert.Equal(t, "file.txt", SanitizeFileName(`C:\Users\me\file.txt`))
	assert.Equal(t, "a.txt", SanitizeFileName("a\x00.txt"))
	assert.Equal(t, "", SanitizeFileName("/"))
}

func TestHashFields_Deterministic(t *testing.T) {
	search := "report"
	first := HashFields(map[string]any{"search": &search, "type": "pdf", "page": 1})
	second := HashFields(map[string]any{"page": 1, "type": "pdf", "search": "report"})
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)

	other := HashFields(map[string]any{"search": "report", "type": "image", "page": 1})
	assert.NotEqual(t, first, other)
}
