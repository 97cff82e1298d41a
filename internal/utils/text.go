package utils

import (
	"path"
	"strings"
	"unicode/utf8"
)

// CleanUTF8 removes or replaces invalid UTF8 characters from a string
// Returns the cleaned string and a boolean indicating if cleaning was needed
func CleanUTF8(input string) (string, bool) {
	needsCleaning := strings.Contains(input, "\x00") || !utf8.ValidString(input)

	if !needsCleaning {
		return input, false
	}

	cleaned := strings.ToValidUTF8(input, "")
	cleaned = strings.ReplaceAll(cleaned, "\x00", "")

	return cleaned, true
}

// SanitizeFileName strips directory components and invalid bytes from a client
// supplied file name so it can be embedded in a storage key.
func SanitizeFileName(name string) string {
	cleaned, _ := CleanUTF8(name)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	cleaned = strings.TrimSpace(path.Base(cleaned))
	if cleaned == "." || cleaned == "/" {
		return ""
	}
	return cleaned
}
