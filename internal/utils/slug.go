package utils

import (
	"regexp"
	"strings"
)

var (
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugInvalid    = regexp.MustCompile(`[^a-z0-9_-]+`)
	slugHyphens    = regexp.MustCompile(`-{2,}`)
)

// Slugify derives the URL-safe path segment for a folder name. The result may
// be empty when the name carries no ASCII word characters.
func Slugify(name string) string {
	slug := strings.TrimSpace(strings.ToLower(name))
	slug = slugWhitespace.ReplaceAllString(slug, "-")
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = slugHyphens.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// SplitPath breaks a slash separated slug path into its non-empty segments.
func SplitPath(path string) []string {
	parts := strings.Split(path, "/")
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}
