package utils

import (
	"regexp"
	"strings"
)

// --- Slug / Filename Sanitization ---
var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)                    // Anything outside [a-z0-9] collapses to one hyphen
var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`) // Characters invalid in Windows/Unix filenames
var consecutiveUnderscores = regexp.MustCompile(`_+`)                  // Pattern to replace multiple underscores with one
const maxFilenameLength = 100                                          // Max length for sanitized filenames

// Slugify converts text into a URL-fragment-safe identifier: lowercase ASCII
// letters, digits, and single hyphens, with no leading or trailing hyphen.
// Text with no slug-safe characters at all (all symbols, or all non-ASCII)
// yields an empty string; callers must supply their own fallback.
func Slugify(text string) string {
	slug := strings.ToLower(text)
	slug = nonSlugChars.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

// SanitizeFilename cleans a string to be safe for use as a filename component
func SanitizeFilename(name string) string {
	sanitized := invalidFilenameChars.ReplaceAllString(name, "_")       // Replace invalid chars with underscore
	sanitized = consecutiveUnderscores.ReplaceAllString(sanitized, "_") // Collapse multiple underscores
	sanitized = strings.Trim(sanitized, "_ ")                           // Remove leading/trailing underscores or spaces

	// Limit filename length (considering multi-byte characters)
	if len(sanitized) > maxFilenameLength {
		sanitized = sanitized[:maxFilenameLength]
		// Trim again in case truncation created leading/trailing underscores
		sanitized = strings.Trim(sanitized, "_ ")
	}

	if sanitized == "" {
		sanitized = "untitled"
	}
	return sanitized
}
