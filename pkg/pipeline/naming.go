package pipeline

import (
	"strings"
	"unicode"
)

const (
	// DefaultTitlePrefix marks highlight posts and is stripped from filenames.
	DefaultTitlePrefix = "[Highlight] "
	// DefaultExtension is appended to every derived filename.
	DefaultExtension = ".mp4"
)

// StripTitlePrefix removes the first occurrence of prefix from title.
func StripTitlePrefix(title, prefix string) string {
	if prefix == "" {
		return title
	}
	return strings.Replace(title, prefix, "", 1)
}

// SanitizeFilename makes name safe to use as a single path element on common
// filesystems. It may return "" when nothing usable is left.
func SanitizeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune(`/\:*?"<>|`, r) {
			return '_'
		}
		return r
	}, name)

	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.Trim(cleaned, ".")
	return strings.TrimSpace(cleaned)
}
