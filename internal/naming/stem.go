package naming

import (
	"path/filepath"
	"strings"
)

// Stem returns the file name without its directory and final extension
// ("/in/study/a.b.dcm" → "a.b"). Stems are the join key between a container
// document and its image.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, Suffix(base))
}

// Suffix returns the final extension of path including the leading dot, or
// "" when the name has none. A leading dot alone (".hidden") is not a suffix.
func Suffix(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == base {
		return ""
	}
	return ext
}

// WithSuffix replaces the final extension of path with suffix, adding it when
// the name has no extension. An empty suffix strips the extension.
func WithSuffix(path, suffix string) string {
	return strings.TrimSuffix(path, Suffix(path)) + suffix
}

// SameStem reports whether a and b share a stem.
func SameStem(a, b string) bool {
	return Stem(a) == Stem(b)
}
