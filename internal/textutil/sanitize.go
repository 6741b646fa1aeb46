package textutil

import "strings"

// unsafeFileChars are the characters rejected by at least one common filesystem.
const unsafeFileChars = `<>:"/\|?*`

// SanitizeFileName replaces filesystem-unsafe characters in a filename with
// the supplied replacement string, then trims leading/trailing whitespace and
// dots. Control characters are always dropped. May return an empty string;
// callers decide the fallback name.
func SanitizeFileName(name, replacement string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r < 0x20:
			// drop control characters
		case strings.ContainsRune(unsafeFileChars, r):
			b.WriteString(replacement)
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), " .\t")
}
