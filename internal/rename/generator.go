package rename

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"curator/internal/config"
	"curator/internal/media"
	"curator/internal/metadata"
	"curator/internal/textutil"
)

// FallbackName replaces a generated name that sanitizes down to nothing.
const FallbackName = "untitled"

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// Generator derives target filenames from metadata records using the
// configured naming patterns.
type Generator struct {
	audioPattern string
	videoPattern string
	replacement  string
	caser        func(string) string
}

// NewGenerator creates a filename generator from naming configuration.
func NewGenerator(naming config.Naming) *Generator {
	return &Generator{
		audioPattern: naming.AudioPattern,
		videoPattern: naming.VideoPattern,
		replacement:  naming.Replacement,
		caser:        caserFor(naming.Case),
	}
}

func caserFor(mode string) func(string) string {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "title":
		titleCaser := cases.Title(language.Und)
		return titleCaser.String
	case "upper":
		return strings.ToUpper
	case "lower":
		return strings.ToLower
	default:
		return nil
	}
}

// Generate builds the filename (without directory) for a record. The
// extension is carried over from the original path unchanged. The boolean is
// false when the pattern references a field the record does not carry.
func (g *Generator) Generate(kind media.Kind, record metadata.Record, originalPath string) (string, bool) {
	pattern := g.videoPattern
	if kind == media.KindAudio {
		pattern = g.audioPattern
	}

	complete := true
	expanded := placeholderPattern.ReplaceAllStringFunc(pattern, func(match string) string {
		field := placeholderPattern.FindStringSubmatch(match)[1]
		value, ok := record.Field(field)
		if !ok {
			complete = false
			return ""
		}
		return value
	})
	if !complete {
		return "", false
	}

	name := textutil.SanitizeFileName(expanded, g.replacement)
	if g.caser != nil {
		name = g.caser(name)
	}
	if name == "" {
		name = FallbackName
	}
	return name + strings.ToLower(filepath.Ext(originalPath)), true
}

// ResolveCollision returns a path in the same directory that does not exist
// yet, appending _1, _2, ... before the extension as needed. The original
// path itself is never treated as a collision.
func ResolveCollision(candidate, originalPath string) (string, error) {
	if candidate == originalPath {
		return candidate, nil
	}
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	} else if err != nil {
		return "", fmt.Errorf("stat candidate: %w", err)
	}

	ext := filepath.Ext(candidate)
	stem := strings.TrimSuffix(candidate, ext)
	for i := 1; ; i++ {
		next := fmt.Sprintf("%s_%d%s", stem, i, ext)
		if next == originalPath {
			return next, nil
		}
		_, err := os.Stat(next)
		if os.IsNotExist(err) {
			return next, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat candidate: %w", err)
		}
	}
}
