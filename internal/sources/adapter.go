package sources

import (
	"context"
	"strconv"
	"strings"

	"curator/internal/media"
	"curator/internal/metadata"
)

// Params carries optional hints narrowing an adapter search.
type Params struct {
	Year   int
	Artist string
	Limit  int
}

// CacheKey returns a stable string representation for caching.
func (p Params) CacheKey() string {
	var b strings.Builder
	b.WriteString("y=")
	b.WriteString(strconv.Itoa(p.Year))
	b.WriteString("|a=")
	b.WriteString(strings.ToLower(strings.TrimSpace(p.Artist)))
	return b.String()
}

// Adapter is the uniform client interface over one external metadata
// catalog. Search never errors for "no results"; it returns an empty slice.
// Errors are reserved for transport-level failures, which the aggregator
// swallows per source.
type Adapter interface {
	Name() string
	Supports(kind media.Kind) bool
	Search(ctx context.Context, kind media.Kind, query string, params Params) ([]metadata.SourceResult, error)
	Artwork(ctx context.Context, identifier string) ([]string, error)
}
