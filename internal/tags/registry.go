package tags

import (
	"fmt"
	"strings"
	"sync"
)

// Registry maps container formats to the codec responsible for them.
// Lookups fall back to the default codec when no format-specific codec is
// registered, so the pipeline always has a working boundary.
type Registry struct {
	mu       sync.RWMutex
	codecs   map[string]Codec
	fallback Codec
}

// NewRegistry creates a registry with the given fallback codec.
func NewRegistry(fallback Codec) *Registry {
	return &Registry{
		codecs:   make(map[string]Codec),
		fallback: fallback,
	}
}

// Register binds a codec to a container format (e.g. "mp3", "mkv").
func (r *Registry) Register(format string, codec Codec) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" || codec == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codecs[format] = codec
}

// CodecFor returns the codec registered for the format, or the fallback.
func (r *Registry) CodecFor(format string) (Codec, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	r.mu.RLock()
	defer r.mu.RUnlock()
	if codec, ok := r.codecs[format]; ok {
		return codec, nil
	}
	if r.fallback != nil {
		return r.fallback, nil
	}
	return nil, fmt.Errorf("%w: no codec for %q", ErrUnsupportedFormat, format)
}
