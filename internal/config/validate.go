package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Processing.BackupDirectory, err = expandPath(c.Processing.BackupDirectory); err != nil {
		return err
	}
	if c.Caching.Dir, err = expandPath(c.Caching.Dir); err != nil {
		return err
	}
	if c.Logging.LogDir, err = expandPath(c.Logging.LogDir); err != nil {
		return err
	}

	c.Naming.AudioPattern = strings.TrimSpace(c.Naming.AudioPattern)
	c.Naming.VideoPattern = strings.TrimSpace(c.Naming.VideoPattern)
	c.Naming.Case = strings.ToLower(strings.TrimSpace(c.Naming.Case))

	c.Formats.Audio = normalizeExtensions(c.Formats.Audio)
	c.Formats.Video = normalizeExtensions(c.Formats.Video)
	return nil
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

// Validate checks invariants that would otherwise surface as runtime failures.
func (c *Config) Validate() error {
	if c.Processing.MaxWorkers < 1 {
		return fmt.Errorf("processing.max_workers must be at least 1, got %d", c.Processing.MaxWorkers)
	}
	if c.Naming.AudioPattern == "" {
		return fmt.Errorf("naming.audio_pattern must not be empty")
	}
	if c.Naming.VideoPattern == "" {
		return fmt.Errorf("naming.video_pattern must not be empty")
	}
	switch c.Naming.Case {
	case "", "title", "upper", "lower":
	default:
		return fmt.Errorf("naming.case_standardization: unsupported value %q", c.Naming.Case)
	}
	if c.MetadataSources.EnhanceThreshold < 0 || c.MetadataSources.EnhanceThreshold > 1 {
		return fmt.Errorf("metadata_sources.enhance_threshold must be within [0, 1], got %g", c.MetadataSources.EnhanceThreshold)
	}
	if c.MetadataSources.LookupTimeout < 1 {
		return fmt.Errorf("metadata_sources.lookup_timeout must be at least 1 second")
	}
	if c.MetadataSources.TMDB.Enabled && strings.TrimSpace(c.MetadataSources.TMDB.APIKey) == "" {
		return fmt.Errorf("metadata_sources.tmdb.api_key is required when tmdb is enabled")
	}
	for name, src := range map[string]Source{"tmdb": c.MetadataSources.TMDB, "musicbrainz": c.MetadataSources.MusicBrainz} {
		if src.Enabled && src.RateLimit <= 0 {
			return fmt.Errorf("metadata_sources.%s.rate_limit must be positive when enabled", name)
		}
	}
	if c.Caching.CacheDuration < 0 {
		return fmt.Errorf("caching.cache_duration must not be negative")
	}
	if len(c.Formats.Audio) == 0 && len(c.Formats.Video) == 0 {
		return fmt.Errorf("formats: at least one audio or video extension is required")
	}
	return nil
}
