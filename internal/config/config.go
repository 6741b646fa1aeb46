package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Processing contains switches for the file processing pipeline.
type Processing struct {
	BackupEnabled   bool   `toml:"backup_enabled"`
	BackupDirectory string `toml:"backup_directory"`
	UpdateMetadata  bool   `toml:"update_metadata"`
	MaxWorkers      int    `toml:"max_workers"`
	Parallel        bool   `toml:"parallel"`
}

// Naming contains filename generation patterns and sanitization settings.
type Naming struct {
	AudioPattern string `toml:"audio_pattern"`
	VideoPattern string `toml:"video_pattern"`
	Replacement  string `toml:"replacement"`
	// Case is one of "title", "upper", "lower", or "" for no change.
	Case string `toml:"case_standardization"`
}

// Source contains configuration for one external metadata catalog.
type Source struct {
	Enabled bool   `toml:"enabled"`
	APIKey  string `toml:"api_key"`
	BaseURL string `toml:"base_url"`
	// RateLimit is the maximum requests per second issued to this catalog.
	RateLimit float64 `toml:"rate_limit"`
	// Priority breaks ties between equal-confidence results.
	Priority int `toml:"priority"`
}

// MetadataSources contains the catalog adapters and merge policy.
type MetadataSources struct {
	TMDB        Source `toml:"tmdb"`
	MusicBrainz Source `toml:"musicbrainz"`
	// EnhanceThreshold is the minimum confidence for a source result to be
	// merged into the seed record.
	EnhanceThreshold float64 `toml:"enhance_threshold"`
	// LookupTimeout bounds each adapter call, in seconds.
	LookupTimeout int `toml:"lookup_timeout"`
}

// Caching contains configuration for the source response cache.
type Caching struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
	// CacheDuration is the reuse window for a cached response, in seconds.
	CacheDuration int `toml:"cache_duration"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	LogDir string `toml:"log_dir"`
}

// Formats contains the extension allow-lists for media discovery.
type Formats struct {
	Audio []string `toml:"audio"`
	Video []string `toml:"video"`
}

// Config encapsulates all configuration values for Curator.
//
// Configuration sections by subsystem:
//   - Processing: backup and metadata-write switches, batch worker count
//   - Naming: filename patterns and sanitization
//   - MetadataSources: catalog adapters, rate limits, merge threshold
//   - Caching: source response cache location and reuse window
//   - Logging: log level, format, and directory
//   - Formats: audio/video extension allow-lists
type Config struct {
	Processing      Processing      `toml:"processing"`
	Naming          Naming          `toml:"naming"`
	MetadataSources MetadataSources `toml:"metadata_sources"`
	Caching         Caching         `toml:"caching"`
	Logging         Logging         `toml:"logging"`
	Formats         Formats         `toml:"formats"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/curator/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a config file was actually found.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("curator.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the pipeline writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Logging.LogDir}
	if c.Processing.BackupEnabled {
		dirs = append(dirs, c.Processing.BackupDirectory)
	}
	if c.Caching.Enabled {
		dirs = append(dirs, c.Caching.Dir)
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SupportedExtensions returns the combined audio and video allow-lists.
func (c *Config) SupportedExtensions() []string {
	out := make([]string, 0, len(c.Formats.Audio)+len(c.Formats.Video))
	out = append(out, c.Formats.Audio...)
	out = append(out, c.Formats.Video...)
	return out
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
