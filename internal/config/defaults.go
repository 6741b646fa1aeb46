package config

// Default returns the baseline configuration applied before any file overrides.
func Default() Config {
	return Config{
		Processing: Processing{
			BackupEnabled:   true,
			BackupDirectory: "~/.local/share/curator/backups",
			UpdateMetadata:  true,
			MaxWorkers:      4,
			Parallel:        false,
		},
		Naming: Naming{
			AudioPattern: "{artist} - {title} ({year})",
			VideoPattern: "{title} ({year})",
			Replacement:  "_",
			Case:         "",
		},
		MetadataSources: MetadataSources{
			TMDB: Source{
				Enabled:   false,
				BaseURL:   "https://api.themoviedb.org/3",
				RateLimit: 4,
				Priority:  2,
			},
			MusicBrainz: Source{
				Enabled:   false,
				BaseURL:   "https://musicbrainz.org/ws/2",
				RateLimit: 1,
				Priority:  1,
			},
			EnhanceThreshold: 0.7,
			LookupTimeout:    10,
		},
		Caching: Caching{
			Enabled:       true,
			Dir:           "~/.cache/curator",
			CacheDuration: 86400,
		},
		Logging: Logging{
			Level:  "info",
			Format: "console",
			LogDir: "~/.local/share/curator/logs",
		},
		Formats: Formats{
			Audio: []string{".mp3", ".flac", ".wav", ".aac", ".ogg", ".m4a"},
			Video: []string{".mp4", ".avi", ".mkv", ".mov", ".wmv", ".flv"},
		},
	}
}
