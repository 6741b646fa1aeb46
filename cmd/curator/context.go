package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"curator/internal/aggregator"
	"curator/internal/backup"
	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/media"
	"curator/internal/processor"
	"curator/internal/rename"
	"curator/internal/sources"
	"curator/internal/sources/musicbrainz"
	"curator/internal/sources/tmdb"
	"curator/internal/tags"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		outputs := []string{"stderr"}
		if dir := strings.TrimSpace(cfg.Logging.LogDir); dir != "" {
			outputs = append(outputs, filepath.Join(dir, "curator.log"))
		}
		c.logger, c.loggerErr = logging.New(logging.Options{
			Level:       cfg.Logging.Level,
			Format:      cfg.Logging.Format,
			OutputPaths: outputs,
		})
	})
	return c.logger, c.loggerErr
}

// openBackups opens the backup index when backups are enabled; nil otherwise.
func (c *commandContext) openBackups() (*backup.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.Processing.BackupEnabled {
		return nil, nil
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return backup.Open(cfg.Processing.BackupDirectory, logger)
}

// openBackupsAlways opens the backup index regardless of the processing
// switch, for the backup management commands.
func (c *commandContext) openBackupsAlways() (*backup.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return backup.Open(cfg.Processing.BackupDirectory, logger)
}

func (c *commandContext) queryCache() (*sources.QueryCache, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	path := ""
	if cfg.Caching.Enabled {
		path = filepath.Join(cfg.Caching.Dir, "source_cache.json")
	}
	ttl := time.Duration(cfg.Caching.CacheDuration) * time.Second
	return sources.NewQueryCache(path, ttl, logger), nil
}

// buildResolver wires the enabled catalog adapters into an aggregator.
func (c *commandContext) buildResolver() (*aggregator.Aggregator, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	var entries []aggregator.Entry
	if src := cfg.MetadataSources.TMDB; src.Enabled {
		client, err := tmdb.New(src.APIKey, src.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("configure tmdb: %w", err)
		}
		entries = append(entries, aggregator.Entry{
			Adapter:  client,
			Limiter:  sources.NewRateLimiter(src.RateLimit),
			Priority: src.Priority,
		})
	}
	if src := cfg.MetadataSources.MusicBrainz; src.Enabled {
		client, err := musicbrainz.New(src.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("configure musicbrainz: %w", err)
		}
		entries = append(entries, aggregator.Entry{
			Adapter:  client,
			Limiter:  sources.NewRateLimiter(src.RateLimit),
			Priority: src.Priority,
		})
	}

	cache, err := c.queryCache()
	if err != nil {
		return nil, err
	}

	return aggregator.New(aggregator.Options{
		Entries:   entries,
		Cache:     cache,
		Threshold: cfg.MetadataSources.EnhanceThreshold,
		Timeout:   time.Duration(cfg.MetadataSources.LookupTimeout) * time.Second,
		Logger:    logger,
	}), nil
}

// buildProcessor assembles the full pipeline. The returned cleanup closes
// resources the processor holds open.
func (c *commandContext) buildProcessor(dryRun bool) (*processor.Processor, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, nil, err
	}
	resolver, err := c.buildResolver()
	if err != nil {
		return nil, nil, err
	}
	backups, err := c.openBackups()
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = backups.Close()
	}

	var store processor.BackupStore
	if backups != nil {
		store = backups
	}

	proc := processor.New(processor.Options{
		Config:    cfg,
		Detector:  media.NewDetector(cfg),
		Codecs:    tags.NewRegistry(tags.SidecarCodec{}),
		Resolver:  resolver,
		Generator: rename.NewGenerator(cfg.Naming),
		Backups:   store,
		Logger:    logger,
		DryRun:    dryRun,
	})
	return proc, cleanup, nil
}
