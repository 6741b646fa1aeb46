package processor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"curator/internal/aggregator"
	"curator/internal/backup"
	"curator/internal/config"
	"curator/internal/logging"
	"curator/internal/media"
	"curator/internal/metadata"
	"curator/internal/rename"
	"curator/internal/sources"
	"curator/internal/tags"
)

// Resolver derives the merged metadata record for one file.
type Resolver interface {
	Resolve(ctx context.Context, kind media.Kind, query string, params sources.Params, raw tags.RawTags) (aggregator.Resolution, error)
}

// BackupStore is the subset of the backup index the pipeline needs.
type BackupStore interface {
	Create(ctx context.Context, sourcePath string) (*backup.Entry, error)
	Restore(ctx context.Context, backupPath, targetPath string) error
}

// Options configures a Processor.
type Options struct {
	Config    *config.Config
	Detector  *media.Detector
	Codecs    *tags.Registry
	Resolver  Resolver
	Generator *rename.Generator
	// Backups may be nil when backups are disabled.
	Backups BackupStore
	Logger  *slog.Logger
	// DryRun reports planned changes without touching any file.
	DryRun bool
}

// Processor runs the per-file pipeline: validate, back up, resolve metadata,
// rename, write tags, verify. A failure after the first mutation rolls the
// file back to its discovered state.
type Processor struct {
	cfg       *config.Config
	detector  *media.Detector
	codecs    *tags.Registry
	resolver  Resolver
	generator *rename.Generator
	backups   BackupStore
	logger    *slog.Logger
	dryRun    bool
}

// New creates a processor from options.
func New(opts Options) *Processor {
	return &Processor{
		cfg:       opts.Config,
		detector:  opts.Detector,
		codecs:    opts.Codecs,
		resolver:  opts.Resolver,
		generator: opts.Generator,
		backups:   opts.Backups,
		logger:    logging.NewComponentLogger(opts.Logger, "processor"),
		dryRun:    opts.DryRun,
	}
}

// Process runs the full pipeline for one file. It never panics the batch;
// every failure is captured in the result.
func (p *Processor) Process(ctx context.Context, path string) Result {
	start := time.Now()
	requestID := uuid.NewString()
	ctx = logging.WithRequestID(ctx, requestID)
	log := logging.WithContext(ctx, p.logger).With(logging.String("file", filepath.Base(path)))

	result := Result{OriginalPath: path, State: StateDiscovered}
	undo := &undoLog{}
	var backupEntry *backup.Entry
	backupWanted := p.backups != nil && p.cfg.Processing.BackupEnabled
	contentMutated := false

	fail := func(state State, err error) Result {
		result.addError(err)
		log.Error("pipeline stage failed",
			logging.String(logging.FieldStage, string(state)),
			logging.Error(err))
		p.rollback(ctx, log, &result, undo, backupEntry, backupWanted, contentMutated)
		result.State = StateFailed
		result.Success = false
		result.Elapsed = time.Since(start)
		return result
	}

	if err := ctx.Err(); err != nil {
		return fail(StateDiscovered, err)
	}

	// Validation gates every mutation that follows.
	if err := p.detector.Validate(path); err != nil {
		return fail(StateDiscovered, Wrap(ErrValidation, "validate", "", "validation failed", err))
	}
	mediaFile, err := p.detector.Detect(path)
	if err != nil {
		return fail(StateDiscovered, Wrap(ErrValidation, "validate", "detect", "validation failed", err))
	}
	result.State = StateValidated

	// Backup failure is a warning here; it escalates to an error only if a
	// later stage needs the backup for rollback.
	if backupWanted && !p.dryRun {
		entry, err := p.backups.Create(ctx, path)
		if err != nil {
			result.addWarning(fmt.Sprintf("backup failed: %v", err))
			log.Warn("backup failed, continuing without one", logging.Error(err))
		} else {
			backupEntry = entry
		}
	}
	result.State = StateBackedUp

	raw, err := p.readTags(mediaFile)
	if err != nil {
		result.addWarning(fmt.Sprintf("could not read embedded tags: %v", err))
		raw = tags.RawTags{}
	}

	query, params := lookupQuery(path, raw)
	resolution, err := p.resolver.Resolve(ctx, mediaFile.Kind, query, params, raw)
	if err != nil {
		return fail(StateValidated, Wrap(ErrMetadata, "metadata", "", "metadata resolution failed", err))
	}
	record := resolution.Record
	if missing := record.MissingRequired(string(mediaFile.Kind)); len(missing) > 0 {
		return fail(StateValidated, Wrap(ErrMetadata, "metadata", "",
			fmt.Sprintf("metadata resolution failed: missing required fields: %s", strings.Join(missing, ", ")), nil))
	}
	if resolution.Degraded {
		result.addWarning("one or more metadata sources failed; record may be incomplete")
	}
	result.Metadata = record
	result.State = StateMetadataResolved

	newPath, err := p.renameFile(log, undo, mediaFile, record)
	if err != nil {
		return fail(StateMetadataResolved, Wrap(ErrRename, "rename", "", "rename failed", err))
	}
	result.NewPath = newPath
	result.State = StateRenamed

	if p.cfg.Processing.UpdateMetadata {
		wrote, err := p.writeTags(mediaFile.Format, newPath, record, raw)
		if err != nil {
			result.addWarning(fmt.Sprintf("failed to update metadata: %v", err))
			log.Warn("failed to update metadata", logging.Error(err))
		} else if wrote {
			contentMutated = true
		}
	}
	result.State = StateTagged

	if !p.dryRun {
		if err := p.detector.Validate(newPath); err != nil {
			return fail(StateTagged, Wrap(ErrVerification, "verify", "", "verification failed", err))
		}
	}
	result.State = StateVerified
	result.Success = true
	result.Elapsed = time.Since(start)

	log.Info("file processed",
		logging.String("new_name", filepath.Base(newPath)),
		logging.Duration("elapsed", result.Elapsed))
	return result
}

// rollback restores the file to its discovered state after a stage failure.
// Renames are undone first; if the content itself was mutated and a backup
// exists, it is restored over the original path. A needed but unavailable
// backup escalates the earlier backup warning to an error.
func (p *Processor) rollback(ctx context.Context, log *slog.Logger, result *Result, undo *undoLog, entry *backup.Entry, backupWanted, contentMutated bool) {
	for _, err := range undo.unwind() {
		result.addError(err)
		log.Error("rollback step failed", logging.Error(err))
	}
	if !contentMutated {
		return
	}
	if entry != nil {
		if err := p.backups.Restore(ctx, entry.BackupPath, entry.OriginalPath); err != nil {
			result.addError(Wrap(ErrRollback, "rollback", "restore backup", "", err))
			log.Error("backup restore failed during rollback", logging.Error(err))
		}
		return
	}
	if backupWanted {
		// The backup stage warned earlier; needing the missing backup now
		// makes that a real error.
		result.addError(Wrap(ErrBackup, "rollback", "", "backup unavailable for rollback", nil))
		log.Error("rollback needed a backup that was never created")
	}
}

// renameFile computes the standardized name and applies it. A naming pattern
// referencing fields the record does not carry fails generation, which is
// fatal for the file.
func (p *Processor) renameFile(log *slog.Logger, undo *undoLog, mediaFile *media.MediaFile, record metadata.Record) (string, error) {
	name, ok := p.generator.Generate(mediaFile.Kind, record, mediaFile.Path)
	if !ok {
		return "", fmt.Errorf("naming pattern references fields the metadata record does not carry")
	}

	target := filepath.Join(filepath.Dir(mediaFile.Path), name)
	if target == mediaFile.Path {
		return mediaFile.Path, nil
	}

	target, err := rename.ResolveCollision(target, mediaFile.Path)
	if err != nil {
		return "", err
	}
	if p.dryRun {
		log.Info("would rename", logging.String("target", filepath.Base(target)))
		return target, nil
	}

	source := mediaFile.Path
	if err := os.Rename(source, target); err != nil {
		return "", err
	}
	undo.push("undo rename", func() error {
		return os.Rename(target, source)
	})
	moveSidecar(source, target, undo)

	log.Info("file renamed",
		logging.String("from", filepath.Base(source)),
		logging.String("to", filepath.Base(target)))
	return target, nil
}

// moveSidecar keeps a JSON tag sidecar alongside its media file across a
// rename. Absence of a sidecar is the common case and not an error.
func moveSidecar(source, target string, undo *undoLog) {
	from := source + ".tags.json"
	to := target + ".tags.json"
	if _, err := os.Stat(from); err != nil {
		return
	}
	if err := os.Rename(from, to); err != nil {
		return
	}
	undo.push("undo sidecar rename", func() error {
		return os.Rename(to, from)
	})
}

func (p *Processor) readTags(mediaFile *media.MediaFile) (tags.RawTags, error) {
	codec, err := p.codecs.CodecFor(mediaFile.Format)
	if err != nil {
		return nil, err
	}
	return codec.Read(mediaFile.Path)
}

// writeTags persists the merged record over the file's existing tags.
// Technical fields the record does not model, like duration and bitrate,
// pass through from the original tags untouched.
func (p *Processor) writeTags(format, path string, record metadata.Record, raw tags.RawTags) (bool, error) {
	if p.dryRun {
		return false, nil
	}
	codec, err := p.codecs.CodecFor(format)
	if err != nil {
		return false, err
	}
	merged := raw.Clone()
	if merged == nil {
		merged = tags.RawTags{}
	}
	for key, value := range record.ToRawTags() {
		merged[key] = value
	}
	if err := codec.Write(path, merged); err != nil {
		return false, err
	}
	return true, nil
}

// lookupQuery derives the catalog search query and hints for one file,
// preferring embedded tags over the filename.
func lookupQuery(path string, raw tags.RawTags) (string, sources.Params) {
	params := sources.Params{Limit: 10}
	if raw != nil {
		params.Artist = strings.TrimSpace(raw[tags.KeyArtist])
		params.Year = metadata.ParseYear(raw[tags.KeyYear])
		if title := strings.TrimSpace(raw[tags.KeyTitle]); title != "" {
			return title, params
		}
	}
	return queryFromFilename(path), params
}

// queryFromFilename turns a file stem into a searchable phrase: separators
// become spaces and noise is collapsed.
func queryFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.NewReplacer("_", " ", ".", " ", "-", " ").Replace(stem)
	return strings.Join(strings.Fields(stem), " ")
}
