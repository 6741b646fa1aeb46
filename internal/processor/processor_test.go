package processor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"curator/internal/aggregator"
	"curator/internal/backup"
	"curator/internal/config"
	"curator/internal/media"
	"curator/internal/metadata"
	"curator/internal/rename"
	"curator/internal/sources"
	"curator/internal/tags"
)

// fakeResolver returns a canned record regardless of the query.
type fakeResolver struct {
	record   metadata.Record
	degraded bool
	err      error
}

func (f *fakeResolver) Resolve(_ context.Context, _ media.Kind, _ string, _ sources.Params, _ tags.RawTags) (aggregator.Resolution, error) {
	if f.err != nil {
		return aggregator.Resolution{}, f.err
	}
	return aggregator.Resolution{Record: f.record, Degraded: f.degraded}, nil
}

// memoryBackups keeps backup content in memory.
type memoryBackups struct {
	byPath    map[string][]byte
	createErr error
}

func newMemoryBackups() *memoryBackups {
	return &memoryBackups{byPath: make(map[string][]byte)}
}

func (m *memoryBackups) Create(_ context.Context, sourcePath string) (*backup.Entry, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, err
	}
	backupPath := "mem://" + sourcePath
	m.byPath[backupPath] = data
	return &backup.Entry{BackupPath: backupPath, OriginalPath: sourcePath}, nil
}

func (m *memoryBackups) Restore(_ context.Context, backupPath, targetPath string) error {
	data, ok := m.byPath[backupPath]
	if !ok {
		return backup.ErrNotIndexed
	}
	return os.WriteFile(targetPath, data, 0o644)
}

// deniedCodec reads fine but refuses every write.
type deniedCodec struct{}

func (deniedCodec) Read(string) (tags.RawTags, error) { return tags.RawTags{}, nil }

func (deniedCodec) Write(string, tags.RawTags) error { return tags.ErrWriteDenied }

// truncatingCodec damages the file on write, forcing verification to fail.
type truncatingCodec struct{}

func (truncatingCodec) Read(string) (tags.RawTags, error) { return tags.RawTags{}, nil }

func (truncatingCodec) Write(path string, _ tags.RawTags) error {
	return os.WriteFile(path, nil, 0o644)
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Processing.BackupEnabled = false
	cfg.Processing.UpdateMetadata = true
	return &cfg
}

func writeMP3(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("ID3fake audio payload"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

type processorOptions struct {
	cfg      *config.Config
	resolver Resolver
	codecs   *tags.Registry
	backups  BackupStore
	dryRun   bool
}

func newTestProcessor(t *testing.T, opts processorOptions) *Processor {
	t.Helper()
	if opts.cfg == nil {
		opts.cfg = testConfig()
	}
	if opts.resolver == nil {
		opts.resolver = &fakeResolver{record: metadata.Record{
			Title: "Change", Artist: "Deftones", Year: 2000,
		}}
	}
	if opts.codecs == nil {
		opts.codecs = tags.NewRegistry(tags.SidecarCodec{})
	}
	return New(Options{
		Config:    opts.cfg,
		Detector:  media.NewDetector(opts.cfg),
		Codecs:    opts.codecs,
		Resolver:  opts.resolver,
		Generator: rename.NewGenerator(opts.cfg.Naming),
		Backups:   opts.backups,
		Logger:    nil,
		DryRun:    opts.dryRun,
	})
}

func hasSubstring(messages []string, substr string) bool {
	for _, m := range messages {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestProcessSuccess(t *testing.T) {
	dir := t.TempDir()
	source := writeMP3(t, dir, "deftones_change.mp3")
	proc := newTestProcessor(t, processorOptions{})

	result := proc.Process(context.Background(), source)
	if !result.Success {
		t.Fatalf("Process failed: errors=%v", result.Errors)
	}
	if result.State != StateVerified {
		t.Errorf("state = %q", result.State)
	}

	want := filepath.Join(dir, "Deftones - Change (2000).mp3")
	if result.NewPath != want {
		t.Errorf("new path = %q, want %q", result.NewPath, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Errorf("original path still exists")
	}
	// Tags were written through the sidecar fallback codec.
	if _, err := os.Stat(want + ".tags.json"); err != nil {
		t.Errorf("tag sidecar missing: %v", err)
	}
}

func TestProcessPreservesTechnicalTags(t *testing.T) {
	dir := t.TempDir()
	source := writeMP3(t, dir, "technical.mp3")
	sidecar := source + ".tags.json"
	if err := os.WriteFile(sidecar, []byte(`{"duration": "243", "bitrate": "320"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	proc := newTestProcessor(t, processorOptions{})

	result := proc.Process(context.Background(), source)
	if !result.Success {
		t.Fatalf("Process failed: %v", result.Errors)
	}

	codec := tags.SidecarCodec{}
	written, err := codec.Read(result.NewPath)
	if err != nil {
		t.Fatal(err)
	}
	if written[tags.KeyDuration] != "243" || written[tags.KeyBitrate] != "320" {
		t.Errorf("technical tags not passed through: %v", written)
	}
	if written[tags.KeyTitle] != "Change" {
		t.Errorf("merged title not written: %v", written)
	}
}

func TestProcessTagWriteFailureIsWarning(t *testing.T) {
	dir := t.TempDir()
	source := writeMP3(t, dir, "readonly_tags.mp3")
	codecs := tags.NewRegistry(tags.SidecarCodec{})
	codecs.Register("mp3", deniedCodec{})
	proc := newTestProcessor(t, processorOptions{codecs: codecs})

	result := proc.Process(context.Background(), source)
	if !result.Success {
		t.Fatalf("refused tag write must not fail the pipeline: %v", result.Errors)
	}
	if !hasSubstring(result.Warnings, "failed to update metadata") {
		t.Errorf("warnings = %v", result.Warnings)
	}

	// The rename still happened and sticks.
	want := filepath.Join(dir, "Deftones - Change (2000).mp3")
	if result.NewPath != want {
		t.Errorf("new path = %q, want %q", result.NewPath, want)
	}
	if _, err := os.Stat(want); err != nil {
		t.Errorf("renamed file missing: %v", err)
	}
}

func TestProcessValidationFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.mp3")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	proc := newTestProcessor(t, processorOptions{})

	result := proc.Process(context.Background(), path)
	if result.Success {
		t.Fatal("expected failure for empty file")
	}
	if result.State != StateFailed {
		t.Errorf("state = %q", result.State)
	}
	if !hasSubstring(result.Errors, "validation failed") {
		t.Errorf("errors = %v", result.Errors)
	}
	if result.NewPath != "" {
		t.Errorf("failed result carries a new path: %q", result.NewPath)
	}
}

func TestProcessMissingRequiredMetadata(t *testing.T) {
	dir := t.TempDir()
	source := writeMP3(t, dir, "mystery.mp3")
	proc := newTestProcessor(t, processorOptions{
		resolver: &fakeResolver{record: metadata.Record{Title: "Mystery"}}, // no artist
	})

	result := proc.Process(context.Background(), source)
	if result.Success {
		t.Fatal("expected failure for incomplete metadata")
	}
	if !hasSubstring(result.Errors, "metadata resolution failed") {
		t.Errorf("errors = %v", result.Errors)
	}
	if !hasSubstring(result.Errors, "artist") {
		t.Errorf("errors should name the missing field: %v", result.Errors)
	}
	// The file was never renamed.
	if _, err := os.Stat(source); err != nil {
		t.Errorf("original moved despite metadata failure: %v", err)
	}
}

func TestProcessRenameCollision(t *testing.T) {
	dir := t.TempDir()
	source := writeMP3(t, dir, "incoming.mp3")
	writeMP3(t, dir, "Deftones - Change (2000).mp3")
	proc := newTestProcessor(t, processorOptions{})

	result := proc.Process(context.Background(), source)
	if !result.Success {
		t.Fatalf("Process failed: %v", result.Errors)
	}
	want := filepath.Join(dir, "Deftones - Change (2000)_1.mp3")
	if result.NewPath != want {
		t.Errorf("new path = %q, want %q", result.NewPath, want)
	}
}

func TestProcessIncompletePatternIsFatal(t *testing.T) {
	dir := t.TempDir()
	source := writeMP3(t, dir, "keepme.mp3")
	proc := newTestProcessor(t, processorOptions{
		resolver: &fakeResolver{record: metadata.Record{
			Title: "Keep", Artist: "Me", // no year, pattern needs it
		}},
	})

	result := proc.Process(context.Background(), source)
	if result.Success {
		t.Fatal("expected failure when the pattern cannot be filled")
	}
	if !hasSubstring(result.Errors, "rename failed") {
		t.Errorf("errors = %v", result.Errors)
	}
	if result.NewPath != "" {
		t.Errorf("failed rename left a new path: %q", result.NewPath)
	}
	// No mutation happened, so the original is untouched.
	if _, err := os.Stat(source); err != nil {
		t.Errorf("original missing after failed generation: %v", err)
	}
}

func TestProcessVerificationFailureRollsBack(t *testing.T) {
	dir := t.TempDir()
	source := writeMP3(t, dir, "fragile.mp3")
	original, err := os.ReadFile(source)
	if err != nil {
		t.Fatal(err)
	}

	cfg := testConfig()
	cfg.Processing.BackupEnabled = true
	codecs := tags.NewRegistry(tags.SidecarCodec{})
	codecs.Register("mp3", truncatingCodec{})

	proc := newTestProcessor(t, processorOptions{
		cfg:     cfg,
		codecs:  codecs,
		backups: newMemoryBackups(),
	})

	result := proc.Process(context.Background(), source)
	if result.Success {
		t.Fatal("expected failure after tag write damaged the file")
	}
	if !hasSubstring(result.Errors, "verification failed") {
		t.Errorf("errors = %v", result.Errors)
	}

	// The rename was undone and the backup restored the original content.
	data, err := os.ReadFile(source)
	if err != nil {
		t.Fatalf("original path missing after rollback: %v", err)
	}
	if string(data) != string(original) {
		t.Errorf("content not restored: %q", data)
	}
}

func TestProcessBackupFailureIsWarning(t *testing.T) {
	dir := t.TempDir()
	source := writeMP3(t, dir, "warned.mp3")
	cfg := testConfig()
	cfg.Processing.BackupEnabled = true
	backups := newMemoryBackups()
	backups.createErr = os.ErrPermission

	proc := newTestProcessor(t, processorOptions{cfg: cfg, backups: backups})

	result := proc.Process(context.Background(), source)
	if !result.Success {
		t.Fatalf("backup failure must not fail the pipeline: %v", result.Errors)
	}
	if !hasSubstring(result.Warnings, "backup failed") {
		t.Errorf("warnings = %v", result.Warnings)
	}
}

func TestProcessMissingBackupEscalatesOnRollback(t *testing.T) {
	dir := t.TempDir()
	source := writeMP3(t, dir, "escalate.mp3")
	cfg := testConfig()
	cfg.Processing.BackupEnabled = true
	backups := newMemoryBackups()
	backups.createErr = os.ErrPermission

	codecs := tags.NewRegistry(tags.SidecarCodec{})
	codecs.Register("mp3", truncatingCodec{})

	proc := newTestProcessor(t, processorOptions{cfg: cfg, codecs: codecs, backups: backups})

	result := proc.Process(context.Background(), source)
	if result.Success {
		t.Fatal("expected failure")
	}
	if !hasSubstring(result.Warnings, "backup failed") {
		t.Errorf("warnings = %v", result.Warnings)
	}
	if !hasSubstring(result.Errors, "backup unavailable for rollback") {
		t.Errorf("errors = %v", result.Errors)
	}
}

func TestProcessDryRunTouchesNothing(t *testing.T) {
	dir := t.TempDir()
	source := writeMP3(t, dir, "untouched.mp3")
	cfg := testConfig()
	cfg.Processing.BackupEnabled = true

	proc := newTestProcessor(t, processorOptions{
		cfg:     cfg,
		backups: newMemoryBackups(),
		dryRun:  true,
	})

	result := proc.Process(context.Background(), source)
	if !result.Success {
		t.Fatalf("Process failed: %v", result.Errors)
	}
	want := filepath.Join(dir, "Deftones - Change (2000).mp3")
	if result.NewPath != want {
		t.Errorf("planned path = %q, want %q", result.NewPath, want)
	}
	if _, err := os.Stat(source); err != nil {
		t.Errorf("dry run moved the file: %v", err)
	}
	if _, err := os.Stat(want); !os.IsNotExist(err) {
		t.Error("dry run created the target file")
	}
	if _, err := os.Stat(source + ".tags.json"); !os.IsNotExist(err) {
		t.Error("dry run wrote tags")
	}
}

func TestProcessPathsIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	good := writeMP3(t, dir, "good.mp3")
	bad := filepath.Join(dir, "bad.mp3")
	if err := os.WriteFile(bad, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	proc := newTestProcessor(t, processorOptions{})

	report := proc.ProcessPaths(context.Background(), []string{bad, good})
	if len(report.Results) != 2 {
		t.Fatalf("got %d results", len(report.Results))
	}
	if report.Results[0].Success {
		t.Error("empty file should fail")
	}
	if !report.Results[1].Success {
		t.Errorf("good file failed: %v", report.Results[1].Errors)
	}
	if report.Succeeded() != 1 || report.Failed() != 1 {
		t.Errorf("summary = %d/%d", report.Succeeded(), report.Failed())
	}
}

func TestProcessPathsParallel(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Processing.Parallel = true
	cfg.Processing.MaxWorkers = 4
	cfg.Processing.UpdateMetadata = false
	cfg.Naming.AudioPattern = "{title}" // avoid cross-file collisions

	var paths []string
	for _, name := range []string{"a.mp3", "b.mp3", "c.mp3", "d.mp3", "e.mp3"} {
		paths = append(paths, writeMP3(t, dir, name))
	}
	resolvers := &perPathResolver{}
	proc := newTestProcessor(t, processorOptions{cfg: cfg, resolver: resolvers})

	report := proc.ProcessPaths(context.Background(), paths)
	if report.Succeeded() != len(paths) {
		t.Errorf("succeeded = %d, want %d", report.Succeeded(), len(paths))
	}
	for i, res := range report.Results {
		if res.OriginalPath != paths[i] {
			t.Errorf("result %d out of order: %q", i, res.OriginalPath)
		}
	}
}

// perPathResolver derives a unique title from each file so parallel renames
// never collide.
type perPathResolver struct{}

func (perPathResolver) Resolve(_ context.Context, _ media.Kind, query string, _ sources.Params, _ tags.RawTags) (aggregator.Resolution, error) {
	return aggregator.Resolution{Record: metadata.Record{
		Title:  "Track " + query,
		Artist: "Artist",
		Year:   2000,
	}}, nil
}

func TestDiscoverFiltersAndSorts(t *testing.T) {
	dir := t.TempDir()
	writeMP3(t, dir, "b.mp3")
	writeMP3(t, dir, "a.mp3")
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	hidden := filepath.Join(dir, ".cache")
	if err := os.MkdirAll(hidden, 0o755); err != nil {
		t.Fatal(err)
	}
	writeMP3(t, hidden, "skip.mp3")

	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeMP3(t, sub, "c.mp3")

	proc := newTestProcessor(t, processorOptions{})
	paths, err := proc.Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want := []string{
		filepath.Join(dir, "a.mp3"),
		filepath.Join(dir, "b.mp3"),
		filepath.Join(sub, "c.mp3"),
	}
	if len(paths) != len(want) {
		t.Fatalf("paths = %v", paths)
	}
	for i := range want {
		if paths[i] != want[i] {
			t.Errorf("paths[%d] = %q, want %q", i, paths[i], want[i])
		}
	}
}

func TestWrapMarkers(t *testing.T) {
	err := Wrap(ErrRename, "rename", "move", "rename failed", os.ErrPermission)
	if got := err.Error(); !strings.Contains(got, "rename failed") {
		t.Errorf("message = %q", got)
	}
	if !strings.Contains(err.Error(), "rename: move") {
		t.Errorf("missing stage context: %q", err)
	}
}
