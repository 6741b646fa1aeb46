package backup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"curator/internal/fileutil"
	"curator/internal/logging"
)

// Entry is one indexed backup copy.
type Entry struct {
	BackupPath   string
	OriginalPath string
	CreatedAt    time.Time
	ContentHash  string
	Size         int64
}

// ErrNotIndexed reports a restore request for a backup path absent from the
// index. Unindexed files in the backup directory are never restored.
var ErrNotIndexed = errors.New("backup not indexed")

// ErrTampered reports that a backup file's content no longer matches the
// hash recorded at creation time.
var ErrTampered = errors.New("backup content mismatch")

const schema = `
CREATE TABLE IF NOT EXISTS backup_entries (
    backup_path   TEXT PRIMARY KEY,
    original_path TEXT NOT NULL,
    created_at    TEXT NOT NULL,
    content_hash  TEXT NOT NULL,
    size          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backup_entries_created_at
    ON backup_entries (created_at);
`

// Store manages backup copies and their SQLite index. Mutations take a file
// lock so concurrent curator invocations sharing a backup directory cannot
// corrupt the index.
type Store struct {
	db     *sql.DB
	dir    string
	lock   *flock.Flock
	logger *slog.Logger
}

// Open initializes or connects to the backup index inside dir.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("backup directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	dbPath := filepath.Join(dir, "backups.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{
		db:     db,
		dir:    dir,
		lock:   flock.New(filepath.Join(dir, "backups.lock")),
		logger: logging.NewComponentLogger(logger, "backup"),
	}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Dir returns the backup directory.
func (s *Store) Dir() string { return s.dir }

// Create copies sourcePath into the backup directory and records it in the
// index. The copy is verified by size and content hash before the index row
// is written.
func (s *Store) Create(ctx context.Context, sourcePath string) (*Entry, error) {
	info, err := os.Stat(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("source is not a regular file: %s", sourcePath)
	}

	createdAt := time.Now().UTC()
	backupPath := filepath.Join(s.dir, backupName(sourcePath, createdAt))

	hash, err := fileutil.HashFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("hash source: %w", err)
	}
	if err := fileutil.CopyFileVerified(sourcePath, backupPath); err != nil {
		_ = os.Remove(backupPath)
		return nil, fmt.Errorf("copy to backup: %w", err)
	}

	entry := &Entry{
		BackupPath:   backupPath,
		OriginalPath: sourcePath,
		CreatedAt:    createdAt,
		ContentHash:  hash,
		Size:         info.Size(),
	}

	if err := s.withLock(func() error {
		_, execErr := s.db.ExecContext(ctx,
			`INSERT INTO backup_entries (backup_path, original_path, created_at, content_hash, size)
             VALUES (?, ?, ?, ?, ?)`,
			entry.BackupPath,
			entry.OriginalPath,
			entry.CreatedAt.Format(time.RFC3339Nano),
			entry.ContentHash,
			entry.Size,
		)
		return execErr
	}); err != nil {
		_ = os.Remove(backupPath)
		return nil, fmt.Errorf("index backup: %w", err)
	}

	s.logger.Debug("backup created",
		logging.String("source", sourcePath),
		logging.String("backup", backupPath),
		logging.Int64("size", entry.Size))
	return entry, nil
}

// Lookup returns the index entry for a backup path.
func (s *Store) Lookup(ctx context.Context, backupPath string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT backup_path, original_path, created_at, content_hash, size
         FROM backup_entries WHERE backup_path = ?`, backupPath)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotIndexed
	}
	return entry, err
}

// Restore copies an indexed backup over targetPath. The backup content is
// verified against the recorded hash first; a mismatch aborts the restore.
// Requests for paths missing from the index fail with ErrNotIndexed and are
// logged distinctly from other failures.
func (s *Store) Restore(ctx context.Context, backupPath, targetPath string) error {
	entry, err := s.Lookup(ctx, backupPath)
	if err != nil {
		if errors.Is(err, ErrNotIndexed) {
			s.logger.Warn("restore refused for unindexed backup",
				logging.String("backup", backupPath))
		}
		return err
	}

	hash, err := fileutil.HashFile(backupPath)
	if err != nil {
		return fmt.Errorf("hash backup: %w", err)
	}
	if hash != entry.ContentHash {
		s.logger.Error("backup content does not match index",
			logging.String("backup", backupPath),
			logging.String("expected", entry.ContentHash),
			logging.String("actual", hash))
		return ErrTampered
	}

	if targetPath == "" {
		targetPath = entry.OriginalPath
	}
	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return fmt.Errorf("create target directory: %w", err)
	}
	if err := fileutil.CopyFileVerified(backupPath, targetPath); err != nil {
		return fmt.Errorf("restore copy: %w", err)
	}

	s.logger.Info("backup restored",
		logging.String("backup", backupPath),
		logging.String("target", targetPath))
	return nil
}

// Delete removes a backup file and its index row.
func (s *Store) Delete(ctx context.Context, backupPath string) error {
	return s.withLock(func() error {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM backup_entries WHERE backup_path = ?`, backupPath); err != nil {
			return fmt.Errorf("delete index row: %w", err)
		}
		if err := os.Remove(backupPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove backup file: %w", err)
		}
		return nil
	})
}

// List returns all index entries, newest first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT backup_path, original_path, created_at, content_hash, size
         FROM backup_entries ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query backups: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Cleanup removes backups older than maxAge along with their index rows, and
// drops index rows whose backup files have gone missing. It returns the
// number of entries removed.
func (s *Store) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().UTC().Add(-maxAge)
	removed := 0
	for _, entry := range entries {
		expired := entry.CreatedAt.Before(cutoff)
		_, statErr := os.Stat(entry.BackupPath)
		dangling := os.IsNotExist(statErr)
		if !expired && !dangling {
			continue
		}
		if dangling {
			s.logger.Warn("dropping index row for missing backup file",
				logging.String("backup", entry.BackupPath))
		}
		if err := s.Delete(ctx, entry.BackupPath); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// withLock serializes index mutations across processes.
func (s *Store) withLock(fn func() error) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquire backup lock: %w", err)
	}
	defer func() {
		_ = s.lock.Unlock()
	}()
	return fn()
}

// backupName derives a deterministic, collision-free name for the copy from
// the original filename and the creation instant.
func backupName(sourcePath string, createdAt time.Time) string {
	base := filepath.Base(sourcePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return fmt.Sprintf("%s.%s%s", stem, createdAt.Format("20060102T150405.000000000"), ext)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	var createdAt string
	if err := row.Scan(&entry.BackupPath, &entry.OriginalPath, &createdAt, &entry.ContentHash, &entry.Size); err != nil {
		return nil, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	entry.CreatedAt = parsed
	return &entry, nil
}
