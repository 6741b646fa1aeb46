// Package backup manages verified backup copies of media files and the
// SQLite index that records them. Only indexed backups are ever restored,
// and restores re-verify content hashes so a tampered copy cannot silently
// replace an original.
package backup
