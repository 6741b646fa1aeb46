// Command curator organizes media files: it validates them, backs them up,
// resolves metadata from embedded tags and external catalogs, renames them to
// a standardized pattern, and writes the merged tags back.
package main
