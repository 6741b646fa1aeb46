// Package rename generates standardized filenames from metadata records
// using configurable placeholder patterns, and resolves name collisions with
// numeric suffixes.
package rename
