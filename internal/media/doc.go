// Package media detects and validates media file containers.
//
// Detection is two-phase: the configured extension allow-lists decide the
// kind (audio or video), and magic-number sniffing of the leading bytes
// decides the container format. Validation combines both with basic
// integrity checks (exists, regular, non-empty, readable).
package media
