// Package metadata defines the normalized metadata record, the per-field
// merge rules used during aggregation, and conversions to and from the raw
// tag mapping at the codec boundary.
//
// Merging is a pure fold: every step returns a new Record, so ranking and
// merging can run concurrently without shared mutation.
package metadata
