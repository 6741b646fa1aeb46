// Package processor drives the per-file pipeline through its stages:
// validate, back up, resolve metadata, rename, write tags, verify. Failures
// roll the file back to its discovered state, and batch runs isolate files
// from each other's failures.
package processor
