// Package logging provides slog construction and shared attribute helpers.
//
// Components receive a *slog.Logger and scope it with NewComponentLogger;
// per-file request identifiers travel on the context and are attached by
// WithContext so one file's log lines can be correlated across the pipeline.
package logging
