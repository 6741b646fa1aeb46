package processor

import (
	"time"

	"curator/internal/metadata"
)

// Result is the per-file outcome of one pipeline run. NewPath stays empty
// until the rename stage succeeds; a failed run never carries one.
type Result struct {
	Success      bool
	State        State
	OriginalPath string
	NewPath      string
	Metadata     metadata.Record
	Errors       []string
	Warnings     []string
	Elapsed      time.Duration
}

func (r *Result) addError(err error) {
	if err != nil {
		r.Errors = append(r.Errors, err.Error())
	}
}

func (r *Result) addWarning(message string) {
	if message != "" {
		r.Warnings = append(r.Warnings, message)
	}
}

// Report aggregates the results of a batch run. Per-file failures never
// abort the batch, so a report can mix successes and failures.
type Report struct {
	Results []Result
	Elapsed time.Duration
}

// Succeeded counts files that completed the pipeline.
func (r Report) Succeeded() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// Failed counts files that did not complete the pipeline.
func (r Report) Failed() int {
	return len(r.Results) - r.Succeeded()
}

// Warned counts files that completed with warnings.
func (r Report) Warned() int {
	n := 0
	for _, res := range r.Results {
		if res.Success && len(res.Warnings) > 0 {
			n++
		}
	}
	return n
}
