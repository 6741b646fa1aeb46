package processor

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"curator/internal/logging"
)

// ProcessPaths runs the pipeline over the given files. Each file is isolated:
// one failure never aborts the others. Results come back in input order.
// Cancelling the context stops scheduling new files; files already in flight
// finish.
func (p *Processor) ProcessPaths(ctx context.Context, paths []string) Report {
	start := time.Now()
	report := Report{Results: make([]Result, len(paths))}
	if len(paths) == 0 {
		report.Elapsed = time.Since(start)
		return report
	}

	workers := 1
	if p.cfg.Processing.Parallel {
		workers = p.cfg.Processing.MaxWorkers
		if workers < 1 {
			workers = 1
		}
	}
	if workers > len(paths) {
		workers = len(paths)
	}

	type job struct {
		index int
		path  string
	}
	jobs := make(chan job)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				report.Results[j.index] = p.Process(ctx, j.path)
			}
		}()
	}

	for i, path := range paths {
		select {
		case <-ctx.Done():
			// Mark everything not yet scheduled as failed by cancellation.
			for k := i; k < len(paths); k++ {
				report.Results[k] = Result{
					OriginalPath: paths[k],
					State:        StateFailed,
					Errors:       []string{ctx.Err().Error()},
				}
			}
			close(jobs)
			wg.Wait()
			report.Elapsed = time.Since(start)
			return report
		case jobs <- job{index: i, path: path}:
		}
	}
	close(jobs)
	wg.Wait()

	report.Elapsed = time.Since(start)
	p.logger.Info("batch finished",
		logging.Int("files", len(paths)),
		logging.Int("succeeded", report.Succeeded()),
		logging.Int("failed", report.Failed()),
		logging.Duration("elapsed", report.Elapsed))
	return report
}

// ProcessPath runs the pipeline over a single file or, when path is a
// directory, every media file under it.
func (p *Processor) ProcessPath(ctx context.Context, path string) (Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Report{}, fmt.Errorf("stat path: %w", err)
	}
	if !info.IsDir() {
		return p.ProcessPaths(ctx, []string{path}), nil
	}
	paths, err := p.Discover(path)
	if err != nil {
		return Report{}, err
	}
	return p.ProcessPaths(ctx, paths), nil
}
