package aggregator

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"curator/internal/logging"
	"curator/internal/media"
	"curator/internal/metadata"
	"curator/internal/sources"
	"curator/internal/tags"
)

// EmbeddedConfidence ranks fields read off the file itself. Embedded values
// always seed the merge; catalog results enhance them.
const EmbeddedConfidence = 1.0

// Entry pairs a catalog adapter with its rate limiter and tie-break priority.
type Entry struct {
	Adapter  sources.Adapter
	Limiter  *sources.RateLimiter
	Priority int
}

// Options configures an Aggregator.
type Options struct {
	Entries []Entry
	Cache   *sources.QueryCache
	// Threshold is the minimum confidence for a catalog result to be merged
	// into the seed record.
	Threshold float64
	// Timeout bounds each adapter call.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Aggregator fans a query out to all applicable catalog adapters, ranks the
// results by confidence, and folds them into a single record. Adapter
// failures degrade the result instead of failing the lookup.
type Aggregator struct {
	entries   []Entry
	cache     *sources.QueryCache
	threshold float64
	timeout   time.Duration
	logger    *slog.Logger
}

// New creates an aggregator from options.
func New(opts Options) *Aggregator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Aggregator{
		entries:   opts.Entries,
		cache:     opts.Cache,
		threshold: opts.Threshold,
		timeout:   timeout,
		logger:    logging.NewComponentLogger(opts.Logger, "aggregator"),
	}
}

// Resolution is the outcome of one metadata lookup: the merged record plus
// every ranked source result that contributed to or was considered for it.
type Resolution struct {
	Record metadata.Record
	// Ranked holds all collected results in merge order, embedded first.
	Ranked []metadata.SourceResult
	// Degraded reports that at least one adapter failed and the record was
	// built from fewer sources than configured.
	Degraded bool
}

// Resolve derives the merged metadata record for one file. The embedded tags
// seed the record; catalog results at or above the confidence threshold
// enhance it in rank order. When every adapter fails the embedded record is
// returned as-is.
func (a *Aggregator) Resolve(ctx context.Context, kind media.Kind, query string, params sources.Params, raw tags.RawTags) (Resolution, error) {
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}

	embedded := metadata.SourceResult{
		Source:     metadata.SourceEmbedded,
		Confidence: EmbeddedConfidence,
		Fields:     metadata.FromRawTags(raw),
	}

	collected, degraded := a.collect(ctx, kind, query, params)

	// Embedded ranks first at full confidence; catalog results follow by
	// confidence, then priority, then name for determinism.
	ranked := append([]metadata.SourceResult{embedded}, collected...)

	record := metadata.Seed(ranked[0])
	for _, res := range ranked[1:] {
		if res.Confidence < a.threshold {
			a.logger.Debug("result below merge threshold",
				logging.String(logging.FieldSource, res.Source),
				logging.Float64("confidence", res.Confidence))
			continue
		}
		record = record.Merge(res)
	}

	return Resolution{Record: record, Ranked: ranked, Degraded: degraded}, nil
}

type adapterOutcome struct {
	entry   Entry
	results []metadata.SourceResult
	err     error
}

// collect queries every adapter supporting the kind concurrently and returns
// the successful results sorted by rank.
func (a *Aggregator) collect(ctx context.Context, kind media.Kind, query string, params sources.Params) ([]metadata.SourceResult, bool) {
	var applicable []Entry
	for _, entry := range a.entries {
		if entry.Adapter.Supports(kind) {
			applicable = append(applicable, entry)
		}
	}
	if len(applicable) == 0 {
		return nil, false
	}

	outcomes := make(chan adapterOutcome, len(applicable))
	var wg sync.WaitGroup
	for _, entry := range applicable {
		wg.Add(1)
		go func(entry Entry) {
			defer wg.Done()
			results, err := a.query(ctx, entry, kind, query, params)
			outcomes <- adapterOutcome{entry: entry, results: results, err: err}
		}(entry)
	}
	wg.Wait()
	close(outcomes)

	priorities := make(map[string]int, len(applicable))
	degraded := false
	var collected []metadata.SourceResult
	for outcome := range outcomes {
		name := outcome.entry.Adapter.Name()
		if outcome.err != nil {
			degraded = true
			a.logger.Warn("metadata source failed",
				logging.String(logging.FieldSource, name),
				logging.Error(outcome.err))
			continue
		}
		priorities[name] = outcome.entry.Priority
		collected = append(collected, outcome.results...)
	}

	sort.SliceStable(collected, func(i, j int) bool {
		if collected[i].Confidence != collected[j].Confidence {
			return collected[i].Confidence > collected[j].Confidence
		}
		pi, pj := priorities[collected[i].Source], priorities[collected[j].Source]
		if pi != pj {
			return pi > pj
		}
		return collected[i].Source < collected[j].Source
	})
	return collected, degraded
}

// query serves one adapter call, preferring the cache. Cache hits bypass the
// rate limiter entirely.
func (a *Aggregator) query(ctx context.Context, entry Entry, kind media.Kind, query string, params sources.Params) ([]metadata.SourceResult, error) {
	name := entry.Adapter.Name()
	key := sources.Key(name, kind, query, params)

	if a.cache != nil {
		if results, ok := a.cache.Lookup(key); ok {
			a.logger.Debug("source cache hit", logging.String(logging.FieldSource, name))
			return results, nil
		}
	}

	if entry.Limiter != nil {
		if err := entry.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	results, err := entry.Adapter.Search(callCtx, kind, query, params)
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if err := a.cache.Store(key, results); err != nil {
			a.logger.Warn("failed to cache source results",
				logging.String(logging.FieldSource, name),
				logging.Error(err))
		}
	}
	return results, nil
}
