package aggregator

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"curator/internal/media"
	"curator/internal/metadata"
	"curator/internal/sources"
	"curator/internal/tags"
)

// fakeAdapter returns canned results and counts Search calls.
type fakeAdapter struct {
	name    string
	kind    media.Kind
	results []metadata.SourceResult
	err     error
	calls   atomic.Int64
}

func (f *fakeAdapter) Name() string                  { return f.name }
func (f *fakeAdapter) Supports(kind media.Kind) bool { return kind == f.kind }

func (f *fakeAdapter) Search(_ context.Context, _ media.Kind, _ string, _ sources.Params) ([]metadata.SourceResult, error) {
	f.calls.Add(1)
	return f.results, f.err
}

func (f *fakeAdapter) Artwork(context.Context, string) ([]string, error) { return nil, nil }

func result(source string, confidence float64, fields metadata.Record) metadata.SourceResult {
	return metadata.SourceResult{Source: source, Confidence: confidence, Fields: fields}
}

func TestResolveEmbeddedSeedsRecord(t *testing.T) {
	adapter := &fakeAdapter{
		name: "catalog",
		kind: media.KindAudio,
		results: []metadata.SourceResult{
			result("catalog", 0.9, metadata.Record{Album: "White Pony", Year: 2000}),
		},
	}
	agg := New(Options{
		Entries:   []Entry{{Adapter: adapter}},
		Threshold: 0.7,
	})

	raw := tags.RawTags{tags.KeyTitle: "Change", tags.KeyArtist: "Deftones"}
	res, err := agg.Resolve(context.Background(), media.KindAudio, "Change", sources.Params{}, raw)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if res.Record.Title != "Change" || res.Record.Artist != "Deftones" {
		t.Errorf("embedded fields lost: %+v", res.Record)
	}
	if res.Record.Album != "White Pony" || res.Record.Year != 2000 {
		t.Errorf("catalog fields not merged: %+v", res.Record)
	}
	if res.Record.Provenance[metadata.FieldTitle] != metadata.SourceEmbedded {
		t.Errorf("title provenance = %q", res.Record.Provenance[metadata.FieldTitle])
	}
	if res.Record.Provenance[metadata.FieldAlbum] != "catalog" {
		t.Errorf("album provenance = %q", res.Record.Provenance[metadata.FieldAlbum])
	}
	if res.Degraded {
		t.Error("resolution marked degraded without failures")
	}
}

func TestResolveSkipsResultsBelowThreshold(t *testing.T) {
	adapter := &fakeAdapter{
		name: "catalog",
		kind: media.KindAudio,
		results: []metadata.SourceResult{
			result("catalog", 0.4, metadata.Record{Album: "Wrong Album"}),
		},
	}
	agg := New(Options{Entries: []Entry{{Adapter: adapter}}, Threshold: 0.7})

	res, err := agg.Resolve(context.Background(), media.KindAudio, "q", sources.Params{}, tags.RawTags{tags.KeyTitle: "Song"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Record.Album != "" {
		t.Errorf("low-confidence album merged: %q", res.Record.Album)
	}
	// The result is still reported, just not merged.
	if len(res.Ranked) != 2 {
		t.Errorf("ranked = %d results, want 2", len(res.Ranked))
	}
}

func TestResolveAdapterFailureDegrades(t *testing.T) {
	failing := &fakeAdapter{name: "down", kind: media.KindAudio, err: errors.New("boom")}
	working := &fakeAdapter{
		name: "up",
		kind: media.KindAudio,
		results: []metadata.SourceResult{
			result("up", 0.8, metadata.Record{Album: "Album"}),
		},
	}
	agg := New(Options{
		Entries:   []Entry{{Adapter: failing}, {Adapter: working}},
		Threshold: 0.7,
	})

	res, err := agg.Resolve(context.Background(), media.KindAudio, "q", sources.Params{}, tags.RawTags{tags.KeyTitle: "Song"})
	if err != nil {
		t.Fatalf("Resolve must not fail on adapter error: %v", err)
	}
	if !res.Degraded {
		t.Error("expected degraded resolution")
	}
	if res.Record.Album != "Album" {
		t.Errorf("surviving source not merged: %+v", res.Record)
	}
}

func TestResolveAllSourcesFailFallsBackToTags(t *testing.T) {
	failing := &fakeAdapter{name: "down", kind: media.KindAudio, err: errors.New("boom")}
	agg := New(Options{Entries: []Entry{{Adapter: failing}}, Threshold: 0.7})

	raw := tags.RawTags{tags.KeyTitle: "Song", tags.KeyArtist: "Artist"}
	res, err := agg.Resolve(context.Background(), media.KindAudio, "Song", sources.Params{}, raw)
	if err != nil {
		t.Fatal(err)
	}
	if res.Record.Title != "Song" || res.Record.Artist != "Artist" {
		t.Errorf("embedded fallback lost fields: %+v", res.Record)
	}
	if !res.Degraded {
		t.Error("expected degraded resolution")
	}
}

func TestResolveRanksByConfidenceThenPriority(t *testing.T) {
	low := &fakeAdapter{
		name: "low",
		kind: media.KindAudio,
		results: []metadata.SourceResult{
			result("low", 0.75, metadata.Record{Genre: "rock"}),
		},
	}
	high := &fakeAdapter{
		name: "high",
		kind: media.KindAudio,
		results: []metadata.SourceResult{
			result("high", 0.95, metadata.Record{Genre: "alternative metal"}),
		},
	}
	agg := New(Options{
		Entries:   []Entry{{Adapter: low, Priority: 5}, {Adapter: high, Priority: 1}},
		Threshold: 0.7,
	})

	res, err := agg.Resolve(context.Background(), media.KindAudio, "q", sources.Params{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	// ranked[0] is embedded; catalog results follow by confidence.
	if res.Ranked[1].Source != "high" || res.Ranked[2].Source != "low" {
		t.Errorf("rank order = %q, %q", res.Ranked[1].Source, res.Ranked[2].Source)
	}
	// First merge wins for genre since longer values only replace shorter
	// ones; "alternative metal" is both first and longer.
	if res.Record.Genre != "alternative metal" {
		t.Errorf("genre = %q", res.Record.Genre)
	}
}

func TestResolveSkipsAdaptersForOtherKind(t *testing.T) {
	video := &fakeAdapter{name: "movies", kind: media.KindVideo}
	agg := New(Options{Entries: []Entry{{Adapter: video}}, Threshold: 0.7})

	if _, err := agg.Resolve(context.Background(), media.KindAudio, "q", sources.Params{}, nil); err != nil {
		t.Fatal(err)
	}
	if video.calls.Load() != 0 {
		t.Errorf("video adapter called %d times for audio lookup", video.calls.Load())
	}
}

func TestResolveCacheHitSkipsAdapter(t *testing.T) {
	adapter := &fakeAdapter{
		name: "catalog",
		kind: media.KindAudio,
		results: []metadata.SourceResult{
			result("catalog", 0.9, metadata.Record{Album: "Album"}),
		},
	}
	cache := sources.NewQueryCache(filepath.Join(t.TempDir(), "cache.json"), time.Hour, nil)
	agg := New(Options{
		Entries:   []Entry{{Adapter: adapter}},
		Cache:     cache,
		Threshold: 0.7,
	})

	for i := 0; i < 3; i++ {
		if _, err := agg.Resolve(context.Background(), media.KindAudio, "q", sources.Params{}, nil); err != nil {
			t.Fatal(err)
		}
	}
	if got := adapter.calls.Load(); got != 1 {
		t.Errorf("adapter called %d times, want 1 (cache should serve repeats)", got)
	}
}

func TestResolveCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	agg := New(Options{Threshold: 0.7})
	if _, err := agg.Resolve(ctx, media.KindAudio, "q", sources.Params{}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
