package sources

import (
	"path/filepath"
	"testing"
	"time"

	"curator/internal/media"
	"curator/internal/metadata"
)

func TestQueryCacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source_cache.json")
	cache := NewQueryCache(path, time.Hour, nil)

	key := Key("tmdb", media.KindVideo, "The Matrix", Params{Year: 1999})
	results := []metadata.SourceResult{{
		Source:     "tmdb",
		Confidence: 0.9,
		Fields:     metadata.Record{Title: "The Matrix", Year: 1999},
	}}

	if _, ok := cache.Lookup(key); ok {
		t.Fatal("unexpected hit on empty cache")
	}
	if err := cache.Store(key, results); err != nil {
		t.Fatalf("Store: %v", err)
	}

	got, ok := cache.Lookup(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got[0].Fields.Title != "The Matrix" {
		t.Errorf("cached title = %q", got[0].Fields.Title)
	}

	// A fresh cache instance must reload the persisted entries.
	reloaded := NewQueryCache(path, time.Hour, nil)
	if _, ok := reloaded.Lookup(key); !ok {
		t.Error("expected hit after reload from disk")
	}
}

func TestQueryCacheExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source_cache.json")
	cache := NewQueryCache(path, time.Hour, nil)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return base }

	key := Key("musicbrainz", media.KindAudio, "change", Params{})
	if err := cache.Store(key, nil); err != nil {
		t.Fatal(err)
	}

	cache.now = func() time.Time { return base.Add(30 * time.Minute) }
	if _, ok := cache.Lookup(key); !ok {
		t.Error("expected hit within reuse window")
	}

	cache.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, ok := cache.Lookup(key); ok {
		t.Error("expected miss after reuse window elapsed")
	}
}

func TestQueryCacheDisabledWithoutPath(t *testing.T) {
	cache := NewQueryCache("", time.Hour, nil)
	key := Key("tmdb", media.KindVideo, "q", Params{})
	if err := cache.Store(key, nil); err != nil {
		t.Fatalf("Store on disabled cache: %v", err)
	}
	if _, ok := cache.Lookup(key); ok {
		t.Error("disabled cache must never hit")
	}
}

func TestQueryCacheClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source_cache.json")
	cache := NewQueryCache(path, time.Hour, nil)
	if err := cache.Store(Key("tmdb", media.KindVideo, "q", Params{}), nil); err != nil {
		t.Fatal(err)
	}
	if err := cache.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if cache.Len() != 0 {
		t.Errorf("Len after clear = %d, want 0", cache.Len())
	}
}

func TestKeyStability(t *testing.T) {
	a := Key("TMDB", media.KindVideo, " The Matrix ", Params{Year: 1999})
	b := Key("tmdb", media.KindVideo, "the matrix", Params{Year: 1999})
	if a != b {
		t.Errorf("keys differ: %q vs %q", a, b)
	}
}
