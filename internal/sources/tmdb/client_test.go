package tmdb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"curator/internal/media"
	"curator/internal/sources"
	"curator/internal/textutil"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

func TestSearchMapsResults(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("api_key"); got != "test-key" {
			t.Errorf("api_key = %q", got)
		}
		if got := r.URL.Query().Get("query"); got != "The Matrix" {
			t.Errorf("query = %q", got)
		}
		if got := r.URL.Query().Get("primary_release_year"); got != "1999" {
			t.Errorf("primary_release_year = %q", got)
		}
		json.NewEncoder(w).Encode(Response{
			Results: []Result{{
				ID:          603,
				Title:       "The Matrix",
				Overview:    "A computer hacker learns the truth.",
				ReleaseDate: "1999-03-30",
				PosterPath:  "/matrix.jpg",
				VoteAverage: 8.2,
			}},
		})
	})

	client, err := New("test-key", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	results, err := client.Search(context.Background(), media.KindVideo, "The Matrix", sources.Params{Year: 1999})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}

	res := results[0]
	if res.Source != "tmdb" {
		t.Errorf("source = %q", res.Source)
	}
	if res.Fields.Title != "The Matrix" {
		t.Errorf("title = %q", res.Fields.Title)
	}
	if res.Fields.Year != 1999 {
		t.Errorf("year = %d", res.Fields.Year)
	}
	if res.Fields.Rating != "8.2" {
		t.Errorf("rating = %q", res.Fields.Rating)
	}
	if len(res.ArtworkURLs) != 1 || res.ArtworkURLs[0] != imageBaseURL+"/matrix.jpg" {
		t.Errorf("artwork = %v", res.ArtworkURLs)
	}
	if res.Confidence <= 0.8 {
		t.Errorf("confidence for exact title match = %v, want > 0.8", res.Confidence)
	}
}

func TestSearchRejectsAudio(t *testing.T) {
	client, err := New("test-key", "https://api.themoviedb.org/3")
	if err != nil {
		t.Fatal(err)
	}
	results, err := client.Search(context.Background(), media.KindAudio, "song", sources.Params{})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results for unsupported kind, got %v", results)
	}
}

func TestSearchHTTPError(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, err := New("bad-key", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := client.Search(context.Background(), media.KindVideo, "anything", sources.Params{}); err == nil {
		t.Fatal("expected error on 401 response")
	}
}

func TestConfidenceMonotonicInMatchedTerms(t *testing.T) {
	query := textutil.NewFingerprint("the lord of the rings")
	partial := Confidence(query, "the lord", 5.0)
	full := Confidence(query, "the lord of the rings", 5.0)
	if full <= partial {
		t.Errorf("confidence did not increase with matched terms: partial=%v full=%v", partial, full)
	}
	if full > 1 {
		t.Errorf("confidence above 1: %v", full)
	}
}

func TestArtworkFetchesPosters(t *testing.T) {
	server := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/603/images" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Write([]byte(`{"posters":[{"file_path":"/a.jpg"},{"file_path":"/b.jpg"}]}`))
	})

	client, err := New("test-key", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	urls, err := client.Artwork(context.Background(), "603")
	if err != nil {
		t.Fatalf("Artwork: %v", err)
	}
	if len(urls) != 2 {
		t.Fatalf("got %d urls, want 2", len(urls))
	}
	if urls[0] != imageBaseURL+"/a.jpg" {
		t.Errorf("urls[0] = %q", urls[0])
	}
}

func TestNewRequiresCredentials(t *testing.T) {
	if _, err := New("", "https://api.themoviedb.org/3"); err == nil {
		t.Error("expected error for empty api key")
	}
	if _, err := New("key", ""); err == nil {
		t.Error("expected error for empty base url")
	}
}
