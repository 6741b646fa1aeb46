package musicbrainz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"curator/internal/media"
	"curator/internal/metadata"
	"curator/internal/sources"
	"curator/internal/textutil"
)

const (
	// MusicBrainz requires a descriptive User-Agent on every request.
	userAgent = "curator/1.0 (media file organizer)"

	coverArtBaseURL = "https://coverartarchive.org"
)

// Recording models one match from the MusicBrainz recording search.
type Recording struct {
	ID           string `json:"id"`
	Score        int    `json:"score"`
	Title        string `json:"title"`
	ArtistCredit []struct {
		Name string `json:"name"`
	} `json:"artist-credit"`
	Releases []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Date  string `json:"date"`
		Media []struct {
			Track []struct {
				Number string `json:"number"`
			} `json:"track"`
		} `json:"media"`
	} `json:"releases"`
	Tags []struct {
		Name string `json:"name"`
	} `json:"tags"`
}

// Response models the MusicBrainz recording search envelope.
type Response struct {
	Count      int         `json:"count"`
	Recordings []Recording `json:"recordings"`
}

// Client provides access to the MusicBrainz API as a metadata source adapter.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ sources.Adapter = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates a MusicBrainz adapter. No API key is needed; the service
// identifies callers by User-Agent.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("musicbrainz base url required")
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name implements sources.Adapter.
func (c *Client) Name() string { return "musicbrainz" }

// Supports implements sources.Adapter. MusicBrainz only serves audio lookups.
func (c *Client) Supports(kind media.Kind) bool { return kind == media.KindAudio }

// Search queries the MusicBrainz recording index and converts matches to
// source results.
func (c *Client) Search(ctx context.Context, kind media.Kind, query string, params sources.Params) ([]metadata.SourceResult, error) {
	if !c.Supports(kind) {
		return nil, nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	endpoint, err := url.Parse(c.baseURL + "/recording")
	if err != nil {
		return nil, fmt.Errorf("parse musicbrainz url: %w", err)
	}
	values := url.Values{}
	values.Set("query", luceneQuery(query, params.Artist))
	values.Set("fmt", "json")
	limit := params.Limit
	if limit <= 0 {
		limit = 10
	}
	values.Set("limit", strconv.Itoa(limit))
	endpoint.RawQuery = values.Encode()

	var payload Response
	if err := c.getJSON(ctx, endpoint.String(), &payload); err != nil {
		return nil, err
	}

	queryPrint := textutil.NewFingerprint(query)
	out := make([]metadata.SourceResult, 0, len(payload.Recordings))
	for _, rec := range payload.Recordings {
		out = append(out, c.toSourceResult(queryPrint, rec))
	}
	return out, nil
}

// luceneQuery builds the recording search expression, scoping by artist when
// one is known.
func luceneQuery(title, artist string) string {
	expr := fmt.Sprintf("recording:%q", title)
	if artist = strings.TrimSpace(artist); artist != "" {
		expr += fmt.Sprintf(" AND artist:%q", artist)
	}
	return expr
}

func (c *Client) toSourceResult(queryPrint *textutil.Fingerprint, rec Recording) metadata.SourceResult {
	fields := metadata.Record{Title: rec.Title}
	if len(rec.ArtistCredit) > 0 {
		fields.Artist = rec.ArtistCredit[0].Name
	}
	if len(rec.Tags) > 0 {
		fields.Genre = rec.Tags[0].Name
	}

	var artwork []string
	if len(rec.Releases) > 0 {
		release := rec.Releases[0]
		fields.Album = release.Title
		fields.Year = metadata.ParseYear(release.Date)
		if len(release.Media) > 0 && len(release.Media[0].Track) > 0 {
			if track, err := strconv.Atoi(release.Media[0].Track[0].Number); err == nil {
				fields.Track = track
			}
		}
		artwork = append(artwork, frontCoverURL(release.ID))
	}

	return metadata.SourceResult{
		Source:      c.Name(),
		Confidence:  Confidence(queryPrint, rec.Title, rec.Score),
		Fields:      fields,
		ArtworkURLs: artwork,
	}
}

// Confidence blends the token overlap between query and candidate title with
// the MusicBrainz relevance score. Overlap dominates so the score is
// monotonically non-decreasing in matched query terms.
func Confidence(queryPrint *textutil.Fingerprint, title string, score int) float64 {
	overlap := queryPrint.OverlapRatio(textutil.NewFingerprint(title))
	relevance := float64(score) / 100.0
	if relevance > 1 {
		relevance = 1
	}
	return 0.8*overlap + 0.2*relevance
}

// Artwork returns Cover Art Archive front cover URLs for a release
// identifier. The archive serves the image directly at a well-known path, so
// no lookup request is needed.
func (c *Client) Artwork(_ context.Context, identifier string) ([]string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, errors.New("identifier must not be empty")
	}
	return []string{frontCoverURL(identifier)}, nil
}

func frontCoverURL(releaseID string) string {
	return coverArtBaseURL + "/release/" + releaseID + "/front"
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("musicbrainz returned %d (latency=%v)", resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode musicbrainz response: %w", err)
	}
	return nil
}
