package tmdb

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

// Result represents a single TMDB search match.
type Result struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Name        string  `json:"name"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	PosterPath  string  `json:"poster_path"`
	Popularity  float64 `json:"popularity"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int64   `json:"vote_count"`
}

// Response models the TMDB paginated search response.
type Response struct {
	Page         int      `json:"page"`
	Results      []Result `json:"results"`
	TotalPages   int      `json:"total_pages"`
	TotalResults int      `json:"total_results"`
}

type imagesResponse struct {
	Posters []struct {
		FilePath string `json:"file_path"`
	} `json:"posters"`
}

const imageBaseURL = "https://image.tmdb.org/t/p/original"

// Client provides access to the TMDB API as a metadata source adapter.
type Client struct {
	apiKey     string
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

// New creates a TMDB adapter.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name implements sources.Adapter.
func (c *Client) Name() string { return "tmdb" }

// Supports implements sources.Adapter. TMDB only serves video lookups.
func (c *Client) Supports(kind media.Kind) bool { return kind == media.KindVideo }

// Search queries TMDB movie search and converts matches to source results.
func (c *Client) Search(ctx context.Context, kind media.Kind, query string, params sources.Params) ([]metadata.SourceResult, error) {
	if !c.Supports(kind) {
		return nil, nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.New("query must not be empty")
	}

	endpoint, err := url.Parse(c.baseURL + "/search/movie")
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	values := url.Values{}
	values.Set("query", query)
	values.Set("api_key", c.apiKey)
	if params.Year > 0 {
		values.Set("primary_release_year", strconv.Itoa(params.Year))
	}
	endpoint.RawQuery = values.Encode()

	var payload Response
	if err := c.getJSON(ctx, endpoint.String(), &payload); err != nil {
		return nil, err
	}

	limit := params.Limit
	if limit <= 0 || limit > len(payload.Results) {
		limit = len(payload.Results)
	}

	queryPrint := textutil.NewFingerprint(query)
	out := make([]metadata.SourceResult, 0, limit)
	for _, res := range payload.Results[:limit] {
		out = append(out, c.toSourceResult(queryPrint, res))
	}
	return out, nil
}

func (c *Client) toSourceResult(queryPrint *textutil.Fingerprint, res Result) metadata.SourceResult {
	title := res.Title
	if title == "" {
		title = res.Name
	}

	fields := metadata.Record{
		Title:       title,
		Description: res.Overview,
		Year:        metadata.ParseYear(res.ReleaseDate),
	}
	if res.VoteAverage > 0 {
		fields.Rating = strconv.FormatFloat(res.VoteAverage, 'f', 1, 64)
	}

	var artwork []string
	if res.PosterPath != "" {
		artwork = append(artwork, imageBaseURL+res.PosterPath)
	}

	return metadata.SourceResult{
		Source:      c.Name(),
		Confidence:  Confidence(queryPrint, title, res.VoteAverage),
		Fields:      fields,
		ArtworkURLs: artwork,
	}
}

// Confidence scores a candidate title against the query. The dominant term
// is the fraction of query tokens matched by the title, so the score is
// monotonically non-decreasing in matched query terms; the vote average adds
// a small corroboration boost.
func Confidence(queryPrint *textutil.Fingerprint, title string, voteAverage float64) float64 {
	overlap := queryPrint.OverlapRatio(textutil.NewFingerprint(title))
	boost := voteAverage / 10.0
	if boost > 1 {
		boost = 1
	}
	return 0.9*overlap + 0.1*boost
}

// Artwork fetches poster URLs for a TMDB movie identifier.
func (c *Client) Artwork(ctx context.Context, identifier string) ([]string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, errors.New("identifier must not be empty")
	}
	endpoint, err := url.Parse(fmt.Sprintf("%s/movie/%s/images", c.baseURL, url.PathEscape(identifier)))
	if err != nil {
		return nil, fmt.Errorf("parse tmdb url: %w", err)
	}
	values := url.Values{}
	values.Set("api_key", c.apiKey)
	endpoint.RawQuery = values.Encode()

	var payload imagesResponse
	if err := c.getJSON(ctx, endpoint.String(), &payload); err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(payload.Posters))
	for _, poster := range payload.Posters {
		if poster.FilePath != "" {
			urls = append(urls, imageBaseURL+poster.FilePath)
		}
	}
	return urls, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb returned %d (latency=%v)", resp.StatusCode, latency)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}
