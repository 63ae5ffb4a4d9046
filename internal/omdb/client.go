package omdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL = "http://www.omdbapi.com/"

	// maxCandidates caps how many search results are returned
	maxCandidates = 5
)

// ErrNotFound is returned when OMDb answers Response=False
var ErrNotFound = errors.New("not found")

// Client is an OMDb API client
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new OMDb client. An empty baseURL selects the public API.
func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// IsConfigured returns true if the client has an API key configured
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// SearchResult is a single candidate from a title search
type SearchResult struct {
	Title  string `json:"Title"`
	Year   string `json:"Year"`
	IMDBID string `json:"imdbID"`
	Type   string `json:"Type"`
	Poster string `json:"Poster"`
}

// Movie represents detailed movie info from OMDb
type Movie struct {
	Title      string `json:"Title"`
	Year       string `json:"Year"`
	Rated      string `json:"Rated"`
	Released   string `json:"Released"`
	Runtime    string `json:"Runtime"`
	Genre      string `json:"Genre"`
	Director   string `json:"Director"`
	Plot       string `json:"Plot"`
	Poster     string `json:"Poster"`
	IMDBRating string `json:"imdbRating"`
	IMDBID     string `json:"imdbID"`
}

type envelope struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
}

// SearchMovies searches for movies by title, best match first
func (c *Client) SearchMovies(ctx context.Context, query string) ([]SearchResult, error) {
	var result struct {
		envelope
		Search []SearchResult `json:"Search"`
	}
	params := url.Values{}
	params.Set("s", query)
	params.Set("type", "movie")

	if err := c.get(ctx, params, &result); err != nil {
		return nil, err
	}
	if !strings.EqualFold(result.Response, "True") {
		if isNotFoundMessage(result.Error) {
			return nil, nil
		}
		return nil, fmt.Errorf("search failed: %s", result.Error)
	}

	if len(result.Search) > maxCandidates {
		result.Search = result.Search[:maxCandidates]
	}
	return result.Search, nil
}

// GetMovie fetches full movie details by IMDb id
func (c *Client) GetMovie(ctx context.Context, imdbID string) (*Movie, error) {
	var result struct {
		envelope
		Movie
	}
	params := url.Values{}
	params.Set("i", imdbID)
	params.Set("plot", "full")

	if err := c.get(ctx, params, &result); err != nil {
		return nil, err
	}
	if !strings.EqualFold(result.Response, "True") {
		if isNotFoundMessage(result.Error) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, imdbID)
		}
		return nil, fmt.Errorf("lookup failed: %s", result.Error)
	}

	movie := result.Movie
	return &movie, nil
}

// isNotFoundMessage separates "no such movie" answers from key or quota errors,
// which OMDb also reports with Response=False.
func isNotFoundMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "not found") || strings.Contains(msg, "incorrect imdb id")
}

// get performs a GET request and decodes the response
func (c *Client) get(ctx context.Context, params url.Values, v interface{}) error {
	if !c.IsConfigured() {
		return fmt.Errorf("OMDb API key not configured")
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}

	q := u.Query()
	for k, vals := range params {
		for _, val := range vals {
			q.Add(k, val)
		}
	}
	q.Set("apikey", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
