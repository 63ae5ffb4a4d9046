package opensubtitles

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL = "https://api.opensubtitles.com/api/v1"
	userAgent      = "cinesplit v1.0"

	requestTimeout = 30 * time.Second

	// Login tokens last 24h; renew an hour early.
	tokenLifetime = 23 * time.Hour

	// maxSubtitleBytes bounds a downloaded subtitle file.
	maxSubtitleBytes = 10 << 20
)

var (
	ErrNotConfigured = errors.New("opensubtitles api key not configured")
	ErrUnauthorized  = errors.New("unauthorized: invalid api key or token")
	ErrRateLimited   = errors.New("rate limited")
)

// StatusError is returned for unexpected HTTP statuses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client talks to the OpenSubtitles REST API. Searches only need the API
// key. Downloads use a bearer token when credentials are configured and fall
// back to the key's anonymous quota otherwise.
type Client struct {
	apiKey     string
	username   string
	password   string
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient creates a new OpenSubtitles client. An empty baseURL selects
// the public API.
func NewClient(apiKey, username, password, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		username:   username,
		password:   password,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: requestTimeout},
		log:        slog.With("component", "opensubtitles"),
	}
}

// IsConfigured returns true if the client has an API key configured
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// Search lists subtitles for a movie, sorted server-side when OrderBy is set.
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	q := url.Values{"type": {"movie"}}
	if params.IMDBID > 0 {
		q.Set("imdb_id", strconv.Itoa(params.IMDBID))
	}
	if params.Query != "" {
		q.Set("query", params.Query)
	}
	if len(params.Languages) > 0 {
		q.Set("languages", strings.Join(params.Languages, ","))
	}
	if params.OrderBy != "" {
		q.Set("order_by", params.OrderBy)
		q.Set("order_direction", "desc")
	}

	var result SearchResponse
	if err := c.do(ctx, http.MethodGet, "/subtitles?"+q.Encode(), nil, "", &result); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return &result, nil
}

// Download resolves a file id to a temporary link and fetches the file.
// It returns the raw bytes and the provider's file name.
func (c *Client) Download(ctx context.Context, fileID int) ([]byte, string, error) {
	if !c.IsConfigured() {
		return nil, "", ErrNotConfigured
	}

	link, err := c.requestLink(ctx, fileID)
	if errors.Is(err, ErrUnauthorized) {
		// A revoked token clears itself in do; one fresh login is worth a try.
		link, err = c.requestLink(ctx, fileID)
	}
	if err != nil {
		return nil, "", fmt.Errorf("download request failed: %w", err)
	}
	if link.Link == "" {
		return nil, "", errors.New("no download link in response")
	}
	c.log.Debug("download link issued", "file_id", fileID, "remaining", link.Remaining)

	content, err := c.fetch(ctx, link.Link)
	if err != nil {
		return nil, "", err
	}
	return content, link.FileName, nil
}

func (c *Client) requestLink(ctx context.Context, fileID int) (*DownloadResponse, error) {
	token, err := c.bearer(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	var resp DownloadResponse
	if err := c.do(ctx, http.MethodPost, "/download", DownloadRequest{FileID: fileID}, token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) fetch(ctx context.Context, link string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	content, err := io.ReadAll(io.LimitReader(resp.Body, maxSubtitleBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read subtitle content: %w", err)
	}
	return content, nil
}

// bearer returns a login token, logging in when the cached one expired.
// Without credentials it returns "" and downloads count against the API key.
func (c *Client) bearer(ctx context.Context) (string, error) {
	if c.username == "" || c.password == "" {
		return "", nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Now().Before(c.tokenExp) {
		return c.token, nil
	}

	var resp LoginResponse
	creds := LoginRequest{Username: c.username, Password: c.password}
	if err := c.do(ctx, http.MethodPost, "/login", creds, "", &resp); err != nil {
		return "", fmt.Errorf("login failed: %w", err)
	}
	if resp.Token == "" {
		return "", errors.New("no token in login response")
	}

	c.token = resp.Token
	c.tokenExp = time.Now().Add(tokenLifetime)
	c.log.Debug("logged in", "username", c.username)
	return c.token, nil
}

func (c *Client) dropToken() {
	c.mu.Lock()
	c.token = ""
	c.tokenExp = time.Time{}
	c.mu.Unlock()
}

// do sends a JSON request to path under the base URL and decodes the reply into out.
func (c *Client) do(ctx context.Context, method, path string, body interface{}, token string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		if token != "" {
			c.dropToken()
		}
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

var _ SubtitleFetcher = (*Client)(nil)
