package subdl

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "https://api.subdl.com/api/v1"
	defaultDownloadURL = "https://dl.subdl.com"

	defaultHTTPTimeout = 30 * time.Second
	resultsPerPage     = 30

	// maxArchiveSize bounds the zip payload read into memory
	maxArchiveSize = 20 << 20
	// maxSubtitleBytes bounds one decompressed .srt entry
	maxSubtitleBytes = 10 << 20
)

var (
	// ErrNoSubtitleInArchive is returned when a downloaded archive has no .srt entry
	ErrNoSubtitleInArchive = errors.New("archive contains no srt file")
	ErrSubtitleTooLarge    = errors.New("subtitle entry exceeds size limit")
)

// Client is a SubDL API client
type Client struct {
	apiKey      string
	baseURL     string
	downloadURL string
	httpClient  *http.Client
}

// NewClient creates a new SubDL client. Empty URLs select the public endpoints.
func NewClient(apiKey, baseURL, downloadURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if downloadURL == "" {
		downloadURL = defaultDownloadURL
	}
	return &Client{
		apiKey:      apiKey,
		baseURL:     strings.TrimRight(baseURL, "/"),
		downloadURL: strings.TrimRight(downloadURL, "/"),
		httpClient:  &http.Client{Timeout: defaultHTTPTimeout},
	}
}

// IsConfigured returns true if the client has an API key configured
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// SearchParams contains parameters for subtitle search
type SearchParams struct {
	FilmName  string
	Year      int
	IMDBID    string   // optional, "tt" prefixed
	Languages []string // ISO 639-1 codes, sent upper-cased
}

// Subtitle is one downloadable subtitle archive
type Subtitle struct {
	ReleaseName  string `json:"release_name"`
	Name         string `json:"name"`
	Language     string `json:"lang"`
	LanguageCode string `json:"language"`
	Author       string `json:"author"`
	URL          string `json:"url"`
	HI           bool   `json:"hi"`
	FullSeason   bool   `json:"full_season"`
}

// SearchResponse is the API response for subtitle search
type SearchResponse struct {
	Status    bool       `json:"status"`
	Error     string     `json:"error"`
	Subtitles []Subtitle `json:"subtitles"`
}

// Search searches for movie subtitles
func (c *Client) Search(ctx context.Context, params SearchParams) ([]Subtitle, error) {
	if !c.IsConfigured() {
		return nil, fmt.Errorf("SubDL API key not configured")
	}

	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("type", "movie")
	query.Set("subs_per_page", strconv.Itoa(resultsPerPage))
	if params.IMDBID != "" {
		query.Set("imdb_id", params.IMDBID)
	}
	if params.FilmName != "" {
		query.Set("film_name", params.FilmName)
	}
	if params.Year > 0 {
		query.Set("year", strconv.Itoa(params.Year))
	}
	if len(params.Languages) > 0 {
		query.Set("languages", strings.ToUpper(strings.Join(params.Languages, ",")))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/subtitles?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search failed: unexpected status %d", resp.StatusCode)
	}

	var result SearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.Status {
		if result.Error == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("search failed: %s", result.Error)
	}

	return result.Subtitles, nil
}

// Download fetches the subtitle archive and returns the first .srt entry
func (c *Client) Download(ctx context.Context, sub Subtitle) ([]byte, string, error) {
	if sub.URL == "" {
		return nil, "", fmt.Errorf("subtitle has no download url")
	}

	link := sub.URL
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") {
		link = c.downloadURL + "/" + strings.TrimLeft(link, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxArchiveSize))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read archive: %w", err)
	}

	return ExtractSRT(data)
}

// ExtractSRT returns the first .srt entry of a zip archive
func ExtractSRT(data []byte) ([]byte, string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, "", fmt.Errorf("open subtitle archive: %w", err)
	}

	for _, file := range zr.File {
		if file.FileInfo().IsDir() || !strings.EqualFold(path.Ext(file.Name), ".srt") {
			continue
		}
		if file.UncompressedSize64 > maxSubtitleBytes {
			return nil, "", fmt.Errorf("%w: %s", ErrSubtitleTooLarge, file.Name)
		}
		rc, err := file.Open()
		if err != nil {
			return nil, "", fmt.Errorf("open archive entry: %w", err)
		}
		// The header size can lie; read one byte past the limit to catch it.
		content, err := io.ReadAll(io.LimitReader(rc, maxSubtitleBytes+1))
		rc.Close()
		if err != nil {
			return nil, "", fmt.Errorf("read archive entry: %w", err)
		}
		if len(content) > maxSubtitleBytes {
			return nil, "", fmt.Errorf("%w: %s", ErrSubtitleTooLarge, file.Name)
		}
		return content, path.Base(file.Name), nil
	}

	return nil, "", ErrNoSubtitleInArchive
}
