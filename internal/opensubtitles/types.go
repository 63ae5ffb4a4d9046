package opensubtitles

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// SubtitleFetcher defines the interface for fetching subtitles from OpenSubtitles.
type SubtitleFetcher interface {
	// IsConfigured returns true if the fetcher is properly configured
	IsConfigured() bool
	// Search searches for subtitles matching the given parameters
	Search(ctx context.Context, params SearchParams) (*SearchResponse, error)
	// Download downloads a subtitle file by file ID, returns content and filename
	Download(ctx context.Context, fileID int) ([]byte, string, error)
}

// Sort orders accepted by the search endpoint
const (
	OrderByDownloadCount = "download_count"
	OrderByUploadDate    = "upload_date"
)

// SearchParams contains parameters for subtitle search
type SearchParams struct {
	IMDBID    int      // numeric part of the IMDb id
	Query     string   // free-text title, used when no id is known
	Languages []string // ISO 639-1 language codes (tr, en)
	OrderBy   string   // sort field, see OrderBy constants
}

// SearchResponse is the API response for subtitle search
type SearchResponse struct {
	TotalPages int              `json:"total_pages"`
	TotalCount int              `json:"total_count"`
	Page       int              `json:"page"`
	Data       []SubtitleResult `json:"data"`
}

// SubtitleResult represents a single subtitle from search results
type SubtitleResult struct {
	ID         string             `json:"id"`
	Type       string             `json:"type"`
	Attributes SubtitleAttributes `json:"attributes"`
}

// SubtitleAttributes contains the subtitle metadata
type SubtitleAttributes struct {
	SubtitleID        string         `json:"subtitle_id"`
	Language          string         `json:"language"`
	DownloadCount     int            `json:"download_count"`
	HearingImpaired   bool           `json:"hearing_impaired"`
	FromTrusted       bool           `json:"from_trusted"`
	ForeignPartsOnly  bool           `json:"foreign_parts_only"`
	AITranslated      bool           `json:"ai_translated"`
	MachineTranslated bool           `json:"machine_translated"`
	Release           string         `json:"release"`
	UploadDate        string         `json:"upload_date"`
	Files             []SubtitleFile `json:"files"`
	FeatureDetails    FeatureDetails `json:"feature_details"`
}

// SubtitleFile represents a file within a subtitle entry
type SubtitleFile struct {
	FileID   int    `json:"file_id"`
	CDNumber int    `json:"cd_number"`
	FileName string `json:"file_name"`
}

// FeatureDetails contains movie info
type FeatureDetails struct {
	FeatureID   int    `json:"feature_id"`
	FeatureType string `json:"feature_type"`
	Year        int    `json:"year"`
	Title       string `json:"title"`
	MovieName   string `json:"movie_name"`
	IMDBID      int    `json:"imdb_id"`
}

// LoginRequest is the request body for login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the API response for login
type LoginResponse struct {
	Token  string `json:"token"`
	Status int    `json:"status"`
}

// DownloadRequest is the request body for download
type DownloadRequest struct {
	FileID int `json:"file_id"`
}

// DownloadResponse is the API response for download
type DownloadResponse struct {
	Link      string `json:"link"`
	FileName  string `json:"file_name"`
	Remaining int    `json:"remaining"`
	Message   string `json:"message"`
}

// IMDBNumber converts "tt0133093" to 133093.
func IMDBNumber(id string) (int, error) {
	digits := strings.TrimPrefix(strings.TrimSpace(id), "tt")
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid imdb id %q", id)
	}
	return n, nil
}
