package library

import (
	"time"
)

// SubtitleSource identifies which acquisition tier produced a subtitle
type SubtitleSource string

const (
	SourcePrimary  SubtitleSource = "primary"
	SourceFallback SubtitleSource = "fallback"
	SourceFixture  SubtitleSource = "fixture"
)

// Movie is the resolved identity of a movie plus whatever metadata the
// lookup could provide. Only CanonicalID is guaranteed.
type Movie struct {
	CanonicalID string `json:"imdb_id"`
	Title       string `json:"title,omitempty"`
	Year        string `json:"year,omitempty"`
	Genre       string `json:"genre,omitempty"`
	Plot        string `json:"plot,omitempty"`
	Rating      string `json:"imdb_rating,omitempty"`
	PosterURL   string `json:"poster,omitempty"`
	Runtime     string `json:"runtime,omitempty"`
}

// HasMetadata reports whether the metadata lookup produced a title
func (m *Movie) HasMetadata() bool {
	return m != nil && m.Title != ""
}

// DisplayTitle returns the title, falling back to the canonical id
func (m *Movie) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.CanonicalID
}

// Episode is one narrative segment of a movie
type Episode struct {
	Episode int    `json:"episode"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Title   string `json:"title"`
}

// Analysis is the stored segmentation of a movie. Once stored it is never
// rewritten.
type Analysis struct {
	ID             int64
	CanonicalID    string
	Movie          Movie
	Episodes       []Episode
	SubtitleSource SubtitleSource
	CreatedAt      time.Time
}
