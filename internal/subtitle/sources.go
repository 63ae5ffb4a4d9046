package subtitle

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/shapedtime/cinesplit/internal/library"
	"github.com/shapedtime/cinesplit/internal/opensubtitles"
	"github.com/shapedtime/cinesplit/internal/subdl"
)

// Source is one tier of subtitle acquisition. An empty result with a nil
// error means the tier had nothing for this movie.
type Source interface {
	Name() library.SubtitleSource
	Fetch(ctx context.Context, movie *library.Movie) (string, error)
}

// PrimarySource fetches subtitles from OpenSubtitles by IMDb id.
type PrimarySource struct {
	client    opensubtitles.SubtitleFetcher
	languages []string
	log       *slog.Logger
}

// NewPrimarySource creates the OpenSubtitles tier.
func NewPrimarySource(client opensubtitles.SubtitleFetcher, languages []string) *PrimarySource {
	return &PrimarySource{
		client:    client,
		languages: languages,
		log:       slog.With("component", "subtitle-primary"),
	}
}

func (s *PrimarySource) Name() library.SubtitleSource { return library.SourcePrimary }

func (s *PrimarySource) Fetch(ctx context.Context, movie *library.Movie) (string, error) {
	if s.client == nil || !s.client.IsConfigured() {
		return "", fmt.Errorf("%w: opensubtitles not configured", ErrTransport)
	}

	imdbNum, err := opensubtitles.IMDBNumber(movie.CanonicalID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}

	resp, err := s.client.Search(ctx, opensubtitles.SearchParams{
		IMDBID:    imdbNum,
		Languages: s.languages,
		OrderBy:   opensubtitles.OrderByDownloadCount,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}

	file, lang, ok := pickOpenSubtitlesFile(resp.Data, s.languages)
	if !ok {
		s.log.Debug("no subtitle in preferred languages", "imdb_id", movie.CanonicalID, "results", len(resp.Data))
		return "", nil
	}

	content, fileName, err := s.client.Download(ctx, file.FileID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}

	s.log.Debug("subtitle downloaded", "imdb_id", movie.CanonicalID, "file", fileName, "language", lang)
	return Decode(content, lang), nil
}

// ArchiveSearcher is the subset of the SubDL client the fallback tier needs.
type ArchiveSearcher interface {
	IsConfigured() bool
	Search(ctx context.Context, params subdl.SearchParams) ([]subdl.Subtitle, error)
	Download(ctx context.Context, sub subdl.Subtitle) ([]byte, string, error)
}

// FallbackSource searches SubDL by title and year.
type FallbackSource struct {
	client    ArchiveSearcher
	languages []string
	log       *slog.Logger
}

// NewFallbackSource creates the SubDL tier.
func NewFallbackSource(client ArchiveSearcher, languages []string) *FallbackSource {
	return &FallbackSource{
		client:    client,
		languages: languages,
		log:       slog.With("component", "subtitle-fallback"),
	}
}

func (s *FallbackSource) Name() library.SubtitleSource { return library.SourceFallback }

func (s *FallbackSource) Fetch(ctx context.Context, movie *library.Movie) (string, error) {
	if movie.Title == "" {
		s.log.Debug("skipping title search, identity has no title", "imdb_id", movie.CanonicalID)
		return "", nil
	}
	if s.client == nil || !s.client.IsConfigured() {
		return "", fmt.Errorf("%w: subdl not configured", ErrTransport)
	}

	year := parseYear(movie.Year)
	subs, err := s.client.Search(ctx, subdl.SearchParams{
		FilmName:  movie.Title,
		Year:      year,
		IMDBID:    movie.CanonicalID,
		Languages: s.languages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}

	ranked := rankSubDL(subs, s.languages, movie.Title, year)
	if len(ranked) == 0 {
		return "", nil
	}

	best := ranked[0]
	content, fileName, err := s.client.Download(ctx, best)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}

	lang := best.LanguageCode
	if lang == "" {
		lang = best.Language
	}
	s.log.Debug("subtitle downloaded", "imdb_id", movie.CanonicalID, "file", fileName, "release", best.ReleaseName)
	return Decode(content, lang), nil
}

// FixtureSource reads a fixed local subtitle file. Used in offline mode.
type FixtureSource struct {
	path string
}

// NewFixtureSource creates a tier backed by a local file.
func NewFixtureSource(path string) *FixtureSource {
	return &FixtureSource{path: path}
}

func (s *FixtureSource) Name() library.SubtitleSource { return library.SourceFixture }

func (s *FixtureSource) Fetch(ctx context.Context, movie *library.Movie) (string, error) {
	content, err := os.ReadFile(s.path)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return Decode(content, ""), nil
}

// parseYear reads the leading year of values like "1999" or "2010–2012".
func parseYear(s string) int {
	s = strings.TrimSpace(s)
	if len(s) < 4 {
		return 0
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return 0
	}
	return year
}

var (
	_ Source = (*PrimarySource)(nil)
	_ Source = (*FallbackSource)(nil)
	_ Source = (*FixtureSource)(nil)
)
