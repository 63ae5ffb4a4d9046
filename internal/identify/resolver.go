package identify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shapedtime/cinesplit/internal/library"
	"github.com/shapedtime/cinesplit/internal/omdb"
)

// MinAutocompleteLength is the shortest prefix Autocomplete will search for.
const MinAutocompleteLength = 3

// ErrNotFound is returned when no movie matches a query
var ErrNotFound = errors.New("movie not found")

var canonicalIDPattern = regexp.MustCompile(`^tt[0-9]+$`)

// IsCanonicalID reports whether s already is an IMDb-style id.
func IsCanonicalID(s string) bool {
	return canonicalIDPattern.MatchString(strings.TrimSpace(s))
}

// MetadataLookup is the subset of the OMDb client the resolver needs.
type MetadataLookup interface {
	SearchMovies(ctx context.Context, query string) ([]omdb.SearchResult, error)
	GetMovie(ctx context.Context, imdbID string) (*omdb.Movie, error)
}

// DetailsCache stores previously fetched metadata.
type DetailsCache interface {
	Get(canonicalID string) (*library.Movie, error)
	Put(movie *library.Movie) error
}

// Candidate is one autocomplete suggestion
type Candidate struct {
	CanonicalID string `json:"imdb_id"`
	Title       string `json:"title"`
	Year        string `json:"year"`
	PosterURL   string `json:"poster,omitempty"`
}

// Resolver turns free-text or id queries into a movie identity
type Resolver struct {
	lookup MetadataLookup
	cache  DetailsCache
	log    *slog.Logger
}

// NewResolver creates a resolver. cache may be nil.
func NewResolver(lookup MetadataLookup, cache DetailsCache) *Resolver {
	return &Resolver{
		lookup: lookup,
		cache:  cache,
		log:    slog.With("component", "identity-resolver"),
	}
}

// Resolve maps a query to a movie. Canonical ids skip the title search.
// When the details fetch fails for transport reasons the returned movie
// carries only what is already known, and resolution still succeeds.
func (r *Resolver) Resolve(ctx context.Context, query string) (*library.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", ErrNotFound)
	}

	fallback := &library.Movie{}
	if IsCanonicalID(query) {
		fallback.CanonicalID = query
	} else {
		results, err := r.lookup.SearchMovies(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("%w: search for %q failed: %v", ErrNotFound, query, err)
		}
		if len(results) == 0 || !IsCanonicalID(results[0].IMDBID) {
			return nil, fmt.Errorf("%w: no candidates for %q", ErrNotFound, query)
		}
		top := results[0]
		fallback.CanonicalID = top.IMDBID
		fallback.Title = top.Title
		fallback.Year = top.Year
		fallback.PosterURL = orEmpty(top.Poster)
	}

	return r.details(ctx, fallback)
}

func (r *Resolver) details(ctx context.Context, fallback *library.Movie) (*library.Movie, error) {
	id := fallback.CanonicalID

	if r.cache != nil {
		cached, err := r.cache.Get(id)
		if err == nil {
			return cached, nil
		}
		r.log.Debug("metadata cache lookup missed", "imdb_id", id, "error", err)
	}

	details, err := r.lookup.GetMovie(ctx, id)
	if errors.Is(err, omdb.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		r.log.Warn("metadata fetch failed, continuing with partial identity", "imdb_id", id, "error", err)
		return fallback, nil
	}
	if strings.TrimSpace(details.Title) == "" {
		return nil, fmt.Errorf("%w: %s has no title", ErrNotFound, id)
	}

	movie := &library.Movie{
		CanonicalID: id,
		Title:       details.Title,
		Year:        orEmpty(details.Year),
		Genre:       orEmpty(details.Genre),
		Plot:        orEmpty(details.Plot),
		Rating:      orEmpty(details.IMDBRating),
		PosterURL:   orEmpty(details.Poster),
		Runtime:     orEmpty(details.Runtime),
	}

	if r.cache != nil {
		if err := r.cache.Put(movie); err != nil {
			r.log.Warn("failed to cache metadata", "imdb_id", id, "error", err)
		}
	}

	return movie, nil
}

// Autocomplete returns title suggestions for a prefix. Short prefixes and
// lookup failures yield an empty list.
func (r *Resolver) Autocomplete(ctx context.Context, prefix string) []Candidate {
	prefix = strings.TrimSpace(prefix)
	if utf8.RuneCountInString(prefix) < MinAutocompleteLength {
		return []Candidate{}
	}

	results, err := r.lookup.SearchMovies(ctx, prefix)
	if err != nil {
		r.log.Warn("autocomplete search failed", "prefix", prefix, "error", err)
		return []Candidate{}
	}

	candidates := make([]Candidate, 0, len(results))
	for _, res := range results {
		if !IsCanonicalID(res.IMDBID) {
			continue
		}
		candidates = append(candidates, Candidate{
			CanonicalID: res.IMDBID,
			Title:       res.Title,
			Year:        res.Year,
			PosterURL:   orEmpty(res.Poster),
		})
	}
	return candidates
}

// orEmpty maps OMDb's "N/A" placeholder to an empty string.
func orEmpty(s string) string {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "N/A") {
		return ""
	}
	return s
}
