package identify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shapedtime/cinesplit/internal/library"
	"github.com/shapedtime/cinesplit/internal/omdb"
)

type fakeLookup struct {
	results     []omdb.SearchResult
	searchErr   error
	movie       *omdb.Movie
	getErr      error
	searchCalls int
	getCalls    int
}

func (f *fakeLookup) SearchMovies(ctx context.Context, query string) ([]omdb.SearchResult, error) {
	f.searchCalls++
	return f.results, f.searchErr
}

func (f *fakeLookup) GetMovie(ctx context.Context, imdbID string) (*omdb.Movie, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	m := *f.movie
	m.IMDBID = imdbID
	return &m, nil
}

type mapCache map[string]*library.Movie

func (c mapCache) Get(id string) (*library.Movie, error) {
	if m, ok := c[id]; ok {
		return m, nil
	}
	return nil, errors.New("miss")
}

func (c mapCache) Put(m *library.Movie) error {
	c[m.CanonicalID] = m
	return nil
}

var matrix = &omdb.Movie{
	Title:      "The Matrix",
	Year:       "1999",
	Genre:      "Action, Sci-Fi",
	Plot:       "A computer hacker learns about the true nature of reality.",
	Poster:     "N/A",
	IMDBRating: "8.7",
}

func TestIsCanonicalID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"tt0133093", true},
		{"  tt0133093 ", true},
		{"tt", false},
		{"TT0133093", false},
		{"tt0133093x", false},
		{"0133093", false},
		{"The Matrix", false},
		{"", false},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, IsCanonicalID(tt.in), tt.in)
	}
}

func TestResolveCanonicalIDSkipsSearch(t *testing.T) {
	lookup := &fakeLookup{movie: matrix}
	r := NewResolver(lookup, nil)

	movie, err := r.Resolve(t.Context(), "tt0133093")
	require.NoError(t, err)
	require.Equal(t, "tt0133093", movie.CanonicalID)
	require.Equal(t, "The Matrix", movie.Title)
	require.Empty(t, movie.PosterURL)
	require.Zero(t, lookup.searchCalls)
}

func TestResolveTitleUsesTopCandidate(t *testing.T) {
	lookup := &fakeLookup{
		results: []omdb.SearchResult{
			{Title: "The Matrix", Year: "1999", IMDBID: "tt0133093"},
			{Title: "The Matrix Reloaded", Year: "2003", IMDBID: "tt0234215"},
		},
		movie: matrix,
	}
	r := NewResolver(lookup, nil)

	movie, err := r.Resolve(t.Context(), "  matrix ")
	require.NoError(t, err)
	require.Equal(t, "tt0133093", movie.CanonicalID)
	require.Equal(t, 1, lookup.searchCalls)
}

func TestResolveNotFound(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		lookup *fakeLookup
	}{
		{"empty query", "   ", &fakeLookup{}},
		{"no candidates", "zzqqxx", &fakeLookup{}},
		{"search failure", "matrix", &fakeLookup{searchErr: errors.New("boom")}},
		{"metadata not found", "tt9999999", &fakeLookup{getErr: omdb.ErrNotFound}},
		{"empty title", "tt0000001", &fakeLookup{movie: &omdb.Movie{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(tt.lookup, nil).Resolve(t.Context(), tt.query)
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestResolveDegradesOnTransportFailure(t *testing.T) {
	lookup := &fakeLookup{
		results: []omdb.SearchResult{{Title: "The Matrix", Year: "1999", IMDBID: "tt0133093"}},
		getErr:  errors.New("connection reset"),
	}
	r := NewResolver(lookup, nil)

	movie, err := r.Resolve(t.Context(), "matrix")
	require.NoError(t, err)
	require.Equal(t, "tt0133093", movie.CanonicalID)
	require.Equal(t, "The Matrix", movie.Title)
	require.Empty(t, movie.Plot)

	movie, err = r.Resolve(t.Context(), "tt0133093")
	require.NoError(t, err)
	require.Equal(t, "tt0133093", movie.CanonicalID)
	require.False(t, movie.HasMetadata())
}

func TestResolveUsesCache(t *testing.T) {
	lookup := &fakeLookup{movie: matrix}
	cache := mapCache{}
	r := NewResolver(lookup, cache)

	_, err := r.Resolve(t.Context(), "tt0133093")
	require.NoError(t, err)
	require.Contains(t, cache, "tt0133093")

	movie, err := r.Resolve(t.Context(), "tt0133093")
	require.NoError(t, err)
	require.Equal(t, "The Matrix", movie.Title)
	require.Equal(t, 1, lookup.getCalls)
}

func TestAutocomplete(t *testing.T) {
	lookup := &fakeLookup{results: []omdb.SearchResult{
		{Title: "The Matrix", Year: "1999", IMDBID: "tt0133093", Poster: "N/A"},
		{Title: "Broken", Year: "2000", IMDBID: ""},
	}}
	r := NewResolver(lookup, nil)

	require.Empty(t, r.Autocomplete(t.Context(), "ma"))
	require.Zero(t, lookup.searchCalls)

	got := r.Autocomplete(t.Context(), "mat")
	require.Equal(t, []Candidate{{CanonicalID: "tt0133093", Title: "The Matrix", Year: "1999"}}, got)

	lookup.searchErr = errors.New("down")
	require.Empty(t, r.Autocomplete(t.Context(), "matrix"))
}
