package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shapedtime/cinesplit/internal/identify"
	"github.com/shapedtime/cinesplit/internal/library"
	"github.com/shapedtime/cinesplit/internal/service"
)

type fakeAnalyzer struct {
	result     *service.Result
	err        error
	analyses   []*library.Analysis
	listErr    error
	queries    []string
	requestIDs []string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, query string) (*service.Result, error) {
	f.queries = append(f.queries, query)
	f.requestIDs = append(f.requestIDs, service.RequestID(ctx))
	return f.result, f.err
}

func (f *fakeAnalyzer) Autocomplete(ctx context.Context, prefix string) []identify.Candidate {
	if len(prefix) < identify.MinAutocompleteLength {
		return nil
	}
	return []identify.Candidate{{CanonicalID: "tt0133093", Title: "The Matrix", Year: "1999"}}
}

func (f *fakeAnalyzer) List(ctx context.Context) ([]*library.Analysis, error) {
	return f.analyses, f.listErr
}

func do(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestAnalyzeOK(t *testing.T) {
	fake := &fakeAnalyzer{result: &service.Result{
		Source:         service.SourceNewAnalysis,
		SubtitleSource: library.SourcePrimary,
		Episodes:       []library.Episode{{Episode: 1, Start: "00:00:00", End: "02:16:17", Title: "All of It"}},
		Movie:          library.Movie{CanonicalID: "tt0133093", Title: "The Matrix"},
	}}
	s := NewServer(fake, StatusInfo{})

	rec := do(t, s, "/api/analyze?q=The+Matrix")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Source   string            `json:"source"`
		Episodes []library.Episode `json:"episodes"`
		Movie    library.Movie     `json:"movie_info"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "New Analysis", body.Source)
	require.Len(t, body.Episodes, 1)
	require.Equal(t, "tt0133093", body.Movie.CanonicalID)
	require.Equal(t, []string{"The Matrix"}, fake.queries)
}

func TestAnalyzeAcceptsIMDBIDParam(t *testing.T) {
	fake := &fakeAnalyzer{result: &service.Result{Source: service.SourceDatabaseCache}}
	s := NewServer(fake, StatusInfo{})

	rec := do(t, s, "/api/analyze?imdb_id=tt0133093")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"tt0133093"}, fake.queries)
}

func TestAnalyzeMissingQuery(t *testing.T) {
	s := NewServer(&fakeAnalyzer{}, StatusInfo{})
	rec := do(t, s, "/api/analyze?q=+++")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"not found", &service.AnalysisError{Stage: service.StageResolveIdentity, Kind: service.KindNotFound, Err: identify.ErrNotFound}, http.StatusNotFound, "not_found"},
		{"no subtitle", &service.AnalysisError{Stage: service.StageAcquireSubtitle, Kind: service.KindNoSubtitle, Err: errors.New("none")}, http.StatusNotFound, "no_subtitle"},
		{"segmentation", &service.AnalysisError{Stage: service.StageSegment, Kind: service.KindSegmentation, Err: errors.New("bad json")}, http.StatusBadGateway, "segmentation"},
		{"storage", &service.AnalysisError{Stage: service.StageValidateAndStore, Kind: service.KindStorage, Err: errors.New("disk full")}, http.StatusInternalServerError, "storage"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(&fakeAnalyzer{err: tt.err}, StatusInfo{})
			rec := do(t, s, "/api/analyze?q=x")
			require.Equal(t, tt.status, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			require.Equal(t, tt.kind, body["kind"])
			require.NotEmpty(t, body["error"])
		})
	}
}

func TestAutocomplete(t *testing.T) {
	s := NewServer(&fakeAnalyzer{}, StatusInfo{})

	rec := do(t, s, "/api/autocomplete?q=ma")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"results":[]}`, rec.Body.String())

	rec = do(t, s, "/api/autocomplete?q=matrix")
	var body AutocompleteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	require.Equal(t, "tt0133093", body.Results[0].CanonicalID)
}

func TestListMovies(t *testing.T) {
	fake := &fakeAnalyzer{analyses: []*library.Analysis{{
		CanonicalID:    "tt0133093",
		Movie:          library.Movie{Title: "The Matrix", Year: "1999"},
		Episodes:       make([]library.Episode, 4),
		SubtitleSource: library.SourceFallback,
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}}}
	s := NewServer(fake, StatusInfo{})

	rec := do(t, s, "/api/movies")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Movies []MovieSummary `json:"movies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Movies, 1)
	require.Equal(t, 4, body.Movies[0].EpisodeCount)
	require.Equal(t, library.SourceFallback, body.Movies[0].SubtitleSource)

	fake.listErr = errors.New("db down")
	rec = do(t, s, "/api/movies")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStatus(t *testing.T) {
	s := NewServer(&fakeAnalyzer{}, StatusInfo{Database: "sqlite", Offline: true, SubtitleSources: []string{"fixture"}})

	rec := do(t, s, "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status string     `json:"status"`
		Config StatusInfo `json:"config"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body.Status)
	require.True(t, body.Config.Offline)
	require.Equal(t, []string{"fixture"}, body.Config.SubtitleSources)
}

func TestRequestIDPropagates(t *testing.T) {
	fake := &fakeAnalyzer{result: &service.Result{Movie: library.Movie{CanonicalID: "tt0133093"}}}
	s := NewServer(fake, StatusInfo{})

	req := httptest.NewRequest(http.MethodGet, "/api/analyze?q=tt0133093", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	require.Equal(t, []string{"req-123"}, fake.requestIDs)

	rec = do(t, s, "/api/analyze?q=tt0133093")
	generated := rec.Header().Get("X-Request-ID")
	require.NotEmpty(t, generated)
	require.Equal(t, generated, fake.requestIDs[1])
}
