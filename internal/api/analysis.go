package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shapedtime/cinesplit/internal/identify"
	"github.com/shapedtime/cinesplit/internal/library"
	"github.com/shapedtime/cinesplit/internal/service"
)

// MovieSummary is one entry of GET /api/movies
type MovieSummary struct {
	IMDBID         string                 `json:"imdb_id"`
	Title          string                 `json:"title"`
	Year           string                 `json:"year,omitempty"`
	PosterURL      string                 `json:"poster,omitempty"`
	Rating         string                 `json:"imdb_rating,omitempty"`
	EpisodeCount   int                    `json:"episode_count"`
	SubtitleSource library.SubtitleSource `json:"subtitle_source"`
	CreatedAt      time.Time              `json:"created_at"`
}

// AutocompleteResponse is returned by GET /api/autocomplete
type AutocompleteResponse struct {
	Results []identify.Candidate `json:"results"`
}

func (s *Server) analyze(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		query = strings.TrimSpace(c.Query("imdb_id"))
	}
	if query == "" {
		errorResponse(c, http.StatusBadRequest, "query parameter q is required")
		return
	}

	result, err := s.analyzer.Analyze(c.Request.Context(), query)
	if err != nil {
		status, kind := classify(err)
		if status >= http.StatusInternalServerError {
			s.log.Error("analysis failed", "query", query, "kind", kind, "error", err)
		}
		c.JSON(status, gin.H{"error": err.Error(), "kind": kind})
		return
	}

	c.JSON(http.StatusOK, result)
}

// classify maps a pipeline error to an HTTP status and kind
func classify(err error) (int, string) {
	var ae *service.AnalysisError
	if !errors.As(err, &ae) {
		return http.StatusInternalServerError, "internal"
	}
	switch ae.Kind {
	case service.KindNotFound, service.KindNoSubtitle:
		return http.StatusNotFound, string(ae.Kind)
	case service.KindSegmentation:
		return http.StatusBadGateway, string(ae.Kind)
	default:
		return http.StatusInternalServerError, string(ae.Kind)
	}
}

func (s *Server) autocomplete(c *gin.Context) {
	results := s.analyzer.Autocomplete(c.Request.Context(), c.Query("q"))
	if results == nil {
		results = []identify.Candidate{}
	}
	c.JSON(http.StatusOK, AutocompleteResponse{Results: results})
}

func (s *Server) listMovies(c *gin.Context) {
	analyses, err := s.analyzer.List(c.Request.Context())
	if err != nil {
		s.log.Error("failed to list analyses", "error", err)
		errorResponse(c, http.StatusInternalServerError, "failed to list movies")
		return
	}

	movies := make([]MovieSummary, 0, len(analyses))
	for _, a := range analyses {
		movies = append(movies, MovieSummary{
			IMDBID:         a.CanonicalID,
			Title:          a.Movie.DisplayTitle(),
			Year:           a.Movie.Year,
			PosterURL:      a.Movie.PosterURL,
			Rating:         a.Movie.Rating,
			EpisodeCount:   len(a.Episodes),
			SubtitleSource: a.SubtitleSource,
			CreatedAt:      a.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"movies": movies})
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"config":         s.status,
	})
}
