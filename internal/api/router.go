package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shapedtime/cinesplit/internal/identify"
	"github.com/shapedtime/cinesplit/internal/library"
	"github.com/shapedtime/cinesplit/internal/service"
)

// Analyzer is the service surface the API exposes
type Analyzer interface {
	Analyze(ctx context.Context, query string) (*service.Result, error)
	Autocomplete(ctx context.Context, prefix string) []identify.Candidate
	List(ctx context.Context) ([]*library.Analysis, error)
}

var _ Analyzer = (*service.AnalysisService)(nil)

// StatusInfo is reported by GET /api/status
type StatusInfo struct {
	Version         string   `json:"version"`
	Database        string   `json:"database"`
	Offline         bool     `json:"offline"`
	SubtitleSources []string `json:"subtitle_sources"`
	Languages       []string `json:"languages"`
	Model           string   `json:"model"`
}

// Server represents the REST API server
type Server struct {
	router   *gin.Engine
	analyzer Analyzer
	status   StatusInfo
	started  time.Time
	log      *slog.Logger
}

// NewServer creates a new API server
func NewServer(analyzer Analyzer, status StatusInfo) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router:   gin.New(),
		analyzer: analyzer,
		status:   status,
		started:  time.Now(),
		log:      slog.With("component", "api"),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	s.router.Use(s.requestLogger)

	// CORS for the web front-end
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, "+requestIDHeader)
		c.Header("Access-Control-Expose-Headers", requestIDHeader)

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	})
}

func (s *Server) setupRoutes() {
	api := s.router.Group("/api")

	api.GET("/analyze", s.analyze)
	api.GET("/autocomplete", s.autocomplete)
	api.GET("/movies", s.listMovies)
	api.GET("/status", s.getStatus)
}

// requestIDHeader carries the correlation id in both directions
const requestIDHeader = "X-Request-ID"

// requestLogger tags each request with an id, shared with the service
// through the request context, and logs the outcome.
func (s *Server) requestLogger(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" || len(id) > 64 {
		id = uuid.NewString()
	}
	c.Header(requestIDHeader, id)
	c.Request = c.Request.WithContext(service.WithRequestID(c.Request.Context(), id))

	start := time.Now()
	c.Next()

	level := slog.LevelInfo
	if c.Writer.Status() >= http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	s.log.Log(c.Request.Context(), level, "API request",
		"request_id", id,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Error response helper
func errorResponse(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}
