package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shapedtime/cinesplit/internal/identify"
	"github.com/shapedtime/cinesplit/internal/library"
	"github.com/shapedtime/cinesplit/internal/metrics"
	"github.com/shapedtime/cinesplit/internal/segment"
	"github.com/shapedtime/cinesplit/internal/subtitle"
)

// Result sources
const (
	SourceDatabaseCache = "Database Cache"
	SourceNewAnalysis   = "New Analysis"
)

// IdentityResolver defines the identity operations needed by AnalysisService.
// Defined at point of use for minimal coupling.
type IdentityResolver interface {
	Resolve(ctx context.Context, query string) (*library.Movie, error)
	Autocomplete(ctx context.Context, prefix string) []identify.Candidate
}

// AnalysisStore is the write-once analysis cache.
type AnalysisStore interface {
	Get(ctx context.Context, canonicalID string) (*library.Analysis, error)
	PutIfAbsent(ctx context.Context, a *library.Analysis) (*library.Analysis, bool, error)
	List(ctx context.Context) ([]*library.Analysis, error)
}

// SubtitleAcquirer returns the first subtitle track any source can provide.
type SubtitleAcquirer interface {
	Acquire(ctx context.Context, movie *library.Movie) (*subtitle.Document, error)
}

// EpisodeSegmenter splits cleaned subtitle text into episodes.
type EpisodeSegmenter interface {
	Segment(ctx context.Context, text, finalTimestamp string) ([]library.Episode, error)
}

// Compile-time verification of the production implementations
var (
	_ IdentityResolver = (*identify.Resolver)(nil)
	_ AnalysisStore    = (*library.AnalysisRepository)(nil)
	_ SubtitleAcquirer = (*subtitle.Acquirer)(nil)
	_ EpisodeSegmenter = (*segment.Segmenter)(nil)
)

// Result is the outcome of a successful analysis.
type Result struct {
	Source         string                 `json:"source"`
	SubtitleSource library.SubtitleSource `json:"subtitle_source"`
	Episodes       []library.Episode      `json:"episodes"`
	Movie          library.Movie          `json:"movie_info"`
	CreatedAt      time.Time              `json:"created_at"`
}

// AnalysisService runs the analysis pipeline: resolve identity, check the
// cache, acquire a subtitle, normalize it, segment it, validate and store.
type AnalysisService struct {
	resolver  IdentityResolver
	store     AnalysisStore
	acquirer  SubtitleAcquirer
	segmenter EpisodeSegmenter
	metrics   *metrics.Metrics
	flights   singleflight.Group
	log       *slog.Logger
}

// NewAnalysisService creates a new AnalysisService. m may be nil.
func NewAnalysisService(
	resolver IdentityResolver,
	store AnalysisStore,
	acquirer SubtitleAcquirer,
	segmenter EpisodeSegmenter,
	m *metrics.Metrics,
) *AnalysisService {
	return &AnalysisService{
		resolver:  resolver,
		store:     store,
		acquirer:  acquirer,
		segmenter: segmenter,
		metrics:   m,
		log:       slog.With("component", "analysis-service"),
	}
}

// Analyze resolves a query to a movie and returns its episodes, computing
// and storing them on first request. Concurrent calls for the same movie
// share one pipeline run.
func (s *AnalysisService) Analyze(ctx context.Context, query string) (*Result, error) {
	log := s.log.With("request_id", RequestID(ctx))
	log.Info("analysis requested", "query", query)

	// 1. Resolve identity
	started := time.Now()
	movie, err := s.resolver.Resolve(ctx, query)
	s.metrics.ObserveStage(string(StageResolveIdentity), time.Since(started))
	if err != nil {
		return nil, s.fail(log, StageResolveIdentity, KindNotFound, err)
	}
	log = log.With("imdb_id", movie.CanonicalID)

	v, err, shared := s.flights.Do(movie.CanonicalID, func() (interface{}, error) {
		return s.analyzeMovie(ctx, log, movie)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		log.Debug("joined in-flight analysis")
	}

	result := *v.(*Result)
	result.Episodes = append([]library.Episode(nil), result.Episodes...)
	if result.Source == SourceDatabaseCache {
		s.metrics.RecordOutcome("cache_hit")
	} else {
		s.metrics.RecordOutcome("new")
	}
	return &result, nil
}

func (s *AnalysisService) analyzeMovie(ctx context.Context, log *slog.Logger, movie *library.Movie) (*Result, error) {
	// 2. Cache check
	started := time.Now()
	existing, err := s.store.Get(ctx, movie.CanonicalID)
	s.metrics.ObserveStage(string(StageCacheCheck), time.Since(started))
	if err != nil {
		return nil, s.fail(log, StageCacheCheck, KindStorage, err)
	}
	if existing != nil {
		log.Info("analysis served from cache")
		return resultFrom(existing, movie, SourceDatabaseCache), nil
	}

	defer s.metrics.TrackInFlight()()

	// 3. Acquire subtitle
	started = time.Now()
	doc, err := s.acquirer.Acquire(ctx, movie)
	s.metrics.ObserveStage(string(StageAcquireSubtitle), time.Since(started))
	if err != nil {
		return nil, s.fail(log, StageAcquireSubtitle, KindNoSubtitle, err)
	}
	s.metrics.RecordSubtitle(string(doc.Source))

	// 4. Normalize
	doc.Cleaned = subtitle.Clean(doc.Raw)
	if doc.Cleaned == "" {
		return nil, s.fail(log, StageNormalize, KindNoSubtitle,
			fmt.Errorf("%w: %s subtitle has no dialogue", subtitle.ErrNoSubtitleFound, doc.Source))
	}
	log.Debug("subtitle normalized",
		"source", doc.Source,
		"raw_bytes", len(doc.Raw),
		"clean_bytes", len(doc.Cleaned),
		"final_timestamp", doc.FinalTimestamp,
	)

	// 5. Segment
	started = time.Now()
	episodes, err := s.segmenter.Segment(ctx, doc.Cleaned, doc.FinalTimestamp)
	s.metrics.ObserveStage(string(StageSegment), time.Since(started))
	if err != nil {
		return nil, s.fail(log, StageSegment, KindSegmentation, err)
	}

	// 6. Validate and store
	if err := segment.Validate(episodes, doc.FinalTimestamp); err != nil {
		return nil, s.fail(log, StageValidateAndStore, KindSegmentation, err)
	}

	stored, inserted, err := s.store.PutIfAbsent(ctx, &library.Analysis{
		CanonicalID:    movie.CanonicalID,
		Movie:          *movie,
		Episodes:       episodes,
		SubtitleSource: doc.Source,
	})
	if err != nil {
		return nil, s.fail(log, StageValidateAndStore, KindStorage, err)
	}

	if !inserted {
		log.Info("analysis already stored by another writer, returning stored result")
		return resultFrom(stored, movie, SourceDatabaseCache), nil
	}

	log.Info("analysis stored", "episodes", len(stored.Episodes), "subtitle_source", stored.SubtitleSource)
	return resultFrom(stored, movie, SourceNewAnalysis), nil
}

func (s *AnalysisService) fail(log *slog.Logger, stage Stage, kind Kind, err error) error {
	s.metrics.RecordFailure(string(stage), string(kind))
	log.Warn("analysis failed", "stage", stage, "kind", kind, "error", err)
	return &AnalysisError{Stage: stage, Kind: kind, Err: err}
}

// resultFrom builds a Result from a stored analysis. Fresh metadata wins
// over the stored snapshot when the snapshot lacks it.
func resultFrom(a *library.Analysis, fresh *library.Movie, source string) *Result {
	movie := a.Movie
	if !movie.HasMetadata() && fresh.HasMetadata() {
		movie = *fresh
	}
	movie.CanonicalID = a.CanonicalID

	return &Result{
		Source:         source,
		SubtitleSource: a.SubtitleSource,
		Episodes:       a.Episodes,
		Movie:          movie,
		CreatedAt:      a.CreatedAt,
	}
}

// Autocomplete returns title suggestions for a search prefix.
func (s *AnalysisService) Autocomplete(ctx context.Context, prefix string) []identify.Candidate {
	s.metrics.RecordAutocomplete()
	return s.resolver.Autocomplete(ctx, prefix)
}

// List returns stored analyses, newest first.
func (s *AnalysisService) List(ctx context.Context) ([]*library.Analysis, error) {
	analyses, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	return analyses, nil
}

// IsKind reports whether err is an AnalysisError of the given kind.
func IsKind(err error, kind Kind) bool {
	var ae *AnalysisError
	return errors.As(err, &ae) && ae.Kind == kind
}
