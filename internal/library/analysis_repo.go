package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// AnalysisRepository stores segmentation results keyed by canonical id.
// Records are write-once: PutIfAbsent never overwrites.
type AnalysisRepository struct {
	db *DB
}

// NewAnalysisRepository creates a new analysis repository
func NewAnalysisRepository(db *DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

const analysisColumns = `id, canonical_id, movie_info, episode_data, subtitle_source, created_at`

// scanner is an interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanAnalysis(s scanner) (*Analysis, error) {
	a := &Analysis{}
	var movieInfo, episodeData []byte
	if err := s.Scan(&a.ID, &a.CanonicalID, &movieInfo, &episodeData, &a.SubtitleSource, &a.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(movieInfo, &a.Movie); err != nil {
		return nil, fmt.Errorf("failed to decode movie info for %s: %w", a.CanonicalID, err)
	}
	if err := json.Unmarshal(episodeData, &a.Episodes); err != nil {
		return nil, fmt.Errorf("failed to decode episodes for %s: %w", a.CanonicalID, err)
	}
	return a, nil
}

// Get retrieves the analysis for a canonical id. Returns nil, nil when absent.
func (r *AnalysisRepository) Get(ctx context.Context, canonicalID string) (*Analysis, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE canonical_id = $1`,
		canonicalID,
	)
	a, err := scanAnalysis(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get analysis: %w", err)
	}
	return a, nil
}

// PutIfAbsent inserts the analysis unless one already exists for its
// canonical id. It returns the stored record and whether this call
// inserted it.
func (r *AnalysisRepository) PutIfAbsent(ctx context.Context, a *Analysis) (*Analysis, bool, error) {
	if strings.TrimSpace(a.CanonicalID) == "" {
		return nil, false, ErrMissingCanonicalID
	}
	if len(a.Episodes) == 0 {
		return nil, false, ErrEmptyAnalysis
	}

	movie := a.Movie
	movie.CanonicalID = a.CanonicalID
	movieInfo, err := json.Marshal(movie)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode movie info: %w", err)
	}
	episodeData, err := json.Marshal(a.Episodes)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode episodes: %w", err)
	}

	stored := &Analysis{
		CanonicalID:    a.CanonicalID,
		Movie:          movie,
		Episodes:       append([]Episode(nil), a.Episodes...),
		SubtitleSource: a.SubtitleSource,
	}
	err = r.db.QueryRowContext(ctx,
		`INSERT INTO analyses (canonical_id, title, movie_info, episode_data, subtitle_source)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (canonical_id) DO NOTHING
		 RETURNING id, created_at`,
		a.CanonicalID, nullString(movie.Title), string(movieInfo), string(episodeData), string(a.SubtitleSource),
	).Scan(&stored.ID, &stored.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		// Another writer got there first.
		existing, getErr := r.Get(ctx, a.CanonicalID)
		if getErr != nil {
			return nil, false, getErr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("analysis for %s vanished after conflict", a.CanonicalID)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to store analysis: %w", err)
	}

	return stored, true, nil
}

// List returns all stored analyses, newest first
func (r *AnalysisRepository) List(ctx context.Context) ([]*Analysis, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE title IS NOT NULL ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list analyses: %w", err)
	}
	defer rows.Close()

	var analyses []*Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		analyses = append(analyses, a)
	}

	return analyses, rows.Err()
}

// Count returns the number of stored analyses
func (r *AnalysisRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM analyses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count analyses: %w", err)
	}
	return n, nil
}

// nullString converts an empty string to sql.NullString for nullable columns
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
