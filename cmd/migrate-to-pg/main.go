package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/shapedtime/cinesplit/internal/app"
	"github.com/shapedtime/cinesplit/internal/library"
)

const analysisColumns = "id, canonical_id, title, movie_info, episode_data, subtitle_source, created_at"

func main() {
	sqlitePath := flag.String("sqlite-path", "", "Path to SQLite database file")
	pgURL := flag.String("pg-url", "", "PostgreSQL connection URL")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	if *sqlitePath == "" || *pgURL == "" {
		fmt.Fprintf(os.Stderr, "Usage: migrate-to-pg --sqlite-path /path/to/cinesplit.db --pg-url postgres://...\n")
		os.Exit(1)
	}

	slog.SetDefault(app.NewLogger(os.Stdout, *logLevel))

	if err := run(context.Background(), *sqlitePath, *pgURL); err != nil {
		slog.Error("Migration failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Migration completed successfully")
}

func run(ctx context.Context, sqlitePath, pgURL string) error {
	if _, err := os.Stat(sqlitePath); err != nil {
		return fmt.Errorf("sqlite database: %w", err)
	}

	src, err := library.NewDB(library.DriverSQLite, sqlitePath)
	if err != nil {
		return fmt.Errorf("failed to open SQLite: %w", err)
	}
	defer src.Close()
	slog.Info("Connected to SQLite", "path", sqlitePath)

	// Opening through the library applies the postgres schema.
	dst, err := library.NewDB(library.DriverPostgres, pgURL)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL: %w", err)
	}
	defer dst.Close()
	slog.Info("Connected to PostgreSQL")

	tx, err := dst.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	// Truncate for idempotent re-runs
	if _, err := tx.ExecContext(ctx, "TRUNCATE TABLE analyses"); err != nil {
		return fmt.Errorf("failed to truncate analyses: %w", err)
	}

	count, err := copyAnalyses(ctx, src.DB, tx)
	if err != nil {
		return err
	}
	slog.Info("Migrated analyses", "rows", count)

	_, err = tx.ExecContext(ctx,
		"SELECT setval('analyses_id_seq', COALESCE((SELECT MAX(id) FROM analyses), 1), (SELECT COUNT(*) > 0 FROM analyses))",
	)
	if err != nil {
		return fmt.Errorf("failed to reset sequence: %w", err)
	}

	var srcCount, dstCount int64
	if err := src.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses").Scan(&srcCount); err != nil {
		return fmt.Errorf("failed to count SQLite rows: %w", err)
	}
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM analyses").Scan(&dstCount); err != nil {
		return fmt.Errorf("failed to count PG rows: %w", err)
	}
	if srcCount != dstCount {
		return fmt.Errorf("row count mismatch: SQLite=%d, PG=%d", srcCount, dstCount)
	}
	slog.Info("Verified analyses", "rows", srcCount)

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func copyAnalyses(ctx context.Context, src *sql.DB, tx *sql.Tx) (int64, error) {
	rows, err := src.QueryContext(ctx, "SELECT "+analysisColumns+" FROM analyses ORDER BY id")
	if err != nil {
		return 0, fmt.Errorf("failed to query SQLite: %w", err)
	}
	defer rows.Close()

	// OVERRIDING SYSTEM VALUE keeps the original ids
	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO analyses ("+analysisColumns+") OVERRIDING SYSTEM VALUE VALUES ($1, $2, $3, $4, $5, $6, $7)",
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var count int64
	for rows.Next() {
		var (
			id                     int64
			canonicalID, source    string
			title                  sql.NullString
			movieInfo, episodeData string
			createdAt              sql.NullTime
		)
		if err := rows.Scan(&id, &canonicalID, &title, &movieInfo, &episodeData, &source, &createdAt); err != nil {
			return 0, fmt.Errorf("failed to scan row: %w", err)
		}
		if !createdAt.Valid {
			createdAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
		}

		if _, err := stmt.ExecContext(ctx, id, canonicalID, title, movieInfo, episodeData, source, createdAt.Time); err != nil {
			return 0, fmt.Errorf("failed to insert %s: %w", canonicalID, err)
		}
		count++
		slog.Debug("Copied analysis", "canonical_id", canonicalID, "id", id)
	}

	return count, rows.Err()
}
