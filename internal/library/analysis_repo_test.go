package library

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *AnalysisRepository {
	t.Helper()
	db, err := NewDB(DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAnalysisRepository(db)
}

func sampleAnalysis(id string) *Analysis {
	return &Analysis{
		CanonicalID: id,
		Movie: Movie{
			Title: "The Matrix",
			Year:  "1999",
			Genre: "Action, Sci-Fi",
		},
		Episodes: []Episode{
			{Episode: 1, Start: "00:00:00", End: "00:31:10", Title: "Follow the White Rabbit"},
			{Episode: 2, Start: "00:31:10", End: "01:02:45", Title: "The Construct"},
			{Episode: 3, Start: "01:02:45", End: "02:16:17", Title: "The One"},
		},
		SubtitleSource: SourcePrimary,
	}
}

func TestAnalysisRepositoryGetAbsent(t *testing.T) {
	repo := newTestRepo(t)

	got, err := repo.Get(context.Background(), "tt0000001")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestAnalysisRepositoryPutIfAbsent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	stored, inserted, err := repo.PutIfAbsent(ctx, sampleAnalysis("tt0133093"))
	require.NoError(t, err)
	require.True(t, inserted)
	require.NotZero(t, stored.ID)
	require.Equal(t, "tt0133093", stored.Movie.CanonicalID)

	got, err := repo.Get(ctx, "tt0133093")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, stored.ID, got.ID)
	require.Equal(t, "The Matrix", got.Movie.Title)
	require.Equal(t, SourcePrimary, got.SubtitleSource)
	require.Len(t, got.Episodes, 3)
	require.Equal(t, "The One", got.Episodes[2].Title)

	// A second write for the same id never replaces the first.
	other := sampleAnalysis("tt0133093")
	other.Episodes = []Episode{{Episode: 1, Start: "00:00:00", End: "02:16:17", Title: "Everything"}}
	other.SubtitleSource = SourceFallback

	again, inserted, err := repo.PutIfAbsent(ctx, other)
	require.NoError(t, err)
	require.False(t, inserted)
	require.Equal(t, stored.ID, again.ID)
	require.Len(t, again.Episodes, 3)
	require.Equal(t, SourcePrimary, again.SubtitleSource)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestAnalysisRepositoryRejectsEmpty(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	empty := sampleAnalysis("tt0133093")
	empty.Episodes = nil
	_, _, err := repo.PutIfAbsent(ctx, empty)
	require.ErrorIs(t, err, ErrEmptyAnalysis)

	noID := sampleAnalysis("")
	_, _, err = repo.PutIfAbsent(ctx, noID)
	require.ErrorIs(t, err, ErrMissingCanonicalID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestAnalysisRepositoryConcurrentWriters(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	const writers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		inserted int
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := repo.PutIfAbsent(ctx, sampleAnalysis("tt0133093"))
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				inserted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, inserted)
}

func TestAnalysisRepositoryList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, _, err := repo.PutIfAbsent(ctx, sampleAnalysis("tt0133093"))
	require.NoError(t, err)

	untitled := sampleAnalysis("tt0234215")
	untitled.Movie = Movie{}
	_, _, err = repo.PutIfAbsent(ctx, untitled)
	require.NoError(t, err)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "tt0133093", list[0].CanonicalID)
}

func TestNewDBUnsupportedDriver(t *testing.T) {
	_, err := NewDB("mysql", "whatever")
	require.ErrorIs(t, err, ErrUnsupportedDatabase)
}

func TestLoadMigrations(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverPostgres} {
		migrations, err := loadMigrations(driver)
		require.NoError(t, err, driver)
		require.NotEmpty(t, migrations, driver)
		require.Equal(t, 1, migrations[0].version, driver)
		for i := 1; i < len(migrations); i++ {
			require.Less(t, migrations[i-1].version, migrations[i].version, driver)
		}
	}

	_, err := loadMigrations("mysql")
	require.Error(t, err)
}

func TestMigrateIsRepeatable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := NewDB(DriverSQLite, dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = NewDB(DriverSQLite, dbPath)
	require.NoError(t, err)
	defer db.Close()

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&applied))
	require.Equal(t, 1, applied)
}
