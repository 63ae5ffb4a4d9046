package metacache

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/shapedtime/cinesplit/internal/library"
)

// ErrMiss is returned when no fresh entry exists for a key.
var ErrMiss = errors.New("metadata cache miss")

const keyPrefix = "movie:"

// Store keeps movie metadata lookups in Badger. Entries expire after the
// configured TTL.
type Store struct {
	ttl time.Duration
	db  *badger.DB
}

// badgerLogger routes Badger's printf-style logging into slog. Badger's
// info chatter is demoted to debug.
type badgerLogger struct {
	log *slog.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{}) { l.emit(slog.LevelError, f, v) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.emit(slog.LevelWarn, f, v) }
func (l badgerLogger) Infof(f string, v ...interface{}) { l.emit(slog.LevelDebug, f, v) }
func (l badgerLogger) Debugf(f string, v ...interface{}) { l.emit(slog.LevelDebug, f, v) }

func (l badgerLogger) emit(level slog.Level, f string, v []interface{}) {
	if !l.log.Enabled(context.Background(), level) {
		return
	}
	l.log.Log(context.Background(), level, strings.TrimSpace(fmt.Sprintf(f, v...)))
}

// Open creates a metadata cache persisted under path.
func Open(path string, ttl time.Duration) (*Store, error) {
	opts := badger.DefaultOptions(path).
		WithValueLogFileSize(1<<26 - 1)
	return open(opts, ttl)
}

// OpenInMemory creates a metadata cache that lives only as long as the process.
func OpenInMemory(ttl time.Duration) (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true), ttl)
}

func open(opts badger.Options, ttl time.Duration) (*Store, error) {
	log := slog.With("component", "metadata-cache")

	db, err := badger.Open(opts.WithLogger(badgerLogger{log: log}))
	if err != nil {
		return nil, err
	}

	if !opts.InMemory {
		err = db.RunValueLogGC(0.5)
		if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
			db.Close()
			return nil, err
		}
	}

	return &Store{
		db:  db,
		ttl: ttl,
	}, nil
}

// Put stores movie metadata under its canonical id.
func (s *Store) Put(movie *library.Movie) error {
	if movie == nil || movie.CanonicalID == "" {
		return errors.New("movie has no canonical id")
	}

	var value bytes.Buffer
	if err := gob.NewEncoder(&value).Encode(movie); err != nil {
		return err
	}

	return s.db.Update(func(tx *badger.Txn) error {
		e := badger.NewEntry([]byte(keyPrefix+movie.CanonicalID), value.Bytes())
		if s.ttl > 0 {
			e = e.WithTTL(s.ttl)
		}
		return tx.SetEntry(e)
	})
}

// Get returns cached metadata for a canonical id, or ErrMiss.
func (s *Store) Get(canonicalID string) (*library.Movie, error) {
	tx := s.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get([]byte(keyPrefix + canonicalID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var movie library.Movie
	err = item.Value(func(val []byte) error {
		return gob.NewDecoder(bytes.NewReader(val)).Decode(&movie)
	})
	if err != nil {
		return nil, fmt.Errorf("decode cached %s: %w", canonicalID, err)
	}
	return &movie, nil
}

// Close shuts down the Badger database.
func (s *Store) Close() error {
	return s.db.Close()
}
