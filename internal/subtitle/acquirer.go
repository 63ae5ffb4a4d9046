package subtitle

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/shapedtime/cinesplit/internal/library"
)

var (
	// ErrNoSubtitleFound is returned when every tier came back empty.
	ErrNoSubtitleFound = errors.New("no subtitle found")

	// ErrTransport marks a failed tier. It never escapes the acquirer.
	ErrTransport = errors.New("subtitle source failed")
)

// Document is an acquired subtitle track.
type Document struct {
	Source library.SubtitleSource
	Raw    string
	// Cleaned is filled in by the normalize step.
	Cleaned string
	// FinalTimestamp is the last cue end as HH:MM:SS, empty if unknown.
	FinalTimestamp string
}

// Acquirer tries subtitle sources in order and returns the first
// non-empty track.
type Acquirer struct {
	sources []Source
	log     *slog.Logger
}

// NewAcquirer builds the tier list. In offline mode only the fixture file
// is consulted and the network tiers are ignored.
func NewAcquirer(offline bool, fixturePath string, network ...Source) *Acquirer {
	sources := network
	if offline {
		sources = []Source{NewFixtureSource(fixturePath)}
	}
	return &Acquirer{
		sources: sources,
		log:     slog.With("component", "subtitle-acquirer"),
	}
}

// Sources returns the tier names in the order they are tried.
func (a *Acquirer) Sources() []library.SubtitleSource {
	names := make([]library.SubtitleSource, len(a.sources))
	for i, s := range a.sources {
		names[i] = s.Name()
	}
	return names
}

// Acquire returns the first non-empty subtitle track for a movie.
func (a *Acquirer) Acquire(ctx context.Context, movie *library.Movie) (*Document, error) {
	for _, src := range a.sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := src.Fetch(ctx, movie)
		if err != nil {
			a.log.Warn("subtitle source failed", "source", src.Name(), "imdb_id", movie.CanonicalID, "error", err)
			continue
		}
		if strings.TrimSpace(raw) == "" {
			a.log.Info("subtitle source had no result", "source", src.Name(), "imdb_id", movie.CanonicalID)
			continue
		}

		a.log.Info("subtitle acquired", "source", src.Name(), "imdb_id", movie.CanonicalID, "bytes", len(raw))
		return &Document{
			Source:         src.Name(),
			Raw:            raw,
			FinalTimestamp: FinalTimestamp(raw),
		}, nil
	}

	return nil, ErrNoSubtitleFound
}
