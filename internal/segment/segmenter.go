package segment

import (
	"context"
	"log/slog"

	"github.com/shapedtime/cinesplit/internal/library"
)

// Generator produces text for a prompt. Implemented by llm.Client.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Segmenter asks a text-generation backend to split a movie into episodes.
type Segmenter struct {
	gen Generator
	log *slog.Logger
}

// NewSegmenter creates a segmenter over a generation backend.
func NewSegmenter(gen Generator) *Segmenter {
	return &Segmenter{
		gen: gen,
		log: slog.With("component", "segmenter"),
	}
}

// Segment makes exactly one generation call. The result is parsed but not
// validated; see Validate.
func (s *Segmenter) Segment(ctx context.Context, text, finalTimestamp string) ([]library.Episode, error) {
	prompt := BuildPrompt(text, finalTimestamp)
	s.log.Debug("requesting segmentation", "prompt_bytes", len(prompt), "final_timestamp", finalTimestamp)

	response, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, &Error{Reason: "generation backend failed", Err: err}
	}

	episodes, err := Parse(response)
	if err != nil {
		s.log.Warn("could not parse segmentation response", "error", err, "response_bytes", len(response))
		return nil, err
	}

	s.log.Debug("segmentation parsed", "episodes", len(episodes))
	return episodes, nil
}
