package segment

import (
	"strings"
	"time"

	"github.com/shapedtime/cinesplit/internal/common"
	"github.com/shapedtime/cinesplit/internal/library"
)

// Validate checks that episodes tile the movie from 00:00:00 to the final
// timestamp without gaps or overlaps. An empty finalTimestamp skips the
// last-end check.
func Validate(episodes []library.Episode, finalTimestamp string) error {
	if len(episodes) == 0 {
		return invalid("no episodes")
	}

	var prevEnd time.Duration
	for i, ep := range episodes {
		if ep.Episode != i+1 {
			return invalid("episode %d has ordinal %d", i+1, ep.Episode)
		}
		if strings.TrimSpace(ep.Title) == "" {
			return invalid("episode %d has no title", ep.Episode)
		}

		start, err := common.ParseClock(ep.Start)
		if err != nil {
			return invalid("episode %d start: %v", ep.Episode, err)
		}
		end, err := common.ParseClock(ep.End)
		if err != nil {
			return invalid("episode %d end: %v", ep.Episode, err)
		}

		if i == 0 && start != 0 {
			return invalid("first episode starts at %s, want 00:00:00", ep.Start)
		}
		if i > 0 && start != prevEnd {
			return invalid("episode %d starts at %s but episode %d ends at %s",
				ep.Episode, ep.Start, i, episodes[i-1].End)
		}
		if start >= end {
			return invalid("episode %d ends at %s, not after its start %s", ep.Episode, ep.End, ep.Start)
		}
		prevEnd = end
	}

	if finalTimestamp != "" {
		want, err := common.ParseClock(finalTimestamp)
		if err != nil {
			return invalid("final timestamp: %v", err)
		}
		if prevEnd != want {
			return invalid("last episode ends at %s, want %s", episodes[len(episodes)-1].End, finalTimestamp)
		}
	}

	return nil
}
