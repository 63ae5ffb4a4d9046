package subtitle

import (
	"strconv"
	"strings"
	"time"

	"github.com/shapedtime/cinesplit/internal/common"
)

// FinalTimestamp returns the latest cue end time in raw subtitle text as
// HH:MM:SS, or "" when the text has no cue lines.
func FinalTimestamp(raw string) string {
	var (
		last  time.Duration
		found bool
	)
	for _, line := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		m := cueLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		end := clockFields(m[5], m[6], m[7])
		if !found || end > last {
			last = end
			found = true
		}
	}
	if !found {
		return ""
	}
	return common.FormatClock(last)
}

func clockFields(h, m, s string) time.Duration {
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	seconds, _ := strconv.Atoi(s)
	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second
}
