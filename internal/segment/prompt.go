package segment

import (
	"strings"
)

// BuildPrompt assembles the single instruction sent to the model.
func BuildPrompt(text, finalTimestamp string) string {
	end := finalTimestamp
	if end == "" {
		end = "FINAL_TIMESTAMP"
	}

	var b strings.Builder
	b.WriteString(`You are an expert film editor and screenwriter. Split the following movie subtitles into a mini-series of narrative-driven episodes.

Guidelines:
1. Narrative arc: each episode must read as a complete chapter. Break at scene transitions, changes of location, emotional shifts, the end of a sub-plot or a cliffhanger moment.
2. Duration: aim for roughly 20-40 minutes per episode, but prefer a natural story break over exact timing.
3. Full coverage: the first episode starts at 00:00:00 and the last episode ends at the final timestamp. Each episode starts exactly where the previous one ends.
`)
	if finalTimestamp != "" {
		b.WriteString("   The final timestamp of this movie is " + finalTimestamp + ".\n")
	}
	b.WriteString(`4. Titles: give each episode a short, creative title based on its events.

Return ONLY a raw JSON array. No markdown, no code fences, no commentary. Timestamps use HH:MM:SS.

Format:
[
  {"episode": 1, "start": "00:00:00", "end": "HH:MM:SS", "title": "..."},
  {"episode": N, "start": "HH:MM:SS", "end": "`)
	b.WriteString(end)
	b.WriteString(`", "title": "..."}
]

Subtitles:
`)
	b.WriteString(text)
	b.WriteString("\n")
	return b.String()
}
