package subtitle

import (
	"regexp"
	"strings"
)

var (
	cueLinePattern  = regexp.MustCompile(`^\s*(\d+):(\d{2}):(\d{2})[,.](\d{1,3})\s*-->\s*(\d+):(\d{2}):(\d{2})[,.](\d{1,3})`)
	openTagPattern  = regexp.MustCompile(`<([a-zA-Z][a-zA-Z0-9]*)\b[^>]*>`)
	strayTagPattern = regexp.MustCompile(`<[^>]*>`)
	overridePattern = regexp.MustCompile(`\{\\[^}]*\}`)
	whitespace      = regexp.MustCompile(`\s+`)

	leftoverMarkup = strings.NewReplacer("<", "", ">", "", "{", "", "}", "")
)

// noisePattern matches uploader credits and advertisements. Everything from
// the match to the end of the line is dropped.
var noisePattern = regexp.MustCompile(`(?i)` + strings.Join([]string{
	`opensubtitles`,
	`subtitles? by`,
	`subs by`,
	`synced? (and|&) corrected`,
	`translated by`,
	`ripped by`,
	`downloaded from`,
	`advertise (your|yours?) product`,
	`support us and become vip`,
	`http(s)?://`,
	`\bwww\.`,
	`\bsubscene\b`,
	`\byts\b`,
	`\byify\b`,
	`çeviri`,
	`altyazı`,
}, "|"))

// Clean turns raw subtitle text into plain dialogue on a single line.
// Cue timing lines, index numbers, markup and credit lines are removed and
// whitespace is collapsed. Every rule applies to one source line; lines are
// joined only once all of them are clean.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")

	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		if cueLinePattern.MatchString(line) {
			continue
		}
		for {
			next := cleanLine(line)
			if next == line {
				break
			}
			line = next
		}
		if line == "" || isDigits(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, " ")
}

// cleanLine strips markup from one source line, keeping tagged text. On a
// credit line the paired spans go with their text and the line is cut at the
// credit; a line whose only credit sits inside a tag is dropped.
func cleanLine(line string) string {
	plain := stripMarkup(line)
	if !noisePattern.MatchString(plain) {
		return plain
	}
	cut := stripMarkup(stripPairedTags(line))
	if loc := noisePattern.FindStringIndex(cut); loc != nil {
		return strings.TrimSpace(cut[:loc[0]])
	}
	return ""
}

// stripMarkup removes tags and override blocks, then any bracket left over
// so that joined lines cannot form a new tag.
func stripMarkup(line string) string {
	line = strayTagPattern.ReplaceAllString(line, "")
	line = overridePattern.ReplaceAllString(line, "")
	line = leftoverMarkup.Replace(line)
	return strings.TrimSpace(whitespace.ReplaceAllString(line, " "))
}

// stripPairedTags removes <tag>...</tag> spans, content included, when both
// ends sit on the same line. Unmatched tags are left for stripMarkup.
func stripPairedTags(line string) string {
	from := 0
	for from < len(line) {
		loc := openTagPattern.FindStringSubmatchIndex(line[from:])
		if loc == nil {
			break
		}
		start, end := from+loc[0], from+loc[1]
		name := line[from+loc[2] : from+loc[3]]

		rest := line[end:]
		idx := indexFold(rest, "</"+name)
		if idx < 0 {
			from = end
			continue
		}
		closeEnd := strings.IndexByte(rest[idx:], '>')
		if closeEnd < 0 {
			from = end
			continue
		}
		line = line[:start] + line[end+idx+closeEnd+1:]
		from = start
	}
	return line
}

// indexFold is a case-insensitive strings.Index for an ASCII needle.
func indexFold(s, needle string) int {
	for i := 0; i+len(needle) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
