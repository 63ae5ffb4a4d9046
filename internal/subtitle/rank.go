package subtitle

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/shapedtime/cinesplit/internal/opensubtitles"
	"github.com/shapedtime/cinesplit/internal/subdl"
)

var titleNormalizeRe = regexp.MustCompile(`[^a-z0-9]+`)

// pickOpenSubtitlesFile returns the most downloaded file in a preferred
// language.
func pickOpenSubtitlesFile(results []opensubtitles.SubtitleResult, preferred []string) (opensubtitles.SubtitleFile, string, bool) {
	ordered := append([]opensubtitles.SubtitleResult(nil), results...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Attributes.DownloadCount > ordered[j].Attributes.DownloadCount
	})

	for _, res := range ordered {
		if len(res.Attributes.Files) == 0 {
			continue
		}
		if len(preferred) > 0 && languageRank(res.Attributes.Language, preferred) < 0 {
			continue
		}
		return res.Attributes.Files[0], normalizeLanguage(res.Attributes.Language), true
	}
	return opensubtitles.SubtitleFile{}, "", false
}

type scoredSubDL struct {
	sub   subdl.Subtitle
	score float64
}

// rankSubDL orders SubDL candidates best first. Candidates outside the
// preferred languages are dropped.
func rankSubDL(subs []subdl.Subtitle, preferred []string, title string, year int) []subdl.Subtitle {
	wantTitle := normalizeTitle(title)
	wantYear := ""
	if year > 0 {
		wantYear = strconv.Itoa(year)
	}

	scored := make([]scoredSubDL, 0, len(subs))
	for _, sub := range subs {
		if sub.URL == "" {
			continue
		}
		lang := sub.LanguageCode
		if lang == "" {
			lang = sub.Language
		}
		rank := languageRank(lang, preferred)
		if len(preferred) > 0 && rank < 0 {
			continue
		}

		score := 0.0
		if rank >= 0 {
			score += float64(len(preferred)-rank) * 2
		}
		release := normalizeTitle(sub.ReleaseName)
		if wantTitle != "" && strings.Contains(release, wantTitle) {
			score += 2
		}
		if wantYear != "" && strings.Contains(sub.ReleaseName, wantYear) {
			score += 1.5
		}
		if sub.HI {
			score -= 0.5
		}
		if sub.FullSeason {
			score -= 3
		}
		scored = append(scored, scoredSubDL{sub: sub, score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	out := make([]subdl.Subtitle, len(scored))
	for i, s := range scored {
		out[i] = s.sub
	}
	return out
}

func normalizeTitle(s string) string {
	return titleNormalizeRe.ReplaceAllString(strings.ToLower(s), "")
}
