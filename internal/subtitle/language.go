package subtitle

import (
	"strings"

	"golang.org/x/text/language"
)

// languageNames covers the English names some providers return instead of codes
var languageNames = map[string]string{
	"english":    "en",
	"turkish":    "tr",
	"german":     "de",
	"french":     "fr",
	"spanish":    "es",
	"italian":    "it",
	"russian":    "ru",
	"portuguese": "pt",
}

// normalizeLanguage maps a provider language label to its ISO 639-1 base
// code. Unknown labels are returned lower-cased.
func normalizeLanguage(label string) string {
	label = strings.ToLower(strings.TrimSpace(label))
	if label == "" {
		return ""
	}
	if code, ok := languageNames[label]; ok {
		return code
	}
	tag, err := language.Parse(label)
	if err != nil {
		return label
	}
	base, _ := tag.Base()
	return base.String()
}

// languageRank returns the position of label in the preference list, or -1.
func languageRank(label string, preferred []string) int {
	code := normalizeLanguage(label)
	for i, p := range preferred {
		if normalizeLanguage(p) == code {
			return i
		}
	}
	return -1
}
