package segment

import (
	"encoding/json"
	"strings"

	"github.com/shapedtime/cinesplit/internal/library"
)

// fenceMarkers are stripped from model output before decoding.
var fenceMarkers = []string{"```json", "```JSON", "```"}

// Parse decodes a model response into episodes.
func Parse(response string) ([]library.Episode, error) {
	cleaned := response
	for _, m := range fenceMarkers {
		cleaned = strings.ReplaceAll(cleaned, m, "")
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return nil, &Error{Reason: "empty response", Response: response}
	}

	var episodes []library.Episode
	if err := json.Unmarshal([]byte(cleaned), &episodes); err != nil {
		return nil, &Error{Reason: "response is not a JSON episode array", Response: response, Err: err}
	}
	return episodes, nil
}
