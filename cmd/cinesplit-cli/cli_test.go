package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shapedtime/cinesplit/internal/library"
)

const sampleSRT = "1\n00:00:01,000 --> 00:00:04,000\nWake up, Neo.\n\n" +
	"2\n00:59:58,000 --> 01:00:00,000\n<i>Knock, knock.</i> Follow the white rabbit.\n"

func writeTestConfig(t *testing.T, dir, llmURL string) string {
	t.Helper()
	cfg := fmt.Sprintf(`logging:
  level: error
database:
  path: %s
metadata_cache:
  enabled: false
llm:
  api_key: test
  base_url: %s
`, filepath.Join(dir, "cinesplit.db"), llmURL)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return out.String(), err
}

func fakeLLM(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "gemini-2.5-flash",
			"choices": []map[string]interface{}{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]interface{}{"role": "assistant", "content": content},
			}},
		}))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRenderEpisodes(t *testing.T) {
	out := renderEpisodes([]library.Episode{
		{Episode: 1, Start: "00:00:00", End: "00:30:00", Title: "Wake Up"},
		{Episode: 2, Start: "00:30:00", End: "01:00:00", Title: "The Rabbit Hole"},
	})
	assert.Contains(t, out, "Wake Up")
	assert.Contains(t, out, "01:00:00")
	assert.True(t, strings.HasPrefix(out, "╭"), "expected rounded style, got %q", out)
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]string{"A", "B"}, [][]string{{"only"}}, nil)
	assert.Contains(t, out, "only")
	assert.Empty(t, renderTable(nil, nil, nil))
}

func TestSplitCommand(t *testing.T) {
	dir := t.TempDir()
	srv := fakeLLM(t, "```json\n["+
		`{"episode":1,"start":"00:00:00","end":"00:30:00","title":"Wake Up"},`+
		`{"episode":2,"start":"00:30:00","end":"01:00:00","title":"The Rabbit Hole"}`+
		"]\n```")
	configPath := writeTestConfig(t, dir, srv.URL)

	srt := filepath.Join(dir, "movie.srt")
	require.NoError(t, os.WriteFile(srt, []byte(sampleSRT), 0o644))

	out, err := runCLI(t, "--config", configPath, "split", srt)
	require.NoError(t, err)
	assert.Contains(t, out, "The Rabbit Hole")
	assert.Contains(t, out, "2 episodes, final timestamp 01:00:00")
}

func TestSplitCommandRejectsInvalidEpisodes(t *testing.T) {
	dir := t.TempDir()
	// Ends before the final timestamp.
	srv := fakeLLM(t, `[{"episode":1,"start":"00:00:00","end":"00:10:00","title":"Too Short"}]`)
	configPath := writeTestConfig(t, dir, srv.URL)

	srt := filepath.Join(dir, "movie.srt")
	require.NoError(t, os.WriteFile(srt, []byte(sampleSRT), 0o644))

	_, err := runCLI(t, "--config", configPath, "split", srt)
	require.Error(t, err)
}

func TestSplitCommandMissingFile(t *testing.T) {
	_, err := runCLI(t, "split", filepath.Join(t.TempDir(), "missing.srt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read subtitle")
}

func TestListCommandEmpty(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir(), "http://127.0.0.1:0/")

	out, err := runCLI(t, "--config", configPath, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No analyses stored")
}

func TestAutocompleteShortPrefix(t *testing.T) {
	configPath := writeTestConfig(t, t.TempDir(), "http://127.0.0.1:0/")

	out, err := runCLI(t, "--config", configPath, "autocomplete", "ma")
	require.NoError(t, err)
	assert.Contains(t, out, "No matches")
}

func TestAnalyzeRequiresQuery(t *testing.T) {
	_, err := runCLI(t, "analyze")
	require.Error(t, err)
}
