package subtitle

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "index cue markup and credit",
			in:   "1\n00:00:01,000 --> 00:00:03,000\n<i>Hello</i> world OpenSubtitles.org",
			want: "world",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
		{
			name: "dot separated cue and override block",
			in:   "2\n00:01:00.500 --> 00:01:02.000\n<font color=\"#ffffff\">Hey</font> there\n{\\an8}Up here",
			want: "Hey there Up here",
		},
		{
			name: "italic dialogue keeps its text",
			in:   "1\n00:00:01,000 --> 00:00:03,000\n<i>Neo, wake up.</i>\n\n2\n00:00:04,000 --> 00:00:06,000\n<i>The Matrix has you.</i>",
			want: "Neo, wake up. The Matrix has you.",
		},
		{
			name: "credit phrase split across lines is dialogue",
			in:   "1\n00:00:01,000 --> 00:00:03,000\nThe letter was translated\nby my brother.\n\n2\n00:10:00,000 --> 00:10:02,000\nWe leave at dawn.\n\n3\n01:00:00,000 --> 01:00:02,000\nThe ending dialogue.",
			want: "The letter was translated by my brother. We leave at dawn. The ending dialogue.",
		},
		{
			name: "credit inside tags drops the line",
			in:   "<i>Subtitles by</i> SomeTeam\nHello",
			want: "Hello",
		},
		{
			name: "stray tags keep their text",
			in:   "<b>unclosed text\nand a closing</i> tag",
			want: "unclosed text and a closing tag",
		},
		{
			name: "credit line dropped entirely",
			in:   "Subtitles by SomeTeam\n\nHello",
			want: "Hello",
		},
		{
			name: "line truncated at url",
			in:   "Visit www.example.com for more",
			want: "Visit",
		},
		{
			name: "whitespace and index numbers",
			in:   "- Hello,   world \r\n\r\n  \r\n 42 \r\n- Bye.",
			want: "- Hello, world - Bye.",
		},
		{
			name: "cue with position data",
			in:   "00:00:05,000 --> 00:00:06,000 X1:100 X2:200\nLine",
			want: "Line",
		},
		{
			name: "only noise",
			in:   "1\n00:00:01,000 --> 00:00:02,000\nSynced and corrected by someone",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	inputs := []string{
		"1\n00:00:01,000 --> 00:00:03,000\n<i>Hello</i> world OpenSubtitles.org",
		"a < b\nc > d",
		"<i>nested <b>bold</b> text</i> after",
		"12\n34\n56",
		"  Çok   güzel \n bir gün  ",
		"{\\an8}{\\pos(10,10)}Top line\n<font>x</font>",
		"<i>Neo, wake up.</i>\n<i>Follow the white rabbit.</i>",
	}
	for _, in := range inputs {
		once := Clean(in)
		require.Equal(t, once, Clean(once), "input %q", in)
	}
}

func TestFinalTimestamp(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:03,000\nHello\n\n" +
		"2\n02:16:10,000 --> 02:16:17,900\nThe end\n\n" +
		"3\n00:10:00,000 --> 00:10:02,000\nOut of order\n"
	require.Equal(t, "02:16:17", FinalTimestamp(raw))

	require.Equal(t, "00:00:09", FinalTimestamp("1\r\n00:00:01.000 --> 00:00:09.250\r\nHi\r\n"))
	require.Empty(t, FinalTimestamp("no cues at all"))
	require.Empty(t, FinalTimestamp(""))
}

func TestDecode(t *testing.T) {
	legacy := []byte{0x44, 0x6F, 0xF0, 0x72, 0x75}
	require.Equal(t, "Doğru", Decode(legacy, "tr"))
	require.Equal(t, "Doðru", Decode(legacy, "en"))

	require.Equal(t, "Hello", Decode([]byte("\xEF\xBB\xBFHello"), ""))
	require.Equal(t, "Hi", Decode([]byte{0xFF, 0xFE, 'H', 0x00, 'i', 0x00}, ""))
	require.Equal(t, "Güle güle", Decode([]byte("Güle güle"), "tr"))
}

func TestNormalizeLanguage(t *testing.T) {
	tests := map[string]string{
		"tr":      "tr",
		"TR":      "tr",
		"tur":     "tr",
		"english": "en",
		"en-US":   "en",
		"":        "",
	}
	for in, want := range tests {
		require.Equal(t, want, normalizeLanguage(in), in)
	}

	require.Equal(t, 0, languageRank("TR", []string{"tr", "en"}))
	require.Equal(t, 1, languageRank("English", []string{"tr", "en"}))
	require.Equal(t, -1, languageRank("de", []string{"tr", "en"}))
}
