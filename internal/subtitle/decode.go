package subtitle

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	utf16LEBOM = []byte{0xFF, 0xFE}
	utf16BEBOM = []byte{0xFE, 0xFF}
)

// Decode converts a downloaded subtitle payload to UTF-8. Legacy single-byte
// files are assumed to be Windows-1254 for Turkish and Windows-1252 otherwise.
func Decode(content []byte, language string) string {
	switch {
	case bytes.HasPrefix(content, utf8BOM):
		return string(content[len(utf8BOM):])
	case bytes.HasPrefix(content, utf16LEBOM), bytes.HasPrefix(content, utf16BEBOM):
		return decodeWith(xunicode.UTF16(xunicode.LittleEndian, xunicode.UseBOM), content)
	case utf8.Valid(content):
		return string(content)
	}

	if normalizeLanguage(language) == "tr" {
		return decodeWith(charmap.Windows1254, content)
	}
	return decodeWith(charmap.Windows1252, content)
}

func decodeWith(enc encoding.Encoding, content []byte) string {
	out, err := enc.NewDecoder().Bytes(content)
	if err != nil {
		return string(content)
	}
	return string(bytes.TrimPrefix(out, utf8BOM))
}
