package file

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Byte order marks.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// decodeText converts raw bytes to UTF-8 and reports the detected charset.
// A BOM selects UTF-8 or UTF-16; otherwise valid UTF-8 is kept and anything
// else is read as Windows-1252.
func decodeText(raw []byte) (string, string, error) {
	switch {
	case bytes.HasPrefix(raw, bomUTF8):
		return string(raw[len(bomUTF8):]), "utf-8", nil
	case bytes.HasPrefix(raw, bomUTF16LE):
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), raw, "utf-16le")
	case bytes.HasPrefix(raw, bomUTF16BE):
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), raw, "utf-16be")
	case utf8.Valid(raw):
		return string(raw), "utf-8", nil
	default:
		return decodeWith(charmap.Windows1252, raw, "windows-1252")
	}
}

func decodeWith(enc encoding.Encoding, raw []byte, name string) (string, string, error) {
	out, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", "", fmt.Errorf("decode %s: %w", name, err)
	}
	return string(out), name, nil
}
