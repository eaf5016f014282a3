package parser

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
)

// BOM constants
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DetectAndDecode detects the encoding of the input data, strips any BOM,
// and returns the decoded UTF-8 bytes along with the detected encoding name.
func DetectAndDecode(data []byte) ([]byte, string, error) {
	if len(data) == 0 {
		return data, "utf-8", nil
	}

	if bytes.HasPrefix(data, bomUTF8) {
		return data[3:], "utf-8-bom", nil
	}

	if bytes.HasPrefix(data, bomUTF16LE) {
		decoded, err := xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM).NewDecoder().Bytes(data[2:])
		if err != nil {
			return nil, "", fmt.Errorf("UTF-16 LE decode failed: %w", err)
		}
		return decoded, "utf-16le", nil
	}

	if bytes.HasPrefix(data, bomUTF16BE) {
		decoded, err := xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM).NewDecoder().Bytes(data[2:])
		if err != nil {
			return nil, "", fmt.Errorf("UTF-16 BE decode failed: %w", err)
		}
		return decoded, "utf-16be", nil
	}

	if utf8.Valid(data) {
		return data, "utf-8", nil
	}

	// Every byte is a valid Latin-1 code point, so this never fails on content.
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, "", fmt.Errorf("latin-1 decode failed: %w", err)
	}
	return decoded, "latin-1", nil
}
