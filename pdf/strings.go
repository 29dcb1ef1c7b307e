package pdf

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
)

var utf16be = unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()

// decodeTextString interprets a PDF text string: UTF-16BE when the BOM
// is present, a latin-ish byte passthrough otherwise.
func decodeTextString(b []byte) string {
	if len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF {
		if out, err := utf16be.Bytes(b); err == nil {
			return string(out)
		}
	}
	return filterControl(b)
}

// decodeUTF16BE decodes big-endian UTF-16 without a BOM, as used by
// ToUnicode CMap targets.
func decodeUTF16BE(b []byte) string {
	dec := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder()
	out, err := dec.Bytes(b)
	if err != nil {
		return ""
	}
	return string(out)
}

// filterControl drops non-printable control bytes but keeps intentional
// whitespace, so degraded byte-level decoding stays displayable.
func filterControl(b []byte) string {
	var sb strings.Builder
	for _, c := range b {
		if c >= 0x20 || c == '\t' || c == '\n' || c == '\r' {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
