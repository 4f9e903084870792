package fecparse

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ascii28 is the FEC file-separator byte used as a field delimiter in newer
// filing versions.
const ascii28 = 0x1c

// decodeLine scans a raw line once and returns UTF-8 bytes plus whether the
// line contained an ASCII-28 delimiter byte.
//
// If in is already well-formed UTF-8 it is returned unchanged. Otherwise it
// is assumed to be ISO-8859-1 and transliterated: every byte >= 0x80 becomes
// a two-byte UTF-8 sequence. The teacher's C ancestor does this by hand
// (0xC2 + (b > 0xBF), (b & 0x3F) + 0x80); here the identical mapping is
// performed by golang.org/x/text/encoding/charmap.ISO8859_1, grounded on
// other_examples/2bd70558_dabiaoge-csv2dbf__csv2dbf.go.go which pipes a
// legacy single-byte encoding through the same x/text encoding+transform
// pair ahead of CSV processing.
func decodeLine(in []byte) (out []byte, hasASCII28 bool, err error) {
	hasASCII28 = bytes.IndexByte(in, ascii28) >= 0

	if utf8.Valid(in) {
		return in, hasASCII28, nil
	}

	decoded, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), in)
	if err != nil {
		return nil, hasASCII28, err
	}
	return decoded, hasASCII28, nil
}
