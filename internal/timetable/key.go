package timetable

import (
	"strconv"
	"strings"
)

// KeySeparator joins the components of a document key.
const KeySeparator = "-"

//nolint:gochecknoglobals // Stateless replacer.
var keyEscaper = strings.NewReplacer("%", "%25", "-", "%2D", "/", "%2F")

// BuildKey returns "{train_no}-{station_code}-{sequence}".
//
// '%', '-' and '/' inside train_no or station_code are percent-escaped so
// that distinct triples never share a key and keys never contain a path
// separator. Typical timetable values contain none of these and are left
// as-is.
func BuildKey(trainNo, stationCode string, sequence int64) string {
	var b strings.Builder
	b.Grow(len(trainNo) + len(stationCode) + 24)
	b.WriteString(keyEscaper.Replace(trainNo))
	b.WriteString(KeySeparator)
	b.WriteString(keyEscaper.Replace(stationCode))
	b.WriteString(KeySeparator)
	b.WriteString(strconv.FormatInt(sequence, 10))
	return b.String()
}
