package sxfst

import (
	"bytes"
	"io"

	"github.com/csimplestring/go-csv/detector"
)

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	if len(delimiters) > 0 && len(delimiters[0]) > 0 {
		return rune(delimiters[0][0])
	}

	return ','
}

// DetermineDelimiterBytes is DetermineDelimiter for data that is already in
// memory, starting at line skip. A candidate that does not occur in that
// first line, which is assumed to be a header, is rejected in favor of a
// comma.
func DetermineDelimiterBytes(data []byte, skip int) rune {
	lines := bytes.SplitN(data, []byte("\n"), skip+1)
	if len(lines) <= skip {
		return ','
	}
	data = lines[skip]

	header := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		header = data[:i]
	}

	delim := DetermineDelimiter(bytes.NewReader(data))
	if !bytes.ContainsRune(header, delim) {
		return ','
	}

	return delim
}
