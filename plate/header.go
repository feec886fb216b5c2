package plate

import "strings"

// MinHeaderDelimiters is the number of delimiters a line must exceed to be
// taken as the start of the spectral table. Preamble lines carry a handful of
// key: value pairs; the table marker carries one field per column.
const MinHeaderDelimiters = 16

// LocateHeader returns the index of the first line with more than
// MinHeaderDelimiters commas. In plate reader exports that line is a marker
// row; the column header of the spectral table is the line after it.
func LocateHeader(lines []string) (int, error) {
	return LocateHeaderDelim(lines, ',')
}

// LocateHeaderDelim is LocateHeader for exports written with another
// delimiter.
func LocateHeaderDelim(lines []string, delim rune) (int, error) {
	sep := string(delim)
	for i, line := range lines {
		if strings.Count(line, sep) > MinHeaderDelimiters {
			return i, nil
		}
	}

	return -1, &ParseError{
		Line:   -1,
		Reason: "no line with more than 16 delimiters; the spectral table could not be located",
	}
}
