package plate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// MetadataWindow is how much of the start of an export is searched for
// header fields.
const MetadataWindow = 1024

// Metadata is parsed on a best-effort basis from the preamble of an export.
// Fields that could not be found are left empty.
type Metadata struct {
	RunNumber string
	User      string
	Machine   string
	ID1       string
	ID2       string
	Date      string
	Time      string
	Path      string
}

var (
	reRunNumber = regexp.MustCompile(`Test run no\.: (\d{4})`)
	reUser      = regexp.MustCompile(`User:\s*([A-Za-z]*),`)
	reID1       = regexp.MustCompile(`ID1:\s*([A-Za-z0-9]*),`)
	reID2       = regexp.MustCompile(`ID2:\s*([A-Za-z0-9]*),`)
	reMachine   = regexp.MustCompile(`(BMG/[A-Za-z0-9]*)/`)
	reDate      = regexp.MustCompile(`Date:\s*([^,\n]*),`)
	reTime      = regexp.MustCompile(`[0-9]{2}:[0-9]{2}:[0-9]{2}`)

	// Older exports carry an unlabeled date and time on the first lines.
	reBareDate = regexp.MustCompile(`[0-9]+/[0-9]+/[0-9]+`)
	reBareTime = regexp.MustCompile(`[0-9]+:[0-9]+:[0-9]+`)
)

// ParseMetadata searches the first MetadataWindow bytes of an export for run
// metadata. It never fails; missing fields are empty.
func ParseMetadata(data []byte) Metadata {
	if len(data) > MetadataWindow {
		data = data[:MetadataWindow]
	}
	head := strings.ReplaceAll(string(data), `\`, "/")

	m := Metadata{
		RunNumber: grep(reRunNumber, head),
		User:      grep(reUser, head),
		ID1:       grep(reID1, head),
		ID2:       grep(reID2, head),
		Machine:   strings.ReplaceAll(grep(reMachine, head), "/", " "),
		Date:      strings.TrimSpace(grep(reDate, head)),
		Time:      grep(reTime, head),
	}

	if m.Date == "" {
		m.Date = grep(reBareDate, firstLines(head, 4))
	}
	if m.Time == "" {
		m.Time = grep(reBareTime, firstLines(head, 4))
	}

	return m
}

// Timestamp combines the date and time fields. Exports are written with
// day-first dates.
func (m Metadata) Timestamp() (time.Time, error) {
	if m.Date == "" || m.Time == "" {
		return time.Time{}, fmt.Errorf("%s: date (%q) or time (%q) missing from header", m.Path, m.Date, m.Time)
	}

	stamp := m.Date + " " + m.Time
	res, err := dateparse.ParseAny(stamp, dateparse.PreferMonthFirst(false))
	if err == nil {
		return res, nil
	}

	// Try some known values that dateparse fails to understand
	for _, layout := range []string{"02/01/2006 15:04:05", "2/1/2006 15:04:05", "02.01.2006 15:04:05"} {
		if res, err2 := time.Parse(layout, stamp); err2 == nil {
			return res, nil
		}
	}

	return time.Time{}, fmt.Errorf("%s: %w", m.Path, err)
}

// FilenameTimestamp parses the timestamp the instrument writes into export
// file names, e.g. "03062021,101010.CSV" or "03062021,101010_plate2.CSV".
func FilenameTimestamp(path string) (time.Time, error) {
	s := filepath.Base(path)
	if i := strings.Index(s, "_"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSuffix(strings.TrimSuffix(s, ".CSV"), ".csv")

	return time.Parse("02012006,150405", s)
}

func grep(re *regexp.Regexp, s string) string {
	match := re.FindStringSubmatch(s)
	switch len(match) {
	case 0:
		return ""
	case 1:
		return match[0]
	}
	return match[1]
}

func firstLines(s string, n int) string {
	lines := strings.SplitN(s, "\n", n+1)
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
