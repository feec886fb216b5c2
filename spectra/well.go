package spectra

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var wellPattern = regexp.MustCompile(`^[A-P][1-9][0-9]?$`)

// ValidWell reports whether label is a well on a 384-well plate, in canonical
// form (no zero padding).
func ValidWell(label string) bool {
	return wellPattern.MatchString(label)
}

// JoinWell builds a well label from a row letter and a column number, as found
// in exports that split the two into separate columns.
func JoinWell(row, column string) (string, error) {
	row = strings.TrimSpace(row)
	col, err := strconv.Atoi(strings.TrimSpace(column))
	if err != nil {
		return "", fmt.Errorf("well column %q: %w", column, err)
	}

	return NormalizeWell(fmt.Sprintf("%s%d", row, col))
}

// NormalizeWell strips zero padding from the numeric part of a combined well
// label, so "A01" becomes "A1".
func NormalizeWell(label string) (string, error) {
	label = strings.TrimSpace(label)
	if len(label) < 2 {
		return "", fmt.Errorf("well label %q is too short", label)
	}

	col, err := strconv.Atoi(label[1:])
	if err != nil {
		return "", fmt.Errorf("well label %q: %w", label, err)
	}

	out := fmt.Sprintf("%s%d", strings.ToUpper(label[:1]), col)
	if !ValidWell(out) {
		return "", fmt.Errorf("well label %q is not on a 384-well plate", label)
	}

	return out, nil
}

// WellRow returns the row letter of a well label.
func WellRow(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return ""
	}

	return strings.ToUpper(label[:1])
}
