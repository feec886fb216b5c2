package plate

import "fmt"

// ParseError reports an export whose table could not be located or whose
// layout is not one we recognize.
type ParseError struct {
	Source string
	Line   int // 0-based line in the export, or -1 when not tied to a line
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("parse %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("parse %s: line %d: %s", e.Source, e.Line, e.Reason)
}

func parseErrorf(source string, line int, format string, args ...interface{}) *ParseError {
	return &ParseError{Source: source, Line: line, Reason: fmt.Sprintf(format, args...)}
}
