package journal

import (
	"fmt"
	"strings"

	"journalAnalytics/internal/ports"
)

// maxReportedProblems caps how many validation problems appear in an error message.
const maxReportedProblems = 5

// ParseError reports input that is not a non-empty JSON array of objects.
type ParseError struct {
	Reason string
	Err    error // Underlying decoder error, may be nil
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse journal: %s: %v", e.Reason, e.Err)
	}
	return "parse journal: " + e.Reason
}

func (e *ParseError) Unwrap() []error {
	if e.Err != nil {
		return []error{ports.ErrParse, e.Err}
	}
	return []error{ports.ErrParse}
}

// FormatError reports a well-formed array whose first element matches no known shape.
type FormatError struct {
	Keys []string // Keys found on the first element, sorted
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("journal format not recognized (first element keys: %s); expected a standard trade list or round-trip records",
		strings.Join(e.Keys, ", "))
}

func (e *FormatError) Unwrap() error { return ports.ErrFormat }

// ValidationError lists every invalid element; the message shows only the first few.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	shown := e.Problems
	suffix := ""
	if len(shown) > maxReportedProblems {
		suffix = fmt.Sprintf("; … (%d more)", len(shown)-maxReportedProblems)
		shown = shown[:maxReportedProblems]
	}
	return fmt.Sprintf("journal has %d invalid element(s): %s%s", len(e.Problems), strings.Join(shown, "; "), suffix)
}

func (e *ValidationError) Unwrap() error { return ports.ErrValidation }
