package export

import (
	"encoding/json"
	"fmt"
	"io"

	"journalAnalytics/internal/analytics"
)

// WriteJSON writes the whole report as indented JSON.
func WriteJSON(w io.Writer, r *analytics.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
