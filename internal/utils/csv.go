package utils

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"journalAnalytics/internal/pricing"
)

// WriteQuotesToCSV writes price samples to filename, creating its directory when needed.
func WriteQuotesToCSV(quotes []pricing.Quote, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return fmt.Errorf("failed to create directory for '%s': %w", filename, err)
	}
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	// Write header
	if err := writer.Write([]string{"time", "symbol", "price", "source"}); err != nil {
		return err
	}

	for _, q := range quotes {
		if err := writer.Write([]string{
			q.At.UTC().Format(time.RFC3339),
			q.Symbol,
			strconv.FormatFloat(q.Price, 'f', -1, 64),
			string(q.Source),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
