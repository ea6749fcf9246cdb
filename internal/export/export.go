package export

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"journalAnalytics/internal/analytics"
	"journalAnalytics/internal/domain"
)

// Format is an output encoding for a report.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Section selects which part of a report is written as CSV.
type Section string

const (
	SectionAll      Section = "all"
	SectionTrades   Section = "trades"
	SectionSummary  Section = "summary"
	SectionInsights Section = "insights"
	SectionMonthly  Section = "monthly"
	SectionAssets   Section = "assets"
	SectionRisk     Section = "risk"
)

// ratioPlaces is the precision of dimensionless statistics.
const ratioPlaces = 4

// ParseFormat converts a user supplied name into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown", "report":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, json or markdown)", s)
	}
}

// ParseSection converts a user supplied name into a Section.
func ParseSection(s string) (Section, error) {
	sec := Section(strings.ToLower(strings.TrimSpace(s)))
	switch sec {
	case "":
		return SectionAll, nil
	case SectionAll, SectionTrades, SectionSummary, SectionInsights, SectionMonthly, SectionAssets, SectionRisk:
		return sec, nil
	default:
		return "", fmt.Errorf("unknown export section %q", s)
	}
}

// Write renders r in the given format. The section only applies to CSV.
func Write(w io.Writer, r *analytics.Report, format Format, section Section) error {
	if r == nil {
		return fmt.Errorf("export: nil report")
	}
	switch format {
	case FormatCSV:
		return WriteCSV(w, r, section)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatMarkdown:
		return WriteMarkdown(w, r)
	default:
		return fmt.Errorf("export: unsupported format %q", format)
	}
}

// fixed renders x rounded half away from zero to the given number of places.
// NaN and infinities are written as NaN, +Inf and -Inf.
func fixed(x float64, places int32) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return fmt.Sprint(x)
	}
	return decimal.NewFromFloat(x).StringFixed(places)
}

func unitLabel(d domain.Denomination) string {
	switch d {
	case domain.DenomSOL, domain.DenomUSD:
		return " " + string(d)
	default:
		return ""
	}
}
