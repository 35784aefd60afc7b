// Package export serializes a core.Summary as JSON, CSV or XLSX.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/form1099/internal/core"
)

// Format is an export serialization.
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "json", "csv" or "xlsx" in any case. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q (use json, csv or xlsx)", s)
	}
}

// ContentType returns the MIME type written for f.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/json"
	}
}

// Filename returns the download name for a summary export:
// form-1040-summary-2024.csv, or form-1040-summary-current.csv without a year.
func Filename(taxYear *int, f Format) string {
	year := "current"
	if taxYear != nil {
		year = fmt.Sprint(*taxYear)
	}
	return fmt.Sprintf("form-1040-summary-%s.%s", year, f)
}

// Write serializes s in format f.
func Write(w io.Writer, f Format, s core.Summary) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, s)
	case FormatXLSX:
		return WriteXLSX(w, s)
	default:
		return WriteJSON(w, s)
	}
}
