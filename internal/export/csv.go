package export

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/form1099/internal/core"
)

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{"Form 1040 Line", "Description", "Schedule", "Total Amount", "Source Forms"}

// WriteCSV writes one row per destination line. Line, description and
// sources are always quoted; totals have two decimal places.
func WriteCSV(w io.Writer, s core.Summary) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(strings.Join(CSVHeader, ","))
	bw.WriteByte('\n')

	for _, l := range s.Lines {
		fields := []string{
			quoteField(l.Line),
			quoteField(l.Description),
			csvEscapeField(l.Schedule),
			l.TotalAmount.StringFixed(2),
			quoteField(sourcesCell(l.Sources)),
		}
		bw.WriteString(strings.Join(fields, ","))
		bw.WriteByte('\n')
	}

	return bw.Flush()
}

// sourcesCell renders "NEC:$10000;K:$5500".
func sourcesCell(sources []core.Source) string {
	parts := make([]string, len(sources))
	for i, src := range sources {
		parts[i] = fmt.Sprintf("%s:$%s", src.FormType, src.Amount.String())
	}
	return strings.Join(parts, ";")
}

func quoteField(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// csvEscapeField quotes s only when it contains a delimiter, quote or newline.
func csvEscapeField(s string) string {
	if strings.ContainsAny(s, ",\"\n\r") {
		return quoteField(s)
	}
	return s
}

// ParseCSVTotals reads a CSV export back into line → total amount.
func ParseCSVTotals(r io.Reader) (map[string]decimal.Decimal, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(CSVHeader)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty csv")
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if strings.Join(header, ",") != strings.Join(CSVHeader, ",") {
		return nil, fmt.Errorf("unexpected csv header: %q", header)
	}

	totals := make(map[string]decimal.Decimal)
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		total, err := decimal.NewFromString(row[3])
		if err != nil {
			return nil, fmt.Errorf("line %s: invalid total %q", row[0], row[3])
		}
		totals[row[0]] = total
	}
	return totals, nil
}
