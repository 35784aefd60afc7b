package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/form1099/internal/core"
)

const (
	linesSheet = "Form 1040"
	formsSheet = "Forms"
)

// WriteXLSX writes the summary as a workbook: one sheet with the CSV columns
// and one with the form counts per type.
func WriteXLSX(w io.Writer, s core.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), linesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(linesSheet, "A1", &[]any{
		CSVHeader[0], CSVHeader[1], CSVHeader[2], CSVHeader[3], CSVHeader[4],
	}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, l := range s.Lines {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		total, _ := l.TotalAmount.Round(2).Float64()
		if err := f.SetSheetRow(linesSheet, cell, &[]any{
			l.Line, l.Description, l.Schedule, total, sourcesCell(l.Sources),
		}); err != nil {
			return fmt.Errorf("write line %s: %w", l.Line, err)
		}
	}

	if len(s.Lines) > 0 {
		style, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
		if err != nil {
			return fmt.Errorf("create style: %w", err)
		}
		last := fmt.Sprintf("D%d", len(s.Lines)+1)
		if err := f.SetCellStyle(linesSheet, "D2", last, style); err != nil {
			return fmt.Errorf("style totals: %w", err)
		}
	}
	if err := f.SetColWidth(linesSheet, "B", "B", 60); err != nil {
		return err
	}

	if _, err := f.NewSheet(formsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	if err := f.SetSheetRow(formsSheet, "A1", &[]any{"Form Type", "Count"}); err != nil {
		return err
	}
	row := 2
	for _, ft := range core.FormTypes {
		n, ok := s.FormsByType[ft]
		if !ok {
			continue
		}
		if err := f.SetSheetRow(formsSheet, fmt.Sprintf("A%d", row), &[]any{"1099-" + string(ft), n}); err != nil {
			return err
		}
		row++
	}
	if err := f.SetSheetRow(formsSheet, fmt.Sprintf("A%d", row), &[]any{"Total", s.TotalForms}); err != nil {
		return err
	}
	if err := f.SetSheetRow(formsSheet, fmt.Sprintf("A%d", row+1), &[]any{"Tax Year", s.TaxYear}); err != nil {
		return err
	}

	_, err := f.WriteTo(w)
	return err
}
