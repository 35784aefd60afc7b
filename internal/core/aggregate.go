package core

import (
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
)

// Aggregation accumulates mapping entries from many records into per-line totals.
type Aggregation struct {
	lines       map[string]*AggregatedLine
	order       []string
	formsByType map[FormType]int
	totalForms  int
}

// NewAggregation returns an empty aggregation.
func NewAggregation() *Aggregation {
	return &Aggregation{
		lines:       make(map[string]*AggregatedLine),
		formsByType: make(map[FormType]int),
	}
}

// Aggregate maps every record and sums the entries by destination line.
// Records are processed in the order given, which fixes the order of sources
// within each line and the order of lines themselves.
func Aggregate(records []SourceRecord) (*Aggregation, error) {
	agg := NewAggregation()
	for _, sr := range records {
		if err := agg.Add(sr); err != nil {
			return nil, err
		}
	}
	return agg, nil
}

// Add maps one record and folds its entries into the aggregation.
// Every record counts toward the form totals, even when it maps to nothing.
func (a *Aggregation) Add(sr SourceRecord) error {
	entries, err := MapToDestinationLines(sr.Record.Type, sr.Record)
	if err != nil {
		return err
	}
	a.AddEntries(sr.ID, sr.Record.Type, entries)
	return nil
}

// AddEntries folds already-mapped entries for one record into the aggregation.
func (a *Aggregation) AddEntries(formID string, formType FormType, entries []MappingEntry) {
	a.totalForms++
	a.formsByType[formType]++

	for _, e := range entries {
		line, ok := a.lines[e.Line]
		if !ok {
			line = &AggregatedLine{
				Line:        e.Line,
				Description: e.Description,
				Schedule:    e.Schedule,
				TotalAmount: decimal.Zero,
			}
			a.lines[e.Line] = line
			a.order = append(a.order, e.Line)
		} else if line.Description != e.Description {
			// First description seen for a line is the one reported.
			slog.Debug("line description differs from first seen",
				"line", e.Line,
				"kept", line.Description,
				"ignored", e.Description,
				"form_id", formID,
			)
		}

		line.TotalAmount = line.TotalAmount.Add(e.Amount)
		line.Sources = append(line.Sources, Source{
			FormType: formType,
			FormID:   formID,
			Amount:   e.Amount,
		})
	}
}

// Lines returns the aggregated lines in first-seen order.
func (a *Aggregation) Lines() []AggregatedLine {
	out := make([]AggregatedLine, 0, len(a.order))
	for _, id := range a.order {
		l := *a.lines[id]
		l.Sources = append([]Source(nil), l.Sources...)
		out = append(out, l)
	}
	return out
}

// Line looks up a single aggregated line by its identifier ("3a", "Schedule C").
func (a *Aggregation) Line(id string) (AggregatedLine, bool) {
	l, ok := a.lines[id]
	if !ok {
		return AggregatedLine{}, false
	}
	out := *l
	out.Sources = append([]Source(nil), l.Sources...)
	return out, true
}

// TotalForms returns the number of records folded in.
func (a *Aggregation) TotalForms() int { return a.totalForms }

// FormsByType returns a copy of the per-type record counts.
func (a *Aggregation) FormsByType() map[FormType]int {
	out := make(map[FormType]int, len(a.formsByType))
	for k, v := range a.formsByType {
		out[k] = v
	}
	return out
}

// ToSummary packages an aggregation as the exportable report.
func ToSummary(agg *Aggregation, taxYear int, now time.Time) Summary {
	return Summary{
		TaxYear:     taxYear,
		TotalForms:  agg.TotalForms(),
		FormsByType: agg.FormsByType(),
		Lines:       agg.Lines(),
		GeneratedAt: now.UTC(),
	}
}
