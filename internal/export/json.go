package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/form1099/internal/core"
)

// summaryJSON is the wire shape of a summary. Amounts are JSON numbers
// carrying the exact decimal text.
type summaryJSON struct {
	TaxYear     int                   `json:"taxYear"`
	TotalForms  int                   `json:"totalForms"`
	FormsByType map[core.FormType]int `json:"formsByType"`
	Lines       []lineJSON            `json:"form1040Lines"`
	GeneratedAt time.Time             `json:"generatedAt"`
}

type lineJSON struct {
	Line        string       `json:"line"`
	Description string       `json:"description"`
	Schedule    string       `json:"schedule,omitempty"`
	TotalAmount json.Number  `json:"totalAmount"`
	Sources     []sourceJSON `json:"sources"`
}

type sourceJSON struct {
	FormType core.FormType `json:"formType"`
	FormID   string        `json:"formId"`
	Amount   json.Number   `json:"amount"`
}

// WriteJSON writes s as indented JSON.
func WriteJSON(w io.Writer, s core.Summary) error {
	out := summaryJSON{
		TaxYear:     s.TaxYear,
		TotalForms:  s.TotalForms,
		FormsByType: s.FormsByType,
		Lines:       make([]lineJSON, 0, len(s.Lines)),
		GeneratedAt: s.GeneratedAt,
	}
	if out.FormsByType == nil {
		out.FormsByType = map[core.FormType]int{}
	}

	for _, l := range s.Lines {
		lj := lineJSON{
			Line:        l.Line,
			Description: l.Description,
			Schedule:    l.Schedule,
			TotalAmount: number(l.TotalAmount),
			Sources:     make([]sourceJSON, 0, len(l.Sources)),
		}
		for _, src := range l.Sources {
			lj.Sources = append(lj.Sources, sourceJSON{
				FormType: src.FormType,
				FormID:   src.FormID,
				Amount:   number(src.Amount),
			})
		}
		out.Lines = append(out.Lines, lj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// ReadJSON decodes a summary written by WriteJSON.
func ReadJSON(r io.Reader) (core.Summary, error) {
	var in summaryJSON
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&in); err != nil {
		return core.Summary{}, err
	}

	s := core.Summary{
		TaxYear:     in.TaxYear,
		TotalForms:  in.TotalForms,
		FormsByType: in.FormsByType,
		GeneratedAt: in.GeneratedAt,
	}
	for _, lj := range in.Lines {
		total, err := decimal.NewFromString(lj.TotalAmount.String())
		if err != nil {
			return core.Summary{}, err
		}
		l := core.AggregatedLine{
			Line:        lj.Line,
			Description: lj.Description,
			Schedule:    lj.Schedule,
			TotalAmount: total,
		}
		for _, sj := range lj.Sources {
			amt, err := decimal.NewFromString(sj.Amount.String())
			if err != nil {
				return core.Summary{}, err
			}
			l.Sources = append(l.Sources, core.Source{FormType: sj.FormType, FormID: sj.FormID, Amount: amt})
		}
		s.Lines = append(s.Lines, l)
	}
	return s, nil
}

func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
