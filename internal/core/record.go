package core

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Data returns the record in submission shape, with nested payer and
// recipient blocks. Amounts become json.Number so encoders write exact
// numerals. Validate(Data()) reproduces the record.
func (r FormRecord) Data() map[string]any {
	out := make(map[string]any, len(r.Fields)+2)
	for k, v := range r.Fields {
		if d, ok := v.(decimal.Decimal); ok {
			out[k] = json.Number(d.String())
			continue
		}
		out[k] = v
	}
	out["payer"] = r.Payer.data()
	out["recipient"] = r.Recipient.data()
	return out
}

func (p Party) data() map[string]any {
	m := map[string]any{
		"name":    p.Name,
		"address": p.Address,
		"city":    p.City,
		"state":   p.State,
		"zipCode": p.ZipCode,
	}
	if p.TaxID != "" {
		m["taxId"] = p.TaxID
	}
	if p.SSN != "" {
		m["ssn"] = p.SSN
	}
	return m
}
