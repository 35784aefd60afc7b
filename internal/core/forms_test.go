package core_test

import (
	"github.com/shopspring/decimal"

	_ "github.com/JonMunkholm/form1099/internal/core/forms"
)

// submission returns a well-formed payload for any form type with the
// given boxes merged in.
func submission(boxes map[string]any) map[string]any {
	data := map[string]any{
		"payer": map[string]any{
			"name":    "First Bank",
			"address": "100 Market St",
			"city":    "Chicago",
			"state":   "IL",
			"zipCode": "60601",
			"taxId":   "12-3456789",
		},
		"recipient": map[string]any{
			"name":    "Pat Doe",
			"address": "2 Oak Ave",
			"city":    "Springfield",
			"state":   "IL",
			"zipCode": "62704",
			"ssn":     "123-45-6789",
		},
	}
	for k, v := range boxes {
		data[k] = v
	}
	return data
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
