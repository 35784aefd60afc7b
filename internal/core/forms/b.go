package forms

import "github.com/JonMunkholm/form1099/internal/core"

func init() {
	core.Register(core.FormDefinition{
		Info: core.FormInfo{
			Type:        core.FormB,
			Title:       "Form 1099-B",
			Description: "Proceeds From Broker and Barter Exchange Transactions",
		},
		FieldSpecs: specs(
			core.FieldSpec{Name: "description", Label: "Box 1a Description of property", Type: core.FieldText, Required: true},
			core.FieldSpec{Name: "dateAcquired", Label: "Box 1b Date acquired", Type: core.FieldDate},
			core.FieldSpec{Name: "dateSold", Label: "Box 1c Date sold or disposed", Type: core.FieldDate, Required: true},
			requiredCurrency("proceedsFromBroker", "Box 1d Proceeds"),
			currency("costOrOtherBasis", "Box 1e Cost or other basis"),
			core.FieldSpec{Name: "shortTermGainLoss", Label: "Short-term gain or loss", Type: core.FieldBool},
			core.FieldSpec{Name: "longTermGainLoss", Label: "Long-term gain or loss", Type: core.FieldBool},
			core.FieldSpec{Name: "ordinaryIncome", Label: "Ordinary", Type: core.FieldBool},
		),
		Rules: []core.MappingRule{
			rule("proceedsFromBroker", scheduleD, "Capital gains and losses", scheduleD),
		},
	})
}
