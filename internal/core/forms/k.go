package forms

import "github.com/JonMunkholm/form1099/internal/core"

func init() {
	core.Register(core.FormDefinition{
		Info: core.FormInfo{
			Type:        core.FormK,
			Title:       "Form 1099-K",
			Description: "Payment Card and Third Party Network Transactions",
		},
		FieldSpecs: specs(
			requiredCurrency("grossAmount", "Box 1a Gross amount of payment card/third party network transactions"),
			currency("cardNotPresentTransactions", "Box 1b Card not present transactions"),
			core.FieldSpec{Name: "merchantCategoryCode", Label: "Box 2 Merchant category code", Type: core.FieldText},
			core.FieldSpec{Name: "numberOfPaymentTransactions", Label: "Box 3 Number of payment transactions", Type: core.FieldCount},
		),
		Rules: []core.MappingRule{
			rule("grossAmount", scheduleC, "Business Income (Payment card transactions)", scheduleC),
		},
	})
}
