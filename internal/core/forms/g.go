package forms

import "github.com/JonMunkholm/form1099/internal/core"

func init() {
	core.Register(core.FormDefinition{
		Info: core.FormInfo{
			Type:        core.FormG,
			Title:       "Form 1099-G",
			Description: "Certain Government Payments",
		},
		FieldSpecs: specs(
			currency("unemploymentCompensation", "Box 1 Unemployment compensation"),
			currency("stateIncomeTaxRefund", "Box 2 State or local income tax refunds, credits, or offsets"),
			currency("reemploymentTradeAdjustmentAssistance", "Box 5 RTAA payments"),
			currency("taxableGrants", "Box 6 Taxable grants"),
			currency("agriculturePayments", "Box 7 Agriculture payments"),
			currency("marketGainOnRepayment", "Box 9 Market gain"),
		),
		Rules: []core.MappingRule{
			rule("unemploymentCompensation", "7", "Unemployment compensation", ""),
			rule("stateIncomeTaxRefund", "8a", "State and local income tax refunds", ""),
		},
	})
}
