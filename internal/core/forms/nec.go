package forms

import "github.com/JonMunkholm/form1099/internal/core"

func init() {
	core.Register(core.FormDefinition{
		Info: core.FormInfo{
			Type:        core.FormNEC,
			Title:       "Form 1099-NEC",
			Description: "Nonemployee Compensation",
		},
		FieldSpecs: specs(
			requiredCurrency("nonemployeeCompensation", "Box 1 Nonemployee compensation"),
		),
		Rules: []core.MappingRule{
			rule("nonemployeeCompensation", scheduleC, "Business Income (Gross receipts or sales)", scheduleC),
		},
	})
}
