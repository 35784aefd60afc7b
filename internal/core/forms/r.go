package forms

import "github.com/JonMunkholm/form1099/internal/core"

func init() {
	core.Register(core.FormDefinition{
		Info: core.FormInfo{
			Type:        core.FormR,
			Title:       "Form 1099-R",
			Description: "Distributions From Pensions, Annuities, Retirement Plans",
		},
		FieldSpecs: specs(
			requiredCurrency("grossDistribution", "Box 1 Gross distribution"),
			currency("taxableAmount", "Box 2a Taxable amount"),
			currency("netUnrealizedAppreciation", "Box 6 Net unrealized appreciation"),
			core.FieldSpec{Name: "distributionCode", Label: "Box 7 Distribution code", Type: core.FieldCode, Required: true},
			currency("employeeContributions", "Box 5 Employee contributions"),
			currency("pensionAnnuityGross", "Pension or annuity gross"),
			currency("pensionAnnuityTaxable", "Pension or annuity taxable"),
		),
		Rules: []core.MappingRule{
			rule("grossDistribution", "4a", "IRA distributions (gross)", ""),
			rule("taxableAmount", "4b", "IRA distributions (taxable)", ""),
			rule("pensionAnnuityGross", "5a", "Pensions and annuities (gross)", ""),
			rule("pensionAnnuityTaxable", "5b", "Pensions and annuities (taxable)", ""),
		},
	})
}
