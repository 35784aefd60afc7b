package forms

import "github.com/JonMunkholm/form1099/internal/core"

func init() {
	core.Register(core.FormDefinition{
		Info: core.FormInfo{
			Type:        core.FormINT,
			Title:       "Form 1099-INT",
			Description: "Interest Income",
		},
		FieldSpecs: specs(
			requiredCurrency("interestIncome", "Box 1 Interest income"),
			currency("earlyWithdrawalPenalty", "Box 2 Early withdrawal penalty"),
			currency("interestOnUSSavingsBonds", "Box 3 Interest on U.S. Savings Bonds and Treasury obligations"),
			currency("investmentExpenses", "Box 5 Investment expenses"),
			currency("foreignTaxPaid", "Box 6 Foreign tax paid"),
			core.FieldSpec{Name: "foreignCountry", Label: "Box 7 Foreign country or U.S. possession", Type: core.FieldText},
			currency("taxExemptInterest", "Box 8 Tax-exempt interest"),
			currency("specifiedPrivateActivityBondInterest", "Box 9 Specified private activity bond interest"),
			currency("marketDiscount", "Box 10 Market discount"),
			currency("bondPremium", "Box 11 Bond premium"),
			currency("bondPremiumOnTaxExemptBond", "Box 13 Bond premium on tax-exempt bond"),
			core.FieldSpec{Name: "cusipNumber", Label: "Box 14 Tax-exempt and tax credit bond CUSIP no.", Type: core.FieldText},
		),
		Rules: []core.MappingRule{
			rule("interestIncome", "2a", "Taxable interest", ""),
			rule("foreignTaxPaid", foreignTaxLine, foreignTaxCredit, schedule3),
		},
	})
}
