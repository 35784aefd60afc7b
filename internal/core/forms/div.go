package forms

import "github.com/JonMunkholm/form1099/internal/core"

func init() {
	core.Register(core.FormDefinition{
		Info: core.FormInfo{
			Type:        core.FormDIV,
			Title:       "Form 1099-DIV",
			Description: "Dividends and Distributions",
		},
		FieldSpecs: specs(
			requiredCurrency("ordinaryDividends", "Box 1a Total ordinary dividends"),
			currency("qualifiedDividends", "Box 1b Qualified dividends"),
			currency("capitalGainDistributions", "Box 2a Total capital gain distr."),
			currency("unrecapturedSection1250Gain", "Box 2b Unrecap. Sec. 1250 gain"),
			currency("section1202Gain", "Box 2c Section 1202 gain"),
			currency("collectiblesGain", "Box 2d Collectibles (28%) gain"),
			currency("nondividendDistributions", "Box 3 Nondividend distributions"),
			currency("section199ADividends", "Box 5 Section 199A dividends"),
			currency("investmentExpenses", "Box 6 Investment expenses"),
			currency("foreignTaxPaid", "Box 7 Foreign tax paid"),
			core.FieldSpec{Name: "foreignCountry", Label: "Box 8 Foreign country or U.S. possession", Type: core.FieldText},
			currency("cashLiquidationDistributions", "Box 9 Cash liquidation distributions"),
			currency("noncashLiquidationDistributions", "Box 10 Noncash liquidation distributions"),
			currency("exemptInterestDividends", "Box 12 Exempt-interest dividends"),
			currency("specifiedPrivateActivityBondInterestDividends", "Box 13 Specified private activity bond interest dividends"),
		),
		Rules: []core.MappingRule{
			rule("ordinaryDividends", "3a", "Ordinary dividends", ""),
			rule("qualifiedDividends", "3b", "Qualified dividends", ""),
			rule("foreignTaxPaid", foreignTaxLine, foreignTaxCredit, schedule3),
		},
	})
}
