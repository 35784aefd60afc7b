package forms

import "github.com/JonMunkholm/form1099/internal/core"

func init() {
	core.Register(core.FormDefinition{
		Info: core.FormInfo{
			Type:        core.FormMISC,
			Title:       "Form 1099-MISC",
			Description: "Miscellaneous Information",
		},
		FieldSpecs: specs(
			currency("rents", "Box 1 Rents"),
			currency("royalties", "Box 2 Royalties"),
			currency("otherIncome", "Box 3 Other income"),
			currency("fishingBoatProceeds", "Box 5 Fishing boat proceeds"),
			currency("medicalAndHealthCarePayments", "Box 6 Medical and health care payments"),
			currency("nonemployeeCompensation", "Nonemployee compensation"),
			currency("substitutePayments", "Box 8 Substitute payments in lieu of dividends or interest"),
			currency("cropInsuranceProceeds", "Box 9 Crop insurance proceeds"),
			currency("grossProceedsToAttorney", "Box 10 Gross proceeds paid to an attorney"),
			currency("section409ADeferrals", "Box 12 Section 409A deferrals"),
			currency("nonqualifiedDeferredCompensation", "Box 15 Nonqualified deferred compensation"),
			currency("prizesAndAwards", "Prizes and awards"),
		),
		Rules: []core.MappingRule{
			rule("rents", scheduleE, "Rental real estate, royalties, partnerships, S corporations, trusts, etc.", scheduleE),
			rule("royalties", scheduleE, "Royalties", scheduleE),
			rule("otherIncome", otherIncomeLine, "Other income", ""),
			rule("prizesAndAwards", otherIncomeLine, "Other income (Prizes and awards)", ""),
		},
	})
}
