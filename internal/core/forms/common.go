// Package forms registers the supported 1099 definitions with core.
//
// Import it for side effects:
//
//	import _ "github.com/JonMunkholm/form1099/internal/core/forms"
package forms

import "github.com/JonMunkholm/form1099/internal/core"

// payerSpecs describe the payer block shared by every form.
var payerSpecs = []core.FieldSpec{
	{Name: "payer.name", Label: "Payer name", Type: core.FieldText, Required: true},
	{Name: "payer.address", Label: "Payer address", Type: core.FieldText, Required: true},
	{Name: "payer.city", Label: "Payer city", Type: core.FieldText, Required: true},
	{Name: "payer.state", Label: "Payer state", Type: core.FieldState, Required: true},
	{Name: "payer.zipCode", Label: "Payer ZIP code", Type: core.FieldZip, Required: true},
	{Name: "payer.taxId", Label: "Payer TIN", Type: core.FieldTIN},
}

// recipientSpecs describe the recipient block shared by every form.
var recipientSpecs = []core.FieldSpec{
	{Name: "recipient.name", Label: "Recipient name", Type: core.FieldText, Required: true},
	{Name: "recipient.address", Label: "Recipient address", Type: core.FieldText, Required: true},
	{Name: "recipient.city", Label: "Recipient city", Type: core.FieldText, Required: true},
	{Name: "recipient.state", Label: "Recipient state", Type: core.FieldState, Required: true},
	{Name: "recipient.zipCode", Label: "Recipient ZIP code", Type: core.FieldZip, Required: true},
	{Name: "recipient.ssn", Label: "Recipient SSN", Type: core.FieldSSN, Required: true},
}

// stateSpecs are the withholding and state boxes at the foot of every form.
var stateSpecs = []core.FieldSpec{
	{Name: "federalIncomeTaxWithheld", Label: "Federal income tax withheld", Type: core.FieldCurrency},
	{Name: "stateIncomeTaxWithheld", Label: "State tax withheld", Type: core.FieldCurrency},
	{Name: "state", Label: "State", Type: core.FieldState},
	{Name: "stateIdNumber", Label: "Payer's state no.", Type: core.FieldText},
}

// specs assembles a form's field list: parties first, then the form's own
// boxes, then the state boxes.
func specs(boxes ...core.FieldSpec) []core.FieldSpec {
	out := make([]core.FieldSpec, 0, len(payerSpecs)+len(recipientSpecs)+len(boxes)+len(stateSpecs))
	out = append(out, payerSpecs...)
	out = append(out, recipientSpecs...)
	out = append(out, boxes...)
	out = append(out, stateSpecs...)
	return out
}

func currency(name, label string) core.FieldSpec {
	return core.FieldSpec{Name: name, Label: label, Type: core.FieldCurrency}
}

func requiredCurrency(name, label string) core.FieldSpec {
	return core.FieldSpec{Name: name, Label: label, Type: core.FieldCurrency, Required: true}
}

func rule(field, line, description, schedule string) core.MappingRule {
	return core.MappingRule{
		SourceField: field,
		Line:        core.DestinationLine{Line: line, Description: description, Schedule: schedule},
	}
}

// Destination lines targeted by more than one form.
const (
	scheduleC        = "Schedule C"
	scheduleE        = "Schedule E"
	scheduleD        = "Schedule D"
	schedule3        = "Schedule 3"
	foreignTaxLine   = "Schedule 3 Line 1"
	foreignTaxCredit = "Foreign tax credit"
	otherIncomeLine  = "8i"
)
