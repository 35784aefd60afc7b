package core

// validation.go turns an untyped submission into a FormRecord.
//
// Each registered FieldSpec is looked up in the submission, converted once to
// its typed representation and checked against its format rules. Every
// violation is collected so the caller can show all problems at once; a
// submission with any violation is rejected whole.

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
)

var (
	zipRegex   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	tinRegex   = regexp.MustCompile(`^\d{2}-\d{7}$|^\d{3}-\d{2}-\d{4}$`)
	ssnRegex   = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)
	stateRegex = regexp.MustCompile(`^[A-Z]{2}$`)
)

// MaxAmount is the largest currency value accepted on any box.
var MaxAmount = decimal.RequireFromString("999999999.99")

// Tax years accepted on a submission.
const (
	MinTaxYear = 1990
	MaxTaxYear = 2100
)

var textPolicy = bluemonday.StrictPolicy()

// Validate checks raw against the registered definition for formType and
// returns the normalized record. Unknown keys are ignored.
func Validate(formType string, raw map[string]any) (FormRecord, error) {
	ft, err := ParseFormType(formType)
	if err != nil {
		return FormRecord{}, err
	}
	def, ok := Get(ft)
	if !ok {
		return FormRecord{}, &UnknownFormTypeError{Type: formType}
	}

	rec := FormRecord{Type: ft, Fields: make(map[string]any)}
	var errs []FieldError

	for _, spec := range def.FieldSpecs {
		v := lookupField(raw, spec.Name)

		val, present, err := convertField(spec, v)
		if err != nil {
			errs = append(errs, FieldError{Field: spec.Name, Value: displayValue(v), Message: err.Error()})
			continue
		}
		if !present {
			if spec.Required {
				errs = append(errs, FieldError{Field: spec.Name, Message: "required field is missing"})
			}
			continue
		}

		setField(&rec, spec.Name, val)
	}

	if len(errs) > 0 {
		return FormRecord{}, &ValidationError{FormType: ft, Errors: errs}
	}
	return rec, nil
}

// ValidateForTaxYear validates raw and stamps the record with taxYear.
func ValidateForTaxYear(formType string, taxYear int, raw map[string]any) (FormRecord, error) {
	rec, err := Validate(formType, raw)

	if yerr := ValidateTaxYear(taxYear); yerr != nil {
		var verr *ValidationError
		switch {
		case err == nil:
			return FormRecord{}, &ValidationError{FormType: FormType(normalizeFormTag(formType)), Errors: []FieldError{*yerr}}
		case errors.As(err, &verr):
			verr.Errors = append([]FieldError{*yerr}, verr.Errors...)
			return FormRecord{}, verr
		}
	}
	if err != nil {
		return FormRecord{}, err
	}

	rec.TaxYear = taxYear
	return rec, nil
}

// ValidateTaxYear reports a FieldError for a tax year outside the accepted range.
func ValidateTaxYear(year int) *FieldError {
	if year < MinTaxYear || year > MaxTaxYear {
		return &FieldError{
			Field:   "taxYear",
			Value:   fmt.Sprint(year),
			Message: fmt.Sprintf("must be between %d and %d", MinTaxYear, MaxTaxYear),
		}
	}
	return nil
}

// convertField returns the typed value for spec, whether a value was supplied,
// and a format error if the value is unusable.
func convertField(spec FieldSpec, v any) (any, bool, error) {
	switch spec.Type {
	case FieldCurrency:
		d, ok, err := ParseAmount(v)
		if err != nil || !ok {
			return nil, ok, err
		}
		if d.IsNegative() {
			return nil, false, fmt.Errorf("must not be negative")
		}
		if d.GreaterThan(MaxAmount) {
			return nil, false, fmt.Errorf("must not exceed %s", MaxAmount.StringFixed(2))
		}
		return d, true, nil

	case FieldCount:
		n, ok, err := ParseCount(v)
		if err != nil || !ok {
			return nil, ok, err
		}
		if n < 0 {
			return nil, false, fmt.Errorf("must not be negative")
		}
		return n, true, nil

	case FieldBool:
		b, ok, err := ParseBool(v)
		if err != nil || !ok {
			return nil, ok, err
		}
		return b, true, nil
	}

	s, err := textValue(v)
	if err != nil {
		return nil, false, err
	}
	if s == "" {
		return nil, false, nil
	}

	switch spec.Type {
	case FieldState:
		s = NormalizeState(s)
		if !stateRegex.MatchString(s) {
			return nil, false, fmt.Errorf("must be a 2-letter state code")
		}
	case FieldZip:
		if !zipRegex.MatchString(s) {
			return nil, false, fmt.Errorf("must be a ZIP code (12345 or 12345-6789)")
		}
	case FieldTIN:
		if !tinRegex.MatchString(s) {
			return nil, false, fmt.Errorf("must be an EIN (12-3456789) or SSN (123-45-6789)")
		}
	case FieldSSN:
		if !ssnRegex.MatchString(s) {
			return nil, false, fmt.Errorf("must be an SSN (123-45-6789)")
		}
	case FieldCode:
		if len([]rune(s)) != 1 {
			return nil, false, fmt.Errorf("must be a single character")
		}
		s = strings.ToUpper(s)
	case FieldDate:
		d, err := ParseDate(s)
		if err != nil {
			return nil, false, err
		}
		s = d
	}
	return s, true, nil
}

// textValue converts a scalar to sanitized text. Markup is stripped.
func textValue(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	s, ok := ToText(v)
	if !ok {
		return "", fmt.Errorf("must be text")
	}
	s = html.UnescapeString(textPolicy.Sanitize(s))
	return strings.TrimSpace(s), nil
}

// lookupField reads "name" or "block.name" from a submission.
// Nested blocks may be decoded as map[string]any (JSON, YAML) or map[string]string.
func lookupField(raw map[string]any, name string) any {
	block, key, nested := strings.Cut(name, ".")
	if !nested {
		return raw[name]
	}
	switch m := raw[block].(type) {
	case map[string]any:
		return m[key]
	case map[string]string:
		if s, ok := m[key]; ok {
			return s
		}
		return nil
	}
	if v, ok := raw[name]; ok {
		return v
	}
	return nil
}

func setField(rec *FormRecord, name string, val any) {
	block, key, nested := strings.Cut(name, ".")
	if !nested {
		rec.Fields[name] = val
		return
	}
	s, _ := val.(string)
	switch block {
	case "payer":
		setPartyField(&rec.Payer, key, s)
	case "recipient":
		setPartyField(&rec.Recipient, key, s)
	}
}

func setPartyField(p *Party, key, val string) {
	switch key {
	case "name":
		p.Name = val
	case "address":
		p.Address = val
	case "city":
		p.City = val
	case "state":
		p.State = val
	case "zipCode":
		p.ZipCode = val
	case "taxId":
		p.TaxID = val
	case "ssn":
		p.SSN = val
	}
}

func displayValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := ToText(v); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
