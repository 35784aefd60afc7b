// Package core provides the form schema registry, the 1099 → 1040 mapping
// engine and the aggregation engine. This package has no UI or storage
// dependencies and can be used by any frontend.
package core

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// FormType identifies one of the supported 1099 information returns.
type FormType string

const (
	FormNEC  FormType = "NEC"
	FormMISC FormType = "MISC"
	FormINT  FormType = "INT"
	FormDIV  FormType = "DIV"
	FormB    FormType = "B"
	FormR    FormType = "R"
	FormG    FormType = "G"
	FormK    FormType = "K"
)

// FormTypes lists every supported form type in display order.
var FormTypes = []FormType{FormNEC, FormMISC, FormINT, FormDIV, FormB, FormR, FormG, FormK}

// Valid reports whether t is one of the eight supported form types.
func (t FormType) Valid() bool {
	for _, ft := range FormTypes {
		if ft == t {
			return true
		}
	}
	return false
}

func (t FormType) String() string { return string(t) }

// ParseFormType converts a user-supplied tag ("DIV", "1099-div") to a FormType.
func ParseFormType(s string) (FormType, error) {
	ft := FormType(normalizeFormTag(s))
	if !ft.Valid() {
		return "", &UnknownFormTypeError{Type: s}
	}
	return ft, nil
}

// FieldType represents the expected data type for a form field.
type FieldType int

const (
	FieldText FieldType = iota
	FieldCurrency
	FieldCount
	FieldBool
	FieldState
	FieldZip
	FieldTIN
	FieldSSN
	FieldCode
	FieldDate
)

var fieldTypeNames = [...]string{"text", "currency", "count", "bool", "state", "zip", "tin", "ssn", "code", "date"}

func (t FieldType) String() string {
	if int(t) < len(fieldTypeNames) {
		return fieldTypeNames[t]
	}
	return "unknown"
}

// MarshalText renders the type by name in JSON and YAML listings.
func (t FieldType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// FieldSpec defines validation rules for a single form field.
type FieldSpec struct {
	Name     string    `json:"name" yaml:"name"`         // Key in the submitted data ("interestIncome", "payer.zipCode")
	Label    string    `json:"label" yaml:"label"`       // Box label shown to users
	Type     FieldType `json:"type" yaml:"type"`         // Expected data type
	Required bool      `json:"required" yaml:"required"` // Field must be present (and non-empty for text)
}

// Party is the payer or recipient block printed on every 1099.
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	TaxID   string `json:"taxId,omitempty"`
	SSN     string `json:"ssn,omitempty"`
}

// FormRecord is a validated, normalized 1099. Currency fields hold
// decimal.Decimal, counts int64, flags bool and everything else string.
// Records are never edited in place: an edit replaces the whole record.
type FormRecord struct {
	Type      FormType
	TaxYear   int
	Payer     Party
	Recipient Party
	Fields    map[string]any
}

// Amount returns the currency value stored under field, if any.
func (r FormRecord) Amount(field string) (decimal.Decimal, bool) {
	v, ok := r.Fields[field]
	if !ok {
		return decimal.Decimal{}, false
	}
	d, ok := v.(decimal.Decimal)
	return d, ok
}

// DestinationLine is a labeled slot on Form 1040 or one of its schedules.
type DestinationLine struct {
	Line        string `json:"line" yaml:"line"`
	Description string `json:"description" yaml:"description"`
	Schedule    string `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// TransformFunc adjusts a source amount before it is reported on a line.
type TransformFunc func(decimal.Decimal) decimal.Decimal

// MappingRule routes one source field to one destination line.
type MappingRule struct {
	SourceField string          `json:"sourceField" yaml:"sourceField"`
	Line        DestinationLine `json:"line" yaml:"line"`
	Transform   TransformFunc   `json:"-" yaml:"-"`
}

// MappingEntry is one amount produced by the mapping engine.
type MappingEntry struct {
	Line        string          `json:"line"`
	Description string          `json:"description"`
	Schedule    string          `json:"schedule,omitempty"`
	SourceField string          `json:"sourceField"`
	Amount      decimal.Decimal `json:"amount"`
}

// FormInfo contains display information about a form type.
type FormInfo struct {
	Type        FormType `json:"type" yaml:"type"`
	Title       string   `json:"title" yaml:"title"`             // "Form 1099-DIV"
	Description string   `json:"description" yaml:"description"` // "Dividends and Distributions"
}

// FormDefinition contains everything needed to validate and map one form type.
type FormDefinition struct {
	Info       FormInfo      `json:"info" yaml:"info"`
	FieldSpecs []FieldSpec   `json:"fields" yaml:"fields"`
	Rules      []MappingRule `json:"rules" yaml:"rules"`
}

// SourceRecord pairs a record with its stable store identifier.
type SourceRecord struct {
	ID     string
	Record FormRecord
}

// Source attributes part of a line total to a specific form.
type Source struct {
	FormType FormType        `json:"formType"`
	FormID   string          `json:"formId"`
	Amount   decimal.Decimal `json:"amount"`
}

// AggregatedLine is the per-line total across many records.
type AggregatedLine struct {
	Line        string          `json:"line"`
	Description string          `json:"description"`
	Schedule    string          `json:"schedule,omitempty"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	Sources     []Source        `json:"sources"`
}

// Amounts are written as JSON numbers carrying the exact decimal text.
// decimal.Decimal decodes either form, so older quoted payloads still load.

func (m MappingEntry) MarshalJSON() ([]byte, error) {
	type plain MappingEntry
	return json.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{plain(m), json.Number(m.Amount.String())})
}

func (s Source) MarshalJSON() ([]byte, error) {
	type plain Source
	return json.Marshal(struct {
		plain
		Amount json.Number `json:"amount"`
	}{plain(s), json.Number(s.Amount.String())})
}

func (l AggregatedLine) MarshalJSON() ([]byte, error) {
	type plain AggregatedLine
	return json.Marshal(struct {
		plain
		TotalAmount json.Number `json:"totalAmount"`
	}{plain(l), json.Number(l.TotalAmount.String())})
}

// Summary is the exportable report for one user and tax year.
type Summary struct {
	TaxYear     int              `json:"taxYear"`
	TotalForms  int              `json:"totalForms"`
	FormsByType map[FormType]int `json:"formsByType"`
	Lines       []AggregatedLine `json:"form1040Lines"`
	GeneratedAt time.Time        `json:"generatedAt"`
}
