// Package core provides the business logic for mapping 1099 information
// returns onto Form 1040.
//
// The package is independent of any UI or storage layer. It can be used by
// the web handlers, the CLI, or tests without modification.
//
// # Form Registry
//
// Form types are registered at init time using [Register]. Each
// [FormDefinition] carries the field specs used by [Validate] and the ordered
// mapping rules used by [MapToDestinationLines]:
//
//	core.Register(FormDefinition{
//	    Info: FormInfo{Type: FormINT, Title: "Form 1099-INT"},
//	    FieldSpecs: []FieldSpec{
//	        {Name: "interestIncome", Type: FieldCurrency, Required: true},
//	    },
//	    Rules: []MappingRule{
//	        {SourceField: "interestIncome", Line: DestinationLine{Line: "2a", Description: "Taxable interest"}},
//	    },
//	})
//
// The definitions for the eight supported forms live in package forms.
//
// # Pipeline
//
//  1. [Validate] converts an untyped submission into a [FormRecord], or
//     returns a [ValidationError] listing every bad field.
//  2. [MapToDestinationLines] turns a record into [MappingEntry] values.
//  3. [Aggregate] sums entries from many records per destination line,
//     keeping per-form attribution, and [ToSummary] packages the result.
//
// All amounts are [decimal.Decimal]; sums are exact.
//
// # Service
//
// [Service] ties the pipeline to a [FormStore] and caches summaries per user
// and tax year. Errors are mapped to user-facing messages with [MapError].
package core
