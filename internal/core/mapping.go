package core

// MapToDestinationLines derives the Form 1040 line entries for one record.
//
// Rules are applied in their registered order. A rule emits an entry only
// when its source field holds a positive amount; absent, non-numeric, zero
// and negative values emit nothing. Entries are not merged here, so two rules
// targeting the same line produce two entries.
func MapToDestinationLines(formType FormType, rec FormRecord) ([]MappingEntry, error) {
	rules, err := Rules(formType)
	if err != nil {
		return nil, err
	}

	entries := make([]MappingEntry, 0, len(rules))
	for _, rule := range rules {
		amount, ok := rec.Amount(rule.SourceField)
		if !ok || !amount.IsPositive() {
			continue
		}
		if rule.Transform != nil {
			amount = rule.Transform(amount)
		}
		entries = append(entries, MappingEntry{
			Line:        rule.Line.Line,
			Description: rule.Line.Description,
			Schedule:    rule.Line.Schedule,
			SourceField: rule.SourceField,
			Amount:      amount,
		})
	}
	return entries, nil
}
