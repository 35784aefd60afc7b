package core

// convert.go provides type conversion for user-submitted form values.
//
// These functions handle the messy reality of hand-entered and imported data:
//   - JSON numbers (float64 or json.Number), YAML ints, and numeric strings
//   - Currency symbols and thousand separators in amounts
//   - Accounting format for negatives ("(123.45)")
//   - Various boolean representations (yes/no, true/false, 1/0)
//   - Excel formula prefixes (="value") and stray quotes
//
// Conversion happens exactly once, at the validation boundary. Nothing
// downstream of Validate re-parses a value.

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers and decimals; scientific notation is not accepted for money.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

var errNotNumeric = errors.New("invalid number format")

// dateLayouts are tried in order; all carry a four-digit year.
var dateLayouts = []string{
	"2006-01-02", "2006/01/02",
	"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006",
	"Jan 2, 2006", "2 Jan 2006",
	"20060102",
}

// variousDate is the literal brokers print when lots were acquired on several dates.
const variousDate = "VARIOUS"

// ParseAmount converts a submitted value to an exact decimal.
// Returns ok=false (and no error) for nil and blank strings.
func ParseAmount(v any) (d decimal.Decimal, ok bool, err error) {
	switch val := v.(type) {
	case nil:
		return decimal.Decimal{}, false, nil
	case decimal.Decimal:
		return val, true, nil
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return decimal.Decimal{}, false, errNotNumeric
		}
		return d, true, nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return decimal.Decimal{}, false, errNotNumeric
		}
		return decimal.NewFromFloat(val), true, nil
	case float32:
		return ParseAmount(float64(val))
	case int:
		return decimal.NewFromInt(int64(val)), true, nil
	case int64:
		return decimal.NewFromInt(val), true, nil
	case int32:
		return decimal.NewFromInt(int64(val)), true, nil
	case uint64:
		return decimal.NewFromUint64(val), true, nil
	case string:
		s := cleanNumeric(val)
		if s == "" {
			return decimal.Decimal{}, false, nil
		}
		if !numericRegex.MatchString(s) {
			return decimal.Decimal{}, false, errNotNumeric
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, false, errNotNumeric
		}
		return d, true, nil
	default:
		return decimal.Decimal{}, false, errNotNumeric
	}
}

// cleanNumeric strips currency symbols, thousands separators and the
// accounting-format parentheses from a numeric string.
func cleanNumeric(s string) string {
	s = CleanCell(s)
	if s == "" {
		return ""
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}
	return s
}

var maxCount = decimal.NewFromInt(math.MaxInt64)

// ParseCount converts a submitted value to a non-negative whole number.
func ParseCount(v any) (n int64, ok bool, err error) {
	d, ok, err := ParseAmount(v)
	if err != nil || !ok {
		return 0, ok, err
	}
	if !d.IsInteger() {
		return 0, false, fmt.Errorf("must be a whole number")
	}
	if d.Abs().GreaterThan(maxCount) {
		return 0, false, fmt.Errorf("is too large")
	}
	return d.IntPart(), true, nil
}

// ParseBool accepts true/false, yes/no, t/f, y/n and 1/0.
func ParseBool(v any) (b bool, ok bool, err error) {
	switch val := v.(type) {
	case nil:
		return false, false, nil
	case bool:
		return val, true, nil
	case string:
		s := strings.TrimSpace(strings.ToLower(val))
		switch s {
		case "":
			return false, false, nil
		case "true", "t", "yes", "y", "1":
			return true, true, nil
		case "false", "f", "no", "n", "0":
			return false, true, nil
		}
	case float64:
		if val == 0 || val == 1 {
			return val == 1, true, nil
		}
	case int:
		if val == 0 || val == 1 {
			return val == 1, true, nil
		}
	}
	return false, false, fmt.Errorf("must be yes/no, true/false, or 1/0")
}

// ParseDate normalizes a date string to YYYY-MM-DD.
// The literal "various" is accepted and returned as "VARIOUS".
func ParseDate(s string) (string, error) {
	s = CleanCell(s)
	if strings.EqualFold(s, variousDate) {
		return variousDate, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), nil
		}
	}
	return "", fmt.Errorf("invalid date format (use YYYY-MM-DD or MM/DD/YYYY)")
}

// ToText converts a submitted scalar to a trimmed string.
// Returns ok=false for nil and for values that are not scalars.
func ToText(v any) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		return strings.TrimSpace(val), true
	case json.Number:
		return val.String(), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case bool:
		return strconv.FormatBool(val), true
	default:
		return "", false
	}
}

// CleanCell removes common spreadsheet artifacts from a value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)
	return strings.TrimSpace(s)
}

// normalizeFormTag maps "1099-div", "Form 1099 DIV" and "div" to "DIV".
func normalizeFormTag(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "FORM")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "1099")
	s = strings.TrimLeft(s, "- _")
	return s
}
