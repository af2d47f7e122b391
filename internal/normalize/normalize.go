package normalize

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Providers wrap field values inconsistently: a bare number, a formatted
// currency string, or an object exposing "value" or "content". Amount and
// Text unwrap all of these into canonical values.

var currencyJunk = regexp.MustCompile(`[$,\s]|USD`)

// Amount parses an arbitrary provider value into a decimal amount.
// Returns false when the value is absent, empty, or not a number.
// Amount is idempotent: feeding a previously normalized value back in
// yields the same decimal.
func Amount(v interface{}) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case nil:
		return decimal.Decimal{}, false
	case decimal.Decimal:
		return val, true
	case float64:
		return decimal.NewFromFloat(val), true
	case float32:
		return decimal.NewFromFloat32(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case json.Number:
		return parseAmountString(val.String())
	case string:
		return parseAmountString(val)
	case map[string]interface{}:
		if inner, ok := unwrap(val); ok {
			return Amount(inner)
		}
		return decimal.Decimal{}, false
	default:
		return decimal.Decimal{}, false
	}
}

// Text parses an arbitrary provider value into a trimmed string.
// Returns false when the value is absent or unwraps to empty.
func Text(v interface{}) (string, bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case string:
		s := strings.TrimSpace(val)
		return s, s != ""
	case map[string]interface{}:
		if inner, ok := unwrap(val); ok {
			return Text(inner)
		}
		return "", false
	case json.Number:
		return val.String(), true
	case float64:
		d := decimal.NewFromFloat(val)
		return d.String(), true
	default:
		return "", false
	}
}

// unwrap pulls the payload out of a {value} or {content} wrapper object.
// "value" takes priority when both are present.
func unwrap(m map[string]interface{}) (interface{}, bool) {
	if v, ok := m["value"]; ok && v != nil {
		return v, true
	}
	if v, ok := m["content"]; ok && v != nil {
		return v, true
	}
	return nil, false
}

func parseAmountString(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, false
	}

	// Accounting-style parentheses mean negative.
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = currencyJunk.ReplaceAllString(s, "")
	if s == "" || s == "-" {
		return decimal.Decimal{}, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
