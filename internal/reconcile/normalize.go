package reconcile

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"medibill/internal/domain"
)

var currencySymbols = []string{"₹", "$", "€", "£"}

// lowercase multi-char currency markers stripped from the front of a value.
var currencyPrefixes = []string{"rs.", "rs", "inr"}

// normalizeAmount converts a heterogeneous numeric representation (integer,
// float, or string with currency symbols and thousands separators) into a
// canonical decimal. Idempotent on already-canonical values. Fails with
// domain.ErrInvalidNumericValue when the value is absent or unparseable.
func normalizeAmount(v any) (decimal.Decimal, error) {
	d, present, err := normalizeField(v, true)
	if err != nil {
		return decimal.Zero, err
	}
	if !present {
		return decimal.Zero, fmt.Errorf("%w: value is missing", domain.ErrInvalidNumericValue)
	}
	return d, nil
}

// normalizeField parses v into a decimal. present is false for nil, empty,
// and null-like values; absence is not an error but the reconciler's cue to
// derive the field. allowNegative gates negative monetary values.
func normalizeField(v any, allowNegative bool) (decimal.Decimal, bool, error) {
	var d decimal.Decimal

	switch t := v.(type) {
	case nil:
		return decimal.Zero, false, nil
	case json.Number:
		parsed, err := decimal.NewFromString(t.String())
		if err != nil {
			return decimal.Zero, false, fmt.Errorf("%w: %q", domain.ErrInvalidNumericValue, t.String())
		}
		d = parsed
	case float64:
		d = decimal.NewFromFloat(t)
	case int:
		d = decimal.NewFromInt(int64(t))
	case int64:
		d = decimal.NewFromInt(t)
	case string:
		s := stripCurrency(t)
		if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
			return decimal.Zero, false, nil
		}
		parsed, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false, fmt.Errorf("%w: %q", domain.ErrInvalidNumericValue, t)
		}
		d = parsed
	default:
		return decimal.Zero, false, fmt.Errorf("%w: unsupported type %T", domain.ErrInvalidNumericValue, v)
	}

	if d.IsNegative() && !allowNegative {
		return decimal.Zero, false, fmt.Errorf("%w: negative value %s not permitted", domain.ErrInvalidNumericValue, d)
	}
	return d, true, nil
}

// stripCurrency removes known currency symbols, thousands-separator commas,
// and whitespace from a numeric string.
func stripCurrency(s string) string {
	s = strings.NewReplacer(",", "", " ", "", " ", "", "\t", "").Replace(strings.TrimSpace(s))

	for {
		before := s
		for _, sym := range currencySymbols {
			s = strings.TrimPrefix(s, sym)
			s = strings.TrimSuffix(s, sym)
		}
		lower := strings.ToLower(s)
		for _, p := range currencyPrefixes {
			if strings.HasPrefix(lower, p) {
				s = s[len(p):]
				lower = strings.ToLower(s)
			}
		}
		if s == before {
			return s
		}
	}
}
