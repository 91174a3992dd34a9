package ledger

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// round2 rounds to 2 decimal places, half away from zero (standard
// currency rounding). Applied at every derived stage so that displayed
// intermediate values are exactly the values used downstream.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// parseDecimal converts raw user input to a decimal. Anything that does
// not parse becomes zero; a bad keystroke must never poison the arithmetic.
func parseDecimal(raw string) decimal.Decimal {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParsePercent parses raw user input as a percentage with the standard
// recovery rules: unparseable input becomes 0, the result is clamped to
// [0, 100]. Hosts use it for percent fields that live outside the
// ledger (progress bars, document headers).
func ParsePercent(raw string) decimal.Decimal {
	return clampPercent(parseDecimal(raw))
}

// clampPercent limits a percentage to [0, 100].
func clampPercent(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	if d.GreaterThan(hundred) {
		return hundred
	}
	return d
}
