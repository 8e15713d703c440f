package fee

import "github.com/shopspring/decimal"

// Dollars converts cents to an exact decimal dollar amount.
func Dollars(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// DueBadge rounds to the nearest whole dollar, halves away from zero.
func DueBadge(cents int64) decimal.Decimal {
	return Dollars(cents).Round(0)
}

// FormatDollars renders cents as "$12.34".
func FormatDollars(cents int64) string {
	return "$" + Dollars(cents).StringFixed(2)
}

// FormatBadge renders the rounded due badge, e.g. "$35".
func FormatBadge(cents int64) string {
	return "$" + DueBadge(cents).String()
}
