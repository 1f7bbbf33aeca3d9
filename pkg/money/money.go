package money

import "github.com/shopspring/decimal"

// Scale is the number of decimal places kept on monetary columns.
const Scale = 2

// RateScale is the number of decimal places kept on rate columns.
const RateScale = 4

var (
	Zero    = decimal.Zero
	Hundred = decimal.NewFromInt(100)
	// Cent is the rounding tolerance used by split invariants.
	Cent = decimal.New(1, -Scale)
)

// Round rounds half away from zero to cents.
func Round(d decimal.Decimal) decimal.Decimal { return d.Round(Scale) }

// IsCents reports whether d carries no more than two decimal places.
func IsCents(d decimal.Decimal) bool { return d.Equal(d.Round(Scale)) }

// Positive reports whether d is a strictly positive amount in cents.
func Positive(d decimal.Decimal) bool { return d.IsPositive() && IsCents(d) }

// WithinCent reports |a-b| <= 0.01.
func WithinCent(a, b decimal.Decimal) bool { return a.Sub(b).Abs().LessThanOrEqual(Cent) }

// Must parses s or panics; for constants and tests.
func Must(s string) decimal.Decimal { return decimal.RequireFromString(s) }
