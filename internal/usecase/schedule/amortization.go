package schedule

import (
	"time"

	"edu-lending-core/pkg/money"

	"github.com/shopspring/decimal"
)

// Line is one row of an amortization table.
type Line struct {
	Number    int
	Amount    decimal.Decimal
	Principal decimal.Decimal
	Interest  decimal.Decimal
}

// Payment is the fixed monthly payment P·r·(1+r)^n / ((1+r)^n − 1), or P/n
// when r is zero, rounded to cents.
func Payment(principal, rate decimal.Decimal, n int) decimal.Decimal {
	if rate.IsZero() {
		return money.Round(principal.Div(decimal.NewFromInt(int64(n))))
	}
	growth := decimal.NewFromInt(1).Add(rate).Pow(decimal.NewFromInt(int64(n)))
	return money.Round(principal.Mul(rate).Mul(growth).Div(growth.Sub(decimal.NewFromInt(1))))
}

// Amortize splits principal into n equal payments. Interest is charged on the
// outstanding balance each month; the last line takes whatever principal is
// left so the principals sum to exactly principal.
func Amortize(principal, rate decimal.Decimal, n int) []Line {
	pmt := Payment(principal, rate, n)
	balance := principal
	out := make([]Line, 0, n)
	for k := 1; k <= n; k++ {
		interest := money.Round(balance.Mul(rate))
		p := pmt.Sub(interest)
		amount := pmt
		if k == n {
			p = balance
			interest = pmt.Sub(p)
			if rate.IsZero() || interest.IsNegative() {
				// the last payment absorbs the rounding cents of P/n
				interest = decimal.Zero
				amount = p
			}
		}
		out = append(out, Line{Number: k, Amount: amount, Principal: p, Interest: interest})
		balance = balance.Sub(p)
	}
	return out
}

// Shares splits amount into the investor part and the platform remainder.
func Shares(amount, platformPct decimal.Decimal) (investor, platform decimal.Decimal) {
	investor = money.Round(amount.Mul(decimal.NewFromInt(1).Sub(platformPct)))
	return investor, amount.Sub(investor)
}

// AddMonths moves d by n calendar months, clamping to the last day of the
// target month (Jan 31 + 1 month is Feb 28/29, not Mar 3).
func AddMonths(d time.Time, n int) time.Time {
	d = d.UTC()
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	last := first.AddDate(0, 1, -1).Day()
	day := d.Day()
	if day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}
