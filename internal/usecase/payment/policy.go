package payment

import (
	"time"

	domainInstallment "edu-lending-core/internal/domain/installment"
	"edu-lending-core/pkg/money"

	"github.com/shopspring/decimal"
)

// Classify compares calendar days only. Paying inside the early window still counts as on time.
func (p Policy) Classify(due, paid time.Time) Timing {
	d, on := day(due), day(paid)
	switch {
	case on.Before(d.AddDate(0, 0, -p.EarlyWindowDays)):
		return TimingEarly
	case on.After(d):
		return TimingLate
	default:
		return TimingOnTime
	}
}

// DueTotal is what settles the installment when paid with the given timing.
func (p Policy) DueTotal(it *domainInstallment.Installment, t Timing) (total, discount, lateFee decimal.Decimal) {
	discount, lateFee = decimal.Zero, decimal.Zero
	switch t {
	case TimingEarly:
		discount = money.Round(it.Amount.Mul(p.EarlyDiscountPct))
	case TimingLate:
		lateFee = money.Round(it.Amount.Mul(p.LateFeePct))
	}
	return it.Amount.Sub(discount).Add(lateFee), discount, lateFee
}

func settledStatus(t Timing) domainInstallment.Status {
	switch t {
	case TimingEarly:
		return domainInstallment.StatusPaidEarly
	case TimingLate:
		return domainInstallment.StatusPaidLate
	default:
		return domainInstallment.StatusPaid
	}
}

// Split divides one payment between the platform and the investors. The
// platform is owed round(paid × share / dueTotal) after the payment, less what
// it already received, so rounding never compounds across partial payments
// and the settling payment leaves the platform with exactly share.
func Split(pay, paidBefore, platformBefore, share, dueTotal decimal.Decimal) (investor, platform decimal.Decimal) {
	if !dueTotal.IsPositive() {
		return pay, decimal.Zero
	}
	paid := paidBefore.Add(pay)
	owed := share
	if paid.LessThan(dueTotal) {
		owed = money.Round(paid.Mul(share).Div(dueTotal))
	}
	platform = owed.Sub(platformBefore)
	switch {
	case platform.IsNegative():
		platform = decimal.Zero
	case platform.GreaterThan(pay):
		platform = pay
	}
	return pay.Sub(platform), platform
}

// ProRata splits amount by weights; the last weight takes the rounding remainder.
func ProRata(amount decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(weights))
	if len(weights) == 0 {
		return out
	}
	total := decimal.Zero
	for _, w := range weights {
		total = total.Add(w)
	}
	left := amount
	for i, w := range weights {
		if i == len(weights)-1 || !total.IsPositive() {
			out[i] = left
			break
		}
		part := money.Round(amount.Mul(w).Div(total))
		out[i] = part
		left = left.Sub(part)
	}
	return out
}

func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
