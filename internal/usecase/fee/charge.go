package fee

import (
	"context"
	"fmt"
	"time"

	domainFee "edu-lending-core/internal/domain/fee"
	domainLedger "edu-lending-core/internal/domain/ledger"
	domainLoan "edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/domain/uow"
	"edu-lending-core/internal/usecase/custody"
	"edu-lending-core/internal/usecase/ledger"
	"edu-lending-core/pkg/money"

	"github.com/shopspring/decimal"
)

// ChargeInTx posts one fee to the platform and records it, inside the caller's
// transaction. l must be locked. Custody fees are paid by the loan custody
// account (provisioned if absent); every other fee by the borrower. Periodic
// fees need a disbursed or repaying loan.
func ChargeInTx(ctx context.Context, r uow.Repos, l *domainLoan.Loan, t domainFee.Type, amount decimal.Decimal, p domainFee.Period) (*domainFee.LoanFee, error) {
	if !t.Valid() {
		return nil, domainFee.ErrUnknownType
	}
	if t.Periodic() && !l.Status.Billable() {
		return nil, fmt.Errorf("%w: status %s", domainFee.ErrNotBillable, l.Status)
	}
	if !money.Positive(amount) {
		return nil, domainLedger.ErrInvalidAmount
	}
	dup, err := r.Fees.Exists(ctx, l.ID, t, p.Start)
	if err != nil {
		return nil, err
	}
	if dup {
		return nil, domainFee.ErrDuplicateCharge
	}

	platform, err := ledger.EnsurePlatform(ctx, r)
	if err != nil {
		return nil, err
	}
	ref := domainFee.Reference(l.LoanID, t, p)

	if t == domainFee.TypeCustody {
		a, err := custody.EnsureForLoan(ctx, r, l)
		if err != nil {
			return nil, err
		}
		if a, err = r.Custody.GetByCustodyIDForUpdate(ctx, a.CustodyID); err != nil {
			return nil, err
		}
		if _, err := custody.Charge(ctx, r, a, platform.ID, amount, string(t), ref); err != nil {
			return nil, err
		}
	} else {
		borrower, err := ledger.EnsureBorrower(ctx, r, l.BorrowerID)
		if err != nil {
			return nil, err
		}
		if _, err := ledger.Post(ctx, r, domainLedger.Transfer{
			From:         borrower.ID,
			To:           platform.ID,
			Amount:       amount,
			Category:     custody.CategoryFee,
			Subcategory:  string(t),
			ReferenceTag: ref,
			Meta:         map[string]any{"loan_id": l.LoanID},
		}); err != nil {
			return nil, err
		}
	}

	f := &domainFee.LoanFee{
		LoanID:      l.ID,
		FeeType:     t,
		Amount:      amount,
		PeriodStart: p.Start,
		PeriodEnd:   p.End,
		LedgerRef:   ref,
	}
	if err := r.Fees.Create(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// ChargeDisbursementFees charges origination and marketplace fees. It belongs
// to the matched -> disbursed edge only; a zero percentage charges nothing.
func ChargeDisbursementFees(ctx context.Context, r uow.Repos, l *domainLoan.Loan, at time.Time) ([]domainFee.LoanFee, error) {
	var out []domainFee.LoanFee
	for _, c := range []struct {
		t   domainFee.Type
		pct decimal.Decimal
	}{
		{domainFee.TypeOrigination, l.OriginationPct},
		{domainFee.TypeMarketplace, l.MarketplacePct},
	} {
		amount := money.Round(l.Amount.Mul(c.pct))
		if !amount.IsPositive() {
			continue
		}
		f, err := ChargeInTx(ctx, r, l, c.t, amount, domainFee.Day(at))
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, nil
}

// CustodyMonthly is one month of custody fee for l.
func CustodyMonthly(l *domainLoan.Loan) decimal.Decimal {
	return money.Round(l.Amount.Mul(l.CustodyPctMonthly))
}

// RevenueFirstYear rounds each component before summing.
func RevenueFirstYear(l *domainLoan.Loan) RevenueDTO {
	orig := money.Round(l.Amount.Mul(l.OriginationPct))
	mkt := money.Round(l.Amount.Mul(l.MarketplacePct))
	cust := money.Round(l.Amount.Mul(l.CustodyPctMonthly).Mul(decimal.NewFromInt(12)))
	spread := money.Round(l.Amount.Mul(l.SpreadPctAnnual))
	return RevenueDTO{
		LoanID:      l.LoanID,
		Origination: orig,
		Marketplace: mkt,
		Custody:     cust,
		Spread:      spread,
		Total:       orig.Add(mkt).Add(cust).Add(spread),
	}
}

func toFeeDTO(f *domainFee.LoanFee) FeeDTO {
	return FeeDTO{
		FeeType:     string(f.FeeType),
		Amount:      f.Amount,
		PeriodStart: f.PeriodStart,
		PeriodEnd:   f.PeriodEnd,
		LedgerRef:   f.LedgerRef,
		CreatedAt:   f.CreatedAt,
	}
}
