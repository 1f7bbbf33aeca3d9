// Package billing runs the periodic jobs: monthly custody fees and the
// overdue sweep. Each run holds a distributed lock so that only one worker
// instance bills a given cycle.
package billing

import (
	"context"
	"errors"
	"time"

	domainFee "edu-lending-core/internal/domain/fee"
	domainLedger "edu-lending-core/internal/domain/ledger"
	domainLoan "edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/infrastructure/lock"
	"edu-lending-core/internal/usecase/fee"

	"go.uber.org/zap"
)

type CustodyCharger interface {
	ChargeCustodyMonthly(ctx context.Context, loanID string, date time.Time) (*fee.FeeDTO, error)
}

type OverdueMarker interface {
	MarkOverdue(ctx context.Context, asOf time.Time) (int, error)
}

type LedgerTotals interface {
	Totals(ctx context.Context) (domainLedger.Totals, error)
}

// CustodyRun summarizes one monthly custody billing pass.
type CustodyRun struct {
	Period  string
	Charged int
	Skipped int
	Failed  int
}

type Usecase struct {
	loans   domainLoan.Repository
	fees    CustodyCharger
	overdue OverdueMarker
	ledger  LedgerTotals
	locker  lock.Locker
	log     *zap.Logger
}

func NewUsecase(loans domainLoan.Repository, fees CustodyCharger, overdue OverdueMarker, ledger LedgerTotals, locker lock.Locker, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{loans: loans, fees: fees, overdue: overdue, ledger: ledger, locker: locker, log: log.Named("billing")}
}

// RunMonthlyCustody charges the custody fee for the period starting at date
// on every disbursed or repaying loan. Loans already billed for the period, or
// no longer billable by the time they are reached, are skipped. A failure on
// one loan does not stop the others.
func (u *Usecase) RunMonthlyCustody(ctx context.Context, date time.Time) (*CustodyRun, error) {
	period := domainFee.MonthFrom(date)
	run := &CustodyRun{Period: period.Start.Format("2006-01-02")}

	err := u.locker.WithLock(ctx, "billing:custody:"+run.Period, func(ctx context.Context) error {
		loans, err := u.loans.ListByStatus(ctx, domainLoan.StatusDisbursed, domainLoan.StatusRepaying)
		if err != nil {
			return err
		}
		for _, l := range loans {
			_, err := u.fees.ChargeCustodyMonthly(ctx, l.LoanID, period.Start)
			switch {
			case err == nil:
				run.Charged++
			case errors.Is(err, domainFee.ErrDuplicateCharge), errors.Is(err, domainFee.ErrNotBillable):
				run.Skipped++
			default:
				run.Failed++
				u.log.Error("custody fee failed", zap.String("loan_id", l.LoanID), zap.Error(err))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("custody billing done",
		zap.String("period", run.Period),
		zap.Int("charged", run.Charged),
		zap.Int("skipped", run.Skipped),
		zap.Int("failed", run.Failed))
	u.Audit(ctx)
	return run, nil
}

// RunOverdue flags installments past due as of asOf.
func (u *Usecase) RunOverdue(ctx context.Context, asOf time.Time) (int, error) {
	var n int
	err := u.locker.WithLock(ctx, "billing:overdue:"+asOf.UTC().Format("2006-01-02"), func(ctx context.Context) error {
		var err error
		n, err = u.overdue.MarkOverdue(ctx, asOf)
		return err
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// Audit compares ledger-wide debits and credits and reports whether they match.
func (u *Usecase) Audit(ctx context.Context) bool {
	t, err := u.ledger.Totals(ctx)
	if err != nil {
		u.log.Error("ledger audit failed", zap.Error(err))
		return false
	}
	if !t.Balanced() {
		u.log.Error("ledger out of balance",
			zap.String("debits", t.Debits.StringFixed(2)),
			zap.String("credits", t.Credits.StringFixed(2)))
		return false
	}
	u.log.Info("ledger balanced", zap.String("total", t.Debits.StringFixed(2)))
	return true
}
