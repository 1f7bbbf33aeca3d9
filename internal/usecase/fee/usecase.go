package fee

import (
	"context"
	"time"

	domainFee "edu-lending-core/internal/domain/fee"
	domainLoan "edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/domain/uow"
	"edu-lending-core/internal/infrastructure/metrics"
	"edu-lending-core/internal/usecase/custody"

	"go.uber.org/zap"
)

type Usecase struct {
	uow     uow.UnitOfWork
	log     *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

func NewUsecase(tx uow.UnitOfWork, log *zap.Logger, m *metrics.Collector) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, log: log, metrics: m, now: time.Now}
}

// ChargeFee charges a periodic fee by hand. Origination and marketplace fees
// are rejected here; the release charges them once.
func (u *Usecase) ChargeFee(ctx context.Context, in ChargeInput) (*FeeDTO, error) {
	t := domainFee.Type(in.FeeType)
	if !t.Valid() {
		return nil, domainFee.ErrUnknownType
	}
	if !t.Periodic() {
		return nil, domainFee.ErrReleaseOnly
	}
	start := u.now()
	if in.PeriodStart != nil {
		start = *in.PeriodStart
	}
	p := domainFee.Day(start)
	if t == domainFee.TypeCustody {
		p = domainFee.MonthFrom(start)
	}

	var dto FeeDTO
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		f, err := ChargeInTx(ctx, r, l, t, in.Amount, p)
		if err != nil {
			return err
		}
		dto = toFeeDTO(f)
		return nil
	})
	if err != nil {
		custody.Alert(u.log, u.metrics, "charge_fee", err, zap.String("loan_id", in.LoanID))
		return nil, err
	}
	u.charged(in.LoanID, dto)
	return &dto, nil
}

// ChargeCustodyMonthly bills [date, date+1m-1d]. A second call for the same
// period fails with ErrDuplicateCharge and posts nothing.
func (u *Usecase) ChargeCustodyMonthly(ctx context.Context, loanID string, date time.Time) (*FeeDTO, error) {
	var dto FeeDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		f, err := ChargeInTx(ctx, r, l, domainFee.TypeCustody, CustodyMonthly(l), domainFee.MonthFrom(date))
		if err != nil {
			return err
		}
		dto = toFeeDTO(f)
		return nil
	})
	if err != nil {
		custody.Alert(u.log, u.metrics, "charge_custody_monthly", err, zap.String("loan_id", loanID))
		return nil, err
	}
	u.charged(loanID, dto)
	return &dto, nil
}

// ComputeRevenueFirstYear stores the forecast on the loan. It charges nothing.
func (u *Usecase) ComputeRevenueFirstYear(ctx context.Context, loanID string) (*RevenueDTO, error) {
	var dto RevenueDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		dto = RevenueFirstYear(l)
		l.RevenueForecastFirstYear = dto.Total
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (u *Usecase) List(ctx context.Context, loanID string) ([]FeeDTO, error) {
	var out []FeeDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		fees, err := r.Fees.ListByLoan(ctx, l.ID)
		if err != nil {
			return err
		}
		out = make([]FeeDTO, 0, len(fees))
		for i := range fees {
			out = append(out, toFeeDTO(&fees[i]))
		}
		return nil
	})
	return out, err
}

func (u *Usecase) charged(loanID string, f FeeDTO) {
	u.metrics.Fee(f.FeeType)
	u.metrics.Posting(custody.CategoryFee)
	u.log.Info("fee charged",
		zap.String("loan_id", loanID),
		zap.String("fee_type", f.FeeType),
		zap.String("amount", f.Amount.StringFixed(2)),
		zap.String("ledger_ref", f.LedgerRef))
}
