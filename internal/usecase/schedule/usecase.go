package schedule

import (
	"context"
	"fmt"
	"time"

	"edu-lending-core/internal/domain/errs"
	domainInstallment "edu-lending-core/internal/domain/installment"
	domainLoan "edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/domain/uow"
	"edu-lending-core/pkg/id"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var errInvalidShare = fmt.Errorf("platform share must be in [0, 1): %w", errs.ErrInvalidInput)

type Usecase struct {
	uow         uow.UnitOfWork
	log         *zap.Logger
	platformPct decimal.Decimal
}

func NewUsecase(tx uow.UnitOfWork, platformSharePct decimal.Decimal, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, log: log, platformPct: platformSharePct}
}

// GenerateSchedule writes the loan's repayment plan. A loan gets one plan,
// and only once it has been disbursed.
func (u *Usecase) GenerateSchedule(ctx context.Context, in GenerateInput) ([]InstallmentDTO, error) {
	timing := domainInstallment.Timing(in.Timing)
	if !timing.Valid() {
		return nil, domainInstallment.ErrUnknownTiming
	}
	if timing != domainInstallment.TimingDuringStudies && in.GraduationDate == nil {
		return nil, domainInstallment.ErrMissingGradDate
	}
	if in.GracePeriodMonths < 0 {
		return nil, fmt.Errorf("grace period months: %w", errs.ErrInvalidInput)
	}
	share := u.platformPct
	if in.PlatformSharePct != nil {
		share = *in.PlatformSharePct
	}
	if share.IsNegative() || share.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, errInvalidShare
	}

	var out []InstallmentDTO
	err := u.uow.WithinLoanTx(ctx, in.LoanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusDisbursed && l.Status != domainLoan.StatusRepaying {
			return domainLoan.ErrInvalidTransition
		}
		if l.TermMonths <= 0 {
			return fmt.Errorf("loan term: %w", errs.ErrInvalidInput)
		}
		n, err := r.Installments.CountByLoan(ctx, l.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return domainInstallment.ErrScheduleExists
		}

		start := l.StatusUpdatedAt
		if l.DisbursedAt != nil {
			start = *l.DisbursedAt
		}
		items := Build(l, timing, start, in.GraduationDate, in.GracePeriodMonths, share)
		if err := r.Installments.CreateBatch(ctx, items); err != nil {
			return err
		}
		out = make([]InstallmentDTO, 0, len(items))
		for _, it := range items {
			out = append(out, ToDTO(it))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("schedule generated",
		zap.String("loan_id", in.LoanID),
		zap.String("timing", in.Timing),
		zap.Int("installments", len(out)))
	return out, nil
}

// Build lays the amortization table onto due dates. Timing only moves the
// dates and the phase labels; the amounts never depend on it.
func Build(l *domainLoan.Loan, timing domainInstallment.Timing, start time.Time, grad *time.Time, grace int, platformPct decimal.Decimal) []*domainInstallment.Installment {
	lines := Amortize(l.Amount, l.MonthlyRate, l.TermMonths)
	items := make([]*domainInstallment.Installment, 0, len(lines))
	for _, ln := range lines {
		due, phase := dueDate(timing, start, grad, grace, ln.Number)
		investor, platform := Shares(ln.Amount, platformPct)
		items = append(items, &domainInstallment.Installment{
			InstallmentID:   id.NewID32(),
			LoanID:          l.ID,
			Number:          ln.Number,
			Amount:          ln.Amount,
			PrincipalAmount: ln.Principal,
			InterestAmount:  ln.Interest,
			DueDate:         due,
			PaymentPhase:    phase,
			IsSymbolic:      timing == domainInstallment.TimingHybrid && phase == domainInstallment.PhaseDuringStudies,
			InvestorShare:   investor,
			QiEduFeeShare:   platform,
			Status:          domainInstallment.StatusPending,
			PaidAmount:      decimal.Zero,
			DiscountAmount:  decimal.Zero,
			LateFeeAmount:   decimal.Zero,
		})
	}
	return items
}

func dueDate(timing domainInstallment.Timing, start time.Time, grad *time.Time, grace, k int) (time.Time, domainInstallment.Phase) {
	switch timing {
	case domainInstallment.TimingAfterGraduation:
		return AddMonths(*grad, grace+k-1), domainInstallment.PhaseAfterGraduation
	case domainInstallment.TimingHybrid:
		due := AddMonths(start, k)
		if due.Before(AddMonths(*grad, 0)) {
			return due, domainInstallment.PhaseDuringStudies
		}
		return due, domainInstallment.PhaseAfterGraduation
	default:
		return AddMonths(start, k), domainInstallment.PhaseDuringStudies
	}
}

// Installments lists the plan in installment order.
func (u *Usecase) Installments(ctx context.Context, loanID string) ([]InstallmentDTO, error) {
	var out []InstallmentDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		items, err := r.Installments.ListByLoan(ctx, l.ID)
		if err != nil {
			return err
		}
		out = make([]InstallmentDTO, 0, len(items))
		for i := range items {
			out = append(out, ToDTO(&items[i]))
		}
		return nil
	})
	return out, err
}

// ToDTO is shared with the payment flow.
func ToDTO(it *domainInstallment.Installment) InstallmentDTO {
	return InstallmentDTO{
		InstallmentID:   it.InstallmentID,
		Number:          it.Number,
		Amount:          it.Amount,
		PrincipalAmount: it.PrincipalAmount,
		InterestAmount:  it.InterestAmount,
		DueDate:         it.DueDate,
		PaymentPhase:    string(it.PaymentPhase),
		IsSymbolic:      it.IsSymbolic,
		InvestorShare:   it.InvestorShare,
		QiEduFeeShare:   it.QiEduFeeShare,
		Status:          string(it.Status),
		PaidAmount:      it.PaidAmount,
		PlatformPaid:    it.PlatformPaid,
		DiscountAmount:  it.DiscountAmount,
		LateFeeAmount:   it.LateFeeAmount,
		PaidAt:          it.PaidAt,
	}
}
