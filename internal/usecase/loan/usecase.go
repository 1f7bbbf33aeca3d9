package loan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"edu-lending-core/internal/domain/errs"
	"edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/domain/uow"
	"edu-lending-core/pkg/id"
	"edu-lending-core/pkg/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxTermMonths = 360

var ErrInvalidInput = fmt.Errorf("loan request: %w", errs.ErrInvalidInput)

// CreditProfileProvider looks up the scoring service's view of a borrower.
type CreditProfileProvider interface {
	GetCreditProfile(ctx context.Context, userID string) (*loan.CreditProfile, error)
}

type Usecase struct {
	repo     loan.Repository
	uow      uow.UnitOfWork
	credit   CreditProfileProvider
	defaults Defaults
	log      *zap.Logger
	now      func() time.Time
}

func NewUsecase(r loan.Repository, tx uow.UnitOfWork, credit CreditProfileProvider, d Defaults, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repo: r, uow: tx, credit: credit, defaults: d, log: log, now: time.Now}
}

func (u *Usecase) Create(ctx context.Context, in CreateLoanInput) (*LoanDTO, error) {
	if !id.Valid(in.BorrowerID) || !id.Valid(in.InstitutionID) {
		return nil, ErrInvalidInput
	}
	if !money.Positive(in.Amount) {
		return nil, fmt.Errorf("loan amount %s: %w", in.Amount, errs.ErrInvalidAmount)
	}
	if in.TermMonths < 1 || in.TermMonths > maxTermMonths || !validPct(in.MonthlyRate) {
		return nil, ErrInvalidInput
	}
	pcts := []*decimal.Decimal{in.OriginationPct, in.MarketplacePct, in.CustodyPctMonthly, in.SpreadPctAnnual}
	for _, p := range pcts {
		if p != nil && !validPct(*p) {
			return nil, ErrInvalidInput
		}
	}

	// one pending loan per borrower
	pending, err := u.repo.GetPendingLoanByBorrowerID(ctx, in.BorrowerID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", loan.ErrPendingExists, pending.LoanID)
	case !isNotFound(err):
		return nil, err
	}

	now := u.now().UTC()
	l := &loan.Loan{
		LoanID:            id.NewID32(),
		BorrowerID:        in.BorrowerID,
		InstitutionID:     in.InstitutionID,
		Amount:            in.Amount,
		TermMonths:        in.TermMonths,
		MonthlyRate:       in.MonthlyRate,
		Status:            loan.StatusPending,
		AmountFunded:      decimal.Zero,
		OriginationPct:    orDefault(in.OriginationPct, u.defaults.OriginationPct),
		MarketplacePct:    orDefault(in.MarketplacePct, u.defaults.MarketplacePct),
		CustodyPctMonthly: orDefault(in.CustodyPctMonthly, u.defaults.CustodyPctMonthly),
		SpreadPctAnnual:   orDefault(in.SpreadPctAnnual, u.defaults.SpreadPctAnnual),
		StatusUpdatedAt:   now,
	}
	if err := u.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	u.log.Info("loan created",
		zap.String("loan_id", l.LoanID),
		zap.String("borrower_id", l.BorrowerID),
		zap.String("amount", l.Amount.StringFixed(2)))

	dto := ToDTO(l)
	return &dto, nil
}

func (u *Usecase) Get(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	dto := ToDTO(l)
	return &dto, nil
}

// Publish opens a pending loan for matching once the borrower passes the
// credit check. The scoring service is called outside the transaction; the
// status is re-checked under the row lock before the transition.
func (u *Usecase) Publish(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if l.Status != loan.StatusPending {
		return nil, loan.ErrInvalidTransition
	}

	profile, err := u.credit.GetCreditProfile(ctx, l.BorrowerID)
	if err != nil {
		return nil, fmt.Errorf("credit profile for %s: %w", l.BorrowerID, err)
	}
	if !profile.Eligible(u.defaults.MaxFraudSeverity) {
		u.log.Warn("borrower ineligible",
			zap.String("loan_id", loanID),
			zap.String("risk_band", profile.RiskBand),
			zap.Int("fraud_severity", profile.FraudSeverity))
		return nil, loan.ErrIneligible
	}

	var dto LoanDTO
	err = u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *loan.Loan) error {
		if l.Status != loan.StatusPending {
			return loan.ErrInvalidTransition
		}
		l.Transition(loan.StatusOpen, u.now())
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		dto = ToDTO(l)
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.Info("loan published", zap.String("loan_id", loanID), zap.Int("score", profile.Score))
	return &dto, nil
}

func ToDTO(l *loan.Loan) LoanDTO {
	return LoanDTO{
		LoanID:                   l.LoanID,
		BorrowerID:               l.BorrowerID,
		InstitutionID:            l.InstitutionID,
		CustodyAccountRef:        l.CustodyAccountRef,
		Amount:                   l.Amount,
		TermMonths:               l.TermMonths,
		MonthlyRate:              l.MonthlyRate,
		Status:                   string(l.Status),
		AmountFunded:             l.AmountFunded,
		OriginationPct:           l.OriginationPct,
		MarketplacePct:           l.MarketplacePct,
		CustodyPctMonthly:        l.CustodyPctMonthly,
		SpreadPctAnnual:          l.SpreadPctAnnual,
		RevenueForecastFirstYear: l.RevenueForecastFirstYear,
		DisbursedAt:              l.DisbursedAt,
		CreatedAt:                l.CreatedAt,
	}
}

// validPct accepts [0, 1) with at most four decimals.
func validPct(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThan(decimal.NewFromInt(1)) && p.Equal(p.Round(money.RateScale))
}

func orDefault(p *decimal.Decimal, d decimal.Decimal) decimal.Decimal {
	if p != nil {
		return *p
	}
	return d
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, loan.ErrNotFound)
}
