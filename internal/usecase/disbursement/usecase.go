package disbursement

import (
	"context"
	"time"

	domainLoan "edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/domain/uow"
	"edu-lending-core/internal/infrastructure/metrics"
	"edu-lending-core/internal/usecase/custody"
	"edu-lending-core/internal/usecase/fee"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ReleaseDTO struct {
	LoanID               string          `json:"loan_id"`
	Status               string          `json:"status"`
	Amount               decimal.Decimal `json:"amount"`
	InstitutionCustodyID string          `json:"institution_custody_id"`
	DisbursedAt          time.Time       `json:"disbursed_at"`
	Fees                 []fee.FeeDTO    `json:"fees"`
}

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

// ReleaseToInstitution pays a matched loan out to its institution and charges
// the disbursement fees, all in one transaction. Only a matched loan can be
// released, so a second call fails with ErrInvalidTransition and posts nothing.
func (u *Usecase) ReleaseToInstitution(ctx context.Context, loanID string) (*ReleaseDTO, error) {
	var dto *ReleaseDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if l.Status != domainLoan.StatusMatched {
			return domainLoan.ErrInvalidTransition
		}
		at := u.now().UTC()

		src, err := custody.EnsureForLoan(ctx, r, l)
		if err != nil {
			return err
		}
		dst, err := custody.EnsureInstitution(ctx, r, l.InstitutionID)
		if err != nil {
			return err
		}
		// lock order: loan account, then institution account
		if src, err = r.Custody.GetByCustodyIDForUpdate(ctx, src.CustodyID); err != nil {
			return err
		}
		if dst, err = r.Custody.GetByCustodyIDForUpdate(ctx, dst.CustodyID); err != nil {
			return err
		}

		ref := ReleaseRef(l.LoanID)
		if src.BlockedAmount.IsPositive() {
			if _, err := custody.Unblock(ctx, r, src, src.BlockedAmount, ref); err != nil {
				return err
			}
		}
		if _, err := custody.Move(ctx, r, src, dst, l.Amount, custody.CategoryTransfer, ref); err != nil {
			return err
		}

		l.Transition(domainLoan.StatusDisbursed, at)
		l.DisbursedAt = &at
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		fees, err := fee.ChargeDisbursementFees(ctx, r, l, at)
		if err != nil {
			return err
		}

		dto = &ReleaseDTO{
			LoanID:               l.LoanID,
			Status:               string(l.Status),
			Amount:               l.Amount,
			InstitutionCustodyID: dst.CustodyID,
			DisbursedAt:          at,
			Fees:                 make([]fee.FeeDTO, 0, len(fees)),
		}
		for _, f := range fees {
			dto.Fees = append(dto.Fees, fee.FeeDTO{
				FeeType: string(f.FeeType), Amount: f.Amount,
				PeriodStart: f.PeriodStart, PeriodEnd: f.PeriodEnd, LedgerRef: f.LedgerRef,
			})
		}
		return nil
	})
	if err != nil {
		custody.Alert(u.log, u.metrics, "release", err, zap.String("loan_id", loanID))
		return nil, err
	}

	u.metrics.Posting(custody.CategoryTransfer)
	for _, f := range dto.Fees {
		u.metrics.Fee(f.FeeType)
		u.metrics.Posting(custody.CategoryFee)
	}
	u.log.Info("loan disbursed",
		zap.String("loan_id", dto.LoanID),
		zap.String("amount", dto.Amount.StringFixed(2)),
		zap.String("institution_custody_id", dto.InstitutionCustodyID))
	return dto, nil
}

func ReleaseRef(loanID string) string { return "release:" + loanID }
