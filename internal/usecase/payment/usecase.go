package payment

import (
	"context"
	"fmt"
	"time"

	domainInstallment "edu-lending-core/internal/domain/installment"
	domainLedger "edu-lending-core/internal/domain/ledger"
	domainLoan "edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/domain/uow"
	"edu-lending-core/internal/infrastructure/metrics"
	"edu-lending-core/internal/usecase/ledger"
	"edu-lending-core/internal/usecase/schedule"
	"edu-lending-core/pkg/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const CategoryPayment = "payment"

type Usecase struct {
	uow     uow.UnitOfWork
	policy  Policy
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewUsecase(tx uow.UnitOfWork, p Policy, log *zap.Logger, m *metrics.Collector) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, policy: p, log: log, metrics: m}
}

// Reference is the tag family of one payment event on an installment.
func Reference(installmentID string, seq int) string {
	return fmt.Sprintf("pay:%s:%d", installmentID, seq)
}

// PayInstallment applies one payment. The cash is posted from the borrower to
// the platform and to the loan's investors in one transaction with the status
// change. Partial payments accumulate until the installment is settled; a
// settled installment rejects any further payment without posting.
func (u *Usecase) PayInstallment(ctx context.Context, in PayInput) (*PaymentDTO, error) {
	if !money.Positive(in.Amount) {
		return nil, domainLedger.ErrInvalidAmount
	}
	var (
		dto      *PaymentDTO
		postings int
	)
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		// lock order: installment, then its loan
		it, err := r.Installments.GetByInstallmentIDForUpdate(ctx, in.InstallmentID)
		if err != nil {
			return err
		}
		if it.Status.Settled() {
			return domainInstallment.ErrAlreadySettled
		}
		l, err := r.Loans.GetByIDForUpdate(ctx, it.LoanID)
		if err != nil {
			return err
		}
		if l.Status != domainLoan.StatusDisbursed && l.Status != domainLoan.StatusRepaying {
			return domainLoan.ErrInvalidTransition
		}

		timing := u.policy.Classify(it.DueDate, in.Date)
		dueTotal, discount, lateFee := u.policy.DueTotal(it, timing)
		remaining := dueTotal.Sub(it.PaidAmount)
		if in.Amount.GreaterThan(remaining) {
			return fmt.Errorf("%w: remaining %s", domainInstallment.ErrOverpayment, remaining.StringFixed(2))
		}

		seq := it.Payments + 1
		ref := Reference(it.InstallmentID, seq)
		investorPart, platformPart := Split(in.Amount, it.PaidAmount, it.PlatformPaid, it.QiEduFeeShare, dueTotal)
		n, err := u.post(ctx, r, l, it, in, ref, investorPart, platformPart)
		if err != nil {
			return err
		}
		postings = n

		it.Payments = seq
		it.PaidAmount = it.PaidAmount.Add(in.Amount)
		it.PlatformPaid = it.PlatformPaid.Add(platformPart)
		it.DiscountAmount = discount
		it.LateFeeAmount = lateFee
		it.PaymentMethod = in.Method
		if it.PaidAmount.Equal(dueTotal) {
			paidAt := in.Date.UTC()
			it.Status = settledStatus(timing)
			it.PaidAt = &paidAt
		} else {
			it.Status = domainInstallment.StatusPartiallyPaid
		}
		if err := r.Installments.Save(ctx, it); err != nil {
			return err
		}

		if it.Status.Settled() {
			if err := u.advanceLoan(ctx, r, l, in.Date); err != nil {
				return err
			}
		}

		dto = &PaymentDTO{
			Installment:  schedule.ToDTO(it),
			Timing:       timing,
			Applied:      in.Amount,
			DueTotal:     dueTotal,
			Remaining:    dueTotal.Sub(it.PaidAmount),
			InvestorPart: investorPart,
			PlatformPart: platformPart,
			ReferenceTag: ref,
			LoanStatus:   string(l.Status),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.metrics.Payment(dto.Installment.Status)
	for i := 0; i < postings; i++ {
		u.metrics.Posting(CategoryPayment)
	}
	u.log.Info("installment payment",
		zap.String("installment_id", in.InstallmentID),
		zap.String("status", dto.Installment.Status),
		zap.String("timing", string(dto.Timing)),
		zap.String("amount", in.Amount.StringFixed(2)),
		zap.String("reference_tag", dto.ReferenceTag))
	return dto, nil
}

// post writes borrower -> platform and borrower -> investor, one posting per
// match weighted by the matched amount. Zero parts are skipped.
func (u *Usecase) post(ctx context.Context, r uow.Repos, l *domainLoan.Loan, it *domainInstallment.Installment,
	in PayInput, ref string, investorPart, platformPart decimal.Decimal) (int, error) {
	matches, err := r.Matches.ListByLoan(ctx, l.ID)
	if err != nil {
		return 0, err
	}
	if len(matches) == 0 {
		return 0, domainLoan.ErrNotMatched
	}
	borrower, err := ledger.EnsureBorrower(ctx, r, l.BorrowerID)
	if err != nil {
		return 0, err
	}

	meta := map[string]any{
		"loan_id":        l.LoanID,
		"installment_id": it.InstallmentID,
		"method":         in.Method,
	}
	if in.RequestID != "" {
		meta["request_id"] = in.RequestID
	}
	transfer := func(to uint64, amount decimal.Decimal, sub string) error {
		_, err := ledger.Post(ctx, r, domainLedger.Transfer{
			From:         borrower.ID,
			To:           to,
			Amount:       amount,
			Category:     CategoryPayment,
			Subcategory:  sub,
			ReferenceTag: ref,
			Meta:         meta,
			OccurredAt:   in.Date,
		})
		return err
	}

	n := 0
	if platformPart.IsPositive() {
		platform, err := ledger.EnsurePlatform(ctx, r)
		if err != nil {
			return 0, err
		}
		if err := transfer(platform.ID, platformPart, "platform"); err != nil {
			return 0, err
		}
		n++
	}

	weights := make([]decimal.Decimal, len(matches))
	for i, m := range matches {
		weights[i] = m.AmountMatched
	}
	for i, part := range ProRata(investorPart, weights) {
		if !part.IsPositive() {
			continue
		}
		investor, err := ledger.EnsureInvestor(ctx, r, matches[i].InvestorID)
		if err != nil {
			return 0, err
		}
		if err := transfer(investor.ID, part, "investor"); err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

// advanceLoan moves disbursed -> repaying on the first settlement and closes
// the loan once every installment is settled.
func (u *Usecase) advanceLoan(ctx context.Context, r uow.Repos, l *domainLoan.Loan, at time.Time) error {
	if l.Status == domainLoan.StatusDisbursed {
		l.Transition(domainLoan.StatusRepaying, at)
	}
	items, err := r.Installments.ListByLoan(ctx, l.ID)
	if err != nil {
		return err
	}
	closed := len(items) > 0
	for _, x := range items {
		if !x.Status.Settled() {
			closed = false
			break
		}
	}
	if closed {
		l.Transition(domainLoan.StatusClosed, at)
	}
	return r.Loans.Save(ctx, l)
}

// MarkOverdue flags unpaid installments whose due date is before asOf's day.
// Overdue installments stay payable and settle as paid_late.
func (u *Usecase) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	cutoff := day(asOf)
	var n int
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		changed, err := r.Installments.MarkPastDue(ctx, cutoff)
		n = int(changed)
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		u.log.Info("installments overdue", zap.Int("count", n), zap.Time("as_of", cutoff))
	}
	return n, nil
}
