package matching

import (
	"context"
	"time"

	domainLoan "edu-lending-core/internal/domain/loan"
	domainOffer "edu-lending-core/internal/domain/offer"
	"edu-lending-core/internal/domain/uow"
	"edu-lending-core/internal/infrastructure/metrics"
	"edu-lending-core/internal/usecase/custody"
	"edu-lending-core/pkg/id"

	"github.com/shopspring/decimal"
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

// MatchLoan allocates available offers to the loan, oldest offer first.
//
// The loan row and every offer with capacity stay locked until commit, so two
// concurrent runs can never spend the same offer capacity. Each offer is
// consumed whole while it fits the remaining amount; the offer that overshoots
// gives only what is left and the run stops. A loan that becomes fully matched
// gets its custody account funded from the matches in the same transaction.
func (u *Usecase) MatchLoan(ctx context.Context, loanID string) (*MatchResult, error) {
	var res *MatchResult
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		if !l.Status.Matchable() {
			return domainLoan.ErrNotMatchable
		}
		offers, err := r.Offers.LockAvailable(ctx)
		if err != nil {
			return err
		}

		res = &MatchResult{LoanID: l.LoanID, Matches: []MatchDTO{}}
		remaining := l.Remaining()
		for i := range offers {
			if !remaining.IsPositive() {
				break
			}
			o := &offers[i]
			take := decimal.Min(o.AmountAvailable, remaining)

			o.AmountAvailable = o.AmountAvailable.Sub(take)
			if err := r.Offers.Save(ctx, o); err != nil {
				return err
			}
			m := &domainOffer.Match{
				MatchID:       id.NewID32(),
				LoanID:        l.ID,
				OfferID:       o.ID,
				InvestorID:    o.InvestorID,
				AmountMatched: take,
				Rate:          l.MonthlyRate,
			}
			if err := r.Matches.Create(ctx, m); err != nil {
				return err
			}
			remaining = remaining.Sub(take)
			l.AmountFunded = l.AmountFunded.Add(take)
			res.Matches = append(res.Matches, toMatchDTO(m, o.OfferID))
		}

		next := domainLoan.StatusOpen
		switch {
		case !remaining.IsPositive():
			next = domainLoan.StatusMatched
		case l.AmountFunded.IsPositive():
			next = domainLoan.StatusPartial
		}
		if next != l.Status {
			l.Transition(next, u.now())
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}

		if next == domainLoan.StatusMatched {
			all, err := r.Matches.ListByLoan(ctx, l.ID)
			if err != nil {
				return err
			}
			a, err := custody.FundFromMatches(ctx, r, l, all)
			if err != nil {
				return err
			}
			res.CustodyID = a.CustodyID
		}

		res.Status = string(l.Status)
		res.AmountFunded = l.AmountFunded
		res.Remaining = remaining
		return nil
	})
	if err != nil {
		custody.Alert(u.log, u.metrics, "match", err, zap.String("loan_id", loanID))
		return nil, err
	}

	u.metrics.Match(res.Status)
	if res.CustodyID != "" {
		u.metrics.Posting(custody.CategoryFunding)
	}
	u.log.Info("loan matched",
		zap.String("loan_id", res.LoanID),
		zap.String("status", res.Status),
		zap.Int("new_matches", len(res.Matches)),
		zap.String("remaining", res.Remaining.StringFixed(2)))
	return res, nil
}

// Matches lists every match of the loan in creation order.
func (u *Usecase) Matches(ctx context.Context, loanID string) ([]MatchDTO, error) {
	var out []MatchDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		ms, err := r.Matches.ListByLoan(ctx, l.ID)
		if err != nil {
			return err
		}
		out = make([]MatchDTO, 0, len(ms))
		for i := range ms {
			o, err := r.Offers.GetByID(ctx, ms[i].OfferID)
			if err != nil {
				return err
			}
			out = append(out, toMatchDTO(&ms[i], o.OfferID))
		}
		return nil
	})
	return out, err
}

func toMatchDTO(m *domainOffer.Match, offerID string) MatchDTO {
	return MatchDTO{
		MatchID:       m.MatchID,
		OfferID:       offerID,
		InvestorID:    m.InvestorID,
		AmountMatched: m.AmountMatched,
		Rate:          m.Rate,
		CreatedAt:     m.CreatedAt,
	}
}
