package uow

import (
	"context"

	"edu-lending-core/internal/domain/custody"
	"edu-lending-core/internal/domain/fee"
	"edu-lending-core/internal/domain/installment"
	"edu-lending-core/internal/domain/ledger"
	"edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/domain/offer"
)

// Repos are bound to one transaction; anything written through them commits or
// rolls back together.
type Repos struct {
	Loans        loan.Repository
	Offers       offer.Repository
	Matches      offer.MatchRepository
	Ledger       ledger.Repository
	Custody      custody.Repository
	Fees         fee.Repository
	Installments installment.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
