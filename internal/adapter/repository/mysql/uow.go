package mysql

import (
	"context"

	"edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Loans:        &LoanRepository{db: tx},
		Offers:       &OfferRepository{db: tx},
		Matches:      &MatchRepository{db: tx},
		Ledger:       &LedgerRepository{db: tx},
		Custody:      &CustodyRepository{db: tx},
		Fees:         &FeeRepository{db: tx},
		Installments: &InstallmentRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

// WithinLoanTx locks the loan row before fn runs, so every loan-scoped
// operation serializes on it.
func (u *GormUoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return fn(r, l)
	})
}
