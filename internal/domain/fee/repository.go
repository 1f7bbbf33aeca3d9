package fee

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, f *LoanFee) error
	Exists(ctx context.Context, loanID uint64, t Type, periodStart time.Time) (bool, error)
	ListByLoan(ctx context.Context, loanID uint64) ([]LoanFee, error)
}
