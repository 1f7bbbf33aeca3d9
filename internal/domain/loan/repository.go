package loan

import "context"

type Repository interface {
	// Basic Case
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	GetPendingLoanByBorrowerID(ctx context.Context, borrowerID string) (*Loan, error)
	Save(ctx context.Context, l *Loan) error

	// Locking reads, only meaningful inside a unit of work
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	GetByIDForUpdate(ctx context.Context, id uint64) (*Loan, error)

	// Billing
	ListByStatus(ctx context.Context, statuses ...Status) ([]Loan, error)
}
