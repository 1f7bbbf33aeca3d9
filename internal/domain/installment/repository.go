package installment

import (
	"context"
	"time"
)

type Repository interface {
	CreateBatch(ctx context.Context, items []*Installment) error
	CountByLoan(ctx context.Context, loanID uint64) (int64, error)
	ListByLoan(ctx context.Context, loanID uint64) ([]Installment, error)
	GetByInstallmentIDForUpdate(ctx context.Context, installmentID string) (*Installment, error)
	Save(ctx context.Context, i *Installment) error
	// Marks pending or partially paid installments with due_date < asOf as
	// overdue and returns how many changed.
	MarkPastDue(ctx context.Context, asOf time.Time) (int64, error)
}
