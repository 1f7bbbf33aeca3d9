package mysql

import (
	"context"
	"time"

	installmentDomain "edu-lending-core/internal/domain/installment"

	"gorm.io/gorm"
)

type InstallmentRepository struct{ db *gorm.DB }

func NewInstallmentRepository(db *gorm.DB) *InstallmentRepository {
	return &InstallmentRepository{db: db}
}

func (r *InstallmentRepository) CreateBatch(ctx context.Context, items []*installmentDomain.Installment) error {
	return r.db.WithContext(ctx).Create(items).Error
}

func (r *InstallmentRepository) CountByLoan(ctx context.Context, loanID uint64) (int64, error) {
	var n int64
	res := r.db.WithContext(ctx).Model(&installmentDomain.Installment{}).Where("loan_id = ?", loanID).Count(&n)
	return n, res.Error
}

func (r *InstallmentRepository) ListByLoan(ctx context.Context, loanID uint64) ([]installmentDomain.Installment, error) {
	var out []installmentDomain.Installment
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("number ASC").Find(&out)
	return out, res.Error
}

func (r *InstallmentRepository) GetByInstallmentIDForUpdate(ctx context.Context, installmentID string) (*installmentDomain.Installment, error) {
	var out installmentDomain.Installment
	res := r.db.WithContext(ctx).Clauses(forUpdate).Where("installment_id = ?", installmentID).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, installmentDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *InstallmentRepository) Save(ctx context.Context, i *installmentDomain.Installment) error {
	return r.db.WithContext(ctx).Save(i).Error
}

// MarkPastDue flips unpaid rows due before asOf to overdue in one statement.
// Only status changes; the guard is evaluated against the current row, so a
// payment committed concurrently is never overwritten.
func (r *InstallmentRepository) MarkPastDue(ctx context.Context, asOf time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&installmentDomain.Installment{}).
		Where("status IN ? AND due_date < ?", []installmentDomain.Status{
			installmentDomain.StatusPending, installmentDomain.StatusPartiallyPaid,
		}, asOf).
		Update("status", installmentDomain.StatusOverdue)
	return res.RowsAffected, res.Error
}
