package mysql

import (
	"context"
	"errors"
	"fmt"
	"time"

	feeDomain "edu-lending-core/internal/domain/fee"

	"gorm.io/gorm"
)

type FeeRepository struct{ db *gorm.DB }

func NewFeeRepository(db *gorm.DB) *FeeRepository { return &FeeRepository{db: db} }

// Create relies on ux_loan_fees_period to reject a second charge for the same period.
func (r *FeeRepository) Create(ctx context.Context, f *feeDomain.LoanFee) error {
	err := r.db.WithContext(ctx).Create(f).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w (%w)", feeDomain.ErrDuplicateCharge, err)
	}
	return err
}

func (r *FeeRepository) Exists(ctx context.Context, loanID uint64, t feeDomain.Type, periodStart time.Time) (bool, error) {
	var n int64
	res := r.db.WithContext(ctx).Model(&feeDomain.LoanFee{}).
		Where("loan_id = ? AND fee_type = ? AND period_start = ?", loanID, t, periodStart).
		Count(&n)
	return n > 0, res.Error
}

func (r *FeeRepository) ListByLoan(ctx context.Context, loanID uint64) ([]feeDomain.LoanFee, error) {
	var out []feeDomain.LoanFee
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("id ASC").Find(&out)
	return out, res.Error
}
