package mysql

import (
	"context"

	custodyDomain "edu-lending-core/internal/domain/custody"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CustodyRepository struct{ db *gorm.DB }

func NewCustodyRepository(db *gorm.DB) *CustodyRepository { return &CustodyRepository{db: db} }

// Create is get-or-create on (owner_type, owner_ref); a ends up holding the persisted row.
func (r *CustodyRepository) Create(ctx context.Context, a *custodyDomain.Account) error {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(a).Error; err != nil {
		return err
	}
	var got custodyDomain.Account
	if err := db.Where("owner_type = ? AND owner_ref = ?", a.OwnerType, a.OwnerRef).First(&got).Error; err != nil {
		return err
	}
	*a = got
	return nil
}

func (r *CustodyRepository) Save(ctx context.Context, a *custodyDomain.Account) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *CustodyRepository) GetByCustodyID(ctx context.Context, custodyID string) (*custodyDomain.Account, error) {
	var out custodyDomain.Account
	res := r.db.WithContext(ctx).Where("custody_id = ?", custodyID).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, custodyDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *CustodyRepository) GetByCustodyIDForUpdate(ctx context.Context, custodyID string) (*custodyDomain.Account, error) {
	var out custodyDomain.Account
	res := r.db.WithContext(ctx).Clauses(forUpdate).Where("custody_id = ?", custodyID).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, custodyDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *CustodyRepository) GetByOwner(ctx context.Context, ownerType custodyDomain.OwnerType, ownerRef string) (*custodyDomain.Account, error) {
	var out custodyDomain.Account
	res := r.db.WithContext(ctx).Where("owner_type = ? AND owner_ref = ?", ownerType, ownerRef).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, custodyDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *CustodyRepository) AppendTransaction(ctx context.Context, t *custodyDomain.Transaction) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *CustodyRepository) ListTransactions(ctx context.Context, custodyAccountID uint64) ([]custodyDomain.Transaction, error) {
	var out []custodyDomain.Transaction
	res := r.db.WithContext(ctx).Where("custody_account_id = ?", custodyAccountID).Order("id ASC").Find(&out)
	return out, res.Error
}
