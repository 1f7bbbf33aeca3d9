package mysql

import (
	"context"

	ledgerDomain "edu-lending-core/internal/domain/ledger"
	"edu-lending-core/pkg/money"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LedgerRepository struct{ db *gorm.DB }

func NewLedgerRepository(db *gorm.DB) *LedgerRepository { return &LedgerRepository{db: db} }

// CreateAccount inserts a unless its key already exists; either way a ends up
// holding the persisted row. The unique key index arbitrates concurrent creators.
func (r *LedgerRepository) CreateAccount(ctx context.Context, a *ledgerDomain.Account) error {
	db := r.db.WithContext(ctx)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(a).Error; err != nil {
		return err
	}
	var got ledgerDomain.Account
	if err := db.Where("account_key = ?", a.Key).First(&got).Error; err != nil {
		return err
	}
	*a = got
	return nil
}

func (r *LedgerRepository) GetAccountByKey(ctx context.Context, key string) (*ledgerDomain.Account, error) {
	var out ledgerDomain.Account
	res := r.db.WithContext(ctx).Where("account_key = ?", key).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, ledgerDomain.ErrAccountNotFound)
	}
	return &out, nil
}

func (r *LedgerRepository) GetAccountByAccountID(ctx context.Context, accountID string) (*ledgerDomain.Account, error) {
	var out ledgerDomain.Account
	res := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, ledgerDomain.ErrAccountNotFound)
	}
	return &out, nil
}

func (r *LedgerRepository) GetAccount(ctx context.Context, id uint64) (*ledgerDomain.Account, error) {
	var out ledgerDomain.Account
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, ledgerDomain.ErrAccountNotFound)
	}
	return &out, nil
}

// InsertEntries writes all entries in one statement.
func (r *LedgerRepository) InsertEntries(ctx context.Context, entries []*ledgerDomain.Entry) error {
	return r.db.WithContext(ctx).Create(entries).Error
}

func (r *LedgerRepository) EntriesByReference(ctx context.Context, tag string) ([]ledgerDomain.Entry, error) {
	var out []ledgerDomain.Entry
	res := r.db.WithContext(ctx).Where("reference_tag = ?", tag).Order("id ASC").Find(&out)
	return out, res.Error
}

func (r *LedgerRepository) CountByReferencePrefix(ctx context.Context, prefix string) (int64, error) {
	var n int64
	res := r.db.WithContext(ctx).Model(&ledgerDomain.Entry{}).
		Where("reference_tag LIKE ?", prefix+"%").
		Count(&n)
	return n, res.Error
}

type sums struct {
	Credits decimal.NullDecimal
	Debits  decimal.NullDecimal
}

const sumSelect = "SUM(CASE WHEN direction = 'C' THEN amount ELSE 0 END) AS credits, " +
	"SUM(CASE WHEN direction = 'D' THEN amount ELSE 0 END) AS debits"

// Balance is ΣC − ΣD over the account's entries.
func (r *LedgerRepository) Balance(ctx context.Context, accountID uint64) (decimal.Decimal, error) {
	var s sums
	res := r.db.WithContext(ctx).Model(&ledgerDomain.Entry{}).
		Select(sumSelect).
		Where("account_id = ?", accountID).
		Scan(&s)
	if res.Error != nil {
		return decimal.Zero, res.Error
	}
	return money.Round(s.Credits.Decimal.Sub(s.Debits.Decimal)), nil
}

func (r *LedgerRepository) Totals(ctx context.Context) (ledgerDomain.Totals, error) {
	var s sums
	res := r.db.WithContext(ctx).Model(&ledgerDomain.Entry{}).Select(sumSelect).Scan(&s)
	if res.Error != nil {
		return ledgerDomain.Totals{}, res.Error
	}
	return ledgerDomain.Totals{
		Debits:  money.Round(s.Debits.Decimal),
		Credits: money.Round(s.Credits.Decimal),
	}, nil
}
