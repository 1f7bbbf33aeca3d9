package mysql

import (
	"context"

	offerDomain "edu-lending-core/internal/domain/offer"

	"gorm.io/gorm"
)

type OfferRepository struct{ db *gorm.DB }

func NewOfferRepository(db *gorm.DB) *OfferRepository { return &OfferRepository{db: db} }

func (r *OfferRepository) Create(ctx context.Context, o *offerDomain.Offer) error {
	return r.db.WithContext(ctx).Create(o).Error
}

func (r *OfferRepository) Save(ctx context.Context, o *offerDomain.Offer) error {
	return r.db.WithContext(ctx).Save(o).Error
}

func (r *OfferRepository) GetByOfferID(ctx context.Context, offerID string) (*offerDomain.Offer, error) {
	var out offerDomain.Offer
	res := r.db.WithContext(ctx).Where("offer_id = ?", offerID).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, offerDomain.ErrNotFound)
	}
	return &out, nil
}

func (r *OfferRepository) GetByID(ctx context.Context, id uint64) (*offerDomain.Offer, error) {
	var out offerDomain.Offer
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	if res.Error != nil {
		return nil, notFound(res.Error, offerDomain.ErrNotFound)
	}
	return &out, nil
}

// LockAvailable orders by creation time, then id, so equal timestamps still
// yield one deterministic FIFO queue (and one lock order across transactions).
func (r *OfferRepository) LockAvailable(ctx context.Context) ([]offerDomain.Offer, error) {
	var out []offerDomain.Offer
	res := r.db.WithContext(ctx).
		Clauses(forUpdate).
		Where("amount_available > 0").
		Order("created_at ASC, id ASC").
		Find(&out)
	return out, res.Error
}

type MatchRepository struct{ db *gorm.DB }

func NewMatchRepository(db *gorm.DB) *MatchRepository { return &MatchRepository{db: db} }

func (r *MatchRepository) Create(ctx context.Context, m *offerDomain.Match) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MatchRepository) ListByLoan(ctx context.Context, loanID uint64) ([]offerDomain.Match, error) {
	var out []offerDomain.Match
	res := r.db.WithContext(ctx).Where("loan_id = ?", loanID).Order("id ASC").Find(&out)
	return out, res.Error
}
