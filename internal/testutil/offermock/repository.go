package offermock

import (
	"context"

	domain "edu-lending-core/internal/domain/offer"
)

var (
	_ domain.Repository      = (*Repo)(nil)
	_ domain.MatchRepository = (*MatchRepo)(nil)
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn        func(ctx context.Context, o *domain.Offer) error
	GetByOfferIDFn  func(ctx context.Context, offerID string) (*domain.Offer, error)
	GetByIDFn       func(ctx context.Context, id uint64) (*domain.Offer, error)
	SaveFn          func(ctx context.Context, o *domain.Offer) error
	LockAvailableFn func(ctx context.Context) ([]domain.Offer, error)
}

func (m *Repo) Create(ctx context.Context, o *domain.Offer) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, o)
	}
	return nil
}

func (m *Repo) GetByOfferID(ctx context.Context, offerID string) (*domain.Offer, error) {
	if m.GetByOfferIDFn != nil {
		return m.GetByOfferIDFn(ctx, offerID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Offer, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, o *domain.Offer) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, o)
	}
	return nil
}

func (m *Repo) LockAvailable(ctx context.Context) ([]domain.Offer, error) {
	if m.LockAvailableFn != nil {
		return m.LockAvailableFn(ctx)
	}
	return nil, context.Canceled
}

// MatchRepo is a function-backed mock that satisfies domain.MatchRepository.
type MatchRepo struct {
	CreateFn     func(ctx context.Context, m *domain.Match) error
	ListByLoanFn func(ctx context.Context, loanID uint64) ([]domain.Match, error)
}

func (m *MatchRepo) Create(ctx context.Context, mt *domain.Match) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, mt)
	}
	return nil
}

func (m *MatchRepo) ListByLoan(ctx context.Context, loanID uint64) ([]domain.Match, error) {
	if m.ListByLoanFn != nil {
		return m.ListByLoanFn(ctx, loanID)
	}
	return nil, context.Canceled
}
