package offer

import "context"

type Repository interface {
	Create(ctx context.Context, o *Offer) error
	GetByOfferID(ctx context.Context, offerID string) (*Offer, error)
	GetByID(ctx context.Context, id uint64) (*Offer, error)
	Save(ctx context.Context, o *Offer) error

	// LockAvailable returns every offer with capacity left, oldest first,
	// holding a row lock on each for the rest of the transaction.
	LockAvailable(ctx context.Context) ([]Offer, error)
}

type MatchRepository interface {
	Create(ctx context.Context, m *Match) error
	ListByLoan(ctx context.Context, loanID uint64) ([]Match, error)
}
