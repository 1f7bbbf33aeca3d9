package custody

import "context"

type Repository interface {
	Create(ctx context.Context, a *Account) error
	GetByCustodyID(ctx context.Context, custodyID string) (*Account, error)
	GetByOwner(ctx context.Context, ownerType OwnerType, ownerRef string) (*Account, error)
	// Locking reads for balance mutations
	GetByCustodyIDForUpdate(ctx context.Context, custodyID string) (*Account, error)
	Save(ctx context.Context, a *Account) error

	AppendTransaction(ctx context.Context, t *Transaction) error
	ListTransactions(ctx context.Context, custodyAccountID uint64) ([]Transaction, error)
}
