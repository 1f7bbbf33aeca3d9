package ledger

import (
	"context"

	"github.com/shopspring/decimal"
)

type Repository interface {
	// Accounts
	CreateAccount(ctx context.Context, a *Account) error
	GetAccountByKey(ctx context.Context, key string) (*Account, error)
	GetAccountByAccountID(ctx context.Context, accountID string) (*Account, error)
	GetAccount(ctx context.Context, id uint64) (*Account, error)

	// Entries are only ever inserted, in debit/credit pairs.
	InsertEntries(ctx context.Context, entries []*Entry) error
	EntriesByReference(ctx context.Context, tag string) ([]Entry, error)
	CountByReferencePrefix(ctx context.Context, prefix string) (int64, error)

	// Derived reads
	Balance(ctx context.Context, accountID uint64) (decimal.Decimal, error)
	Totals(ctx context.Context) (Totals, error)
}
