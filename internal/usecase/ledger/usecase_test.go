package ledger

import (
	"context"
	"errors"
	"testing"

	"edu-lending-core/internal/adapter/repository/mysql"
	"edu-lending-core/internal/domain/errs"
	domain "edu-lending-core/internal/domain/ledger"
	"edu-lending-core/internal/domain/uow"
	"edu-lending-core/internal/testutil/dbtest"
	"edu-lending-core/pkg/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Usecase, *mysql.GormUoW) {
	t.Helper()
	db := dbtest.Open(t)
	tx := mysql.NewGormUoW(db)
	return NewUsecase(mysql.NewLedgerRepository(db), tx, nil, nil), tx
}

func accounts(t *testing.T, tx *mysql.GormUoW) (borrower, platform *domain.Account) {
	t.Helper()
	ctx := context.Background()
	err := tx.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		if borrower, err = EnsureBorrower(ctx, r, "b1"); err != nil {
			return err
		}
		platform, err = EnsurePlatform(ctx, r)
		return err
	})
	require.NoError(t, err)
	return borrower, platform
}

func TestEnsureAccount_Singleton(t *testing.T) {
	_, tx := setup(t)
	ctx := context.Background()

	var first, second *domain.Account
	require.NoError(t, tx.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		first, err = EnsurePlatform(ctx, r)
		return err
	}))
	require.NoError(t, tx.WithinTx(ctx, func(r uow.Repos) error {
		var err error
		second, err = EnsurePlatform(ctx, r)
		return err
	}))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.AccountID, second.AccountID)
	assert.Len(t, first.AccountID, 32)
}

func TestPost(t *testing.T) {
	uc, tx := setup(t)
	ctx := context.Background()
	b, p := accounts(t, tx)

	tests := []struct {
		name    string
		in      TransferInput
		wantErr error
	}{
		{
			name: "ok",
			in: TransferInput{FromAccountID: b.AccountID, ToAccountID: p.AccountID,
				Amount: money.Must("10.50"), Category: "fee", ReferenceTag: "t-1",
				Meta: map[string]any{"note": "x"}},
		},
		{
			name: "zero amount",
			in: TransferInput{FromAccountID: b.AccountID, ToAccountID: p.AccountID,
				Amount: money.Zero, Category: "fee", ReferenceTag: "t-2"},
			wantErr: errs.ErrInvalidAmount,
		},
		{
			name: "sub-cent amount",
			in: TransferInput{FromAccountID: b.AccountID, ToAccountID: p.AccountID,
				Amount: money.Must("1.005"), Category: "fee", ReferenceTag: "t-3"},
			wantErr: errs.ErrInvalidAmount,
		},
		{
			name: "same account",
			in: TransferInput{FromAccountID: b.AccountID, ToAccountID: b.AccountID,
				Amount: money.Must("1"), Category: "fee", ReferenceTag: "t-4"},
			wantErr: domain.ErrSameAccount,
		},
		{
			name: "missing tag",
			in: TransferInput{FromAccountID: b.AccountID, ToAccountID: p.AccountID,
				Amount: money.Must("1"), Category: "fee"},
			wantErr: domain.ErrMissingTag,
		},
		{
			name: "unknown account",
			in: TransferInput{FromAccountID: "ffffffffffffffffffffffffffffffff", ToAccountID: p.AccountID,
				Amount: money.Must("1"), Category: "fee", ReferenceTag: "t-5"},
			wantErr: errs.ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posting, err := uc.Post(ctx, tt.in)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, posting.DebitEntryID, posting.CreditEntryID)
		})
	}

	// only the successful posting is visible
	bb, err := uc.BalanceOf(ctx, b.AccountID)
	require.NoError(t, err)
	assert.True(t, bb.Balance.Equal(money.Must("-10.50")), "borrower=%s", bb.Balance)
	pb, err := uc.BalanceOf(ctx, p.AccountID)
	require.NoError(t, err)
	assert.True(t, pb.Balance.Equal(money.Must("10.50")), "platform=%s", pb.Balance)
}

func TestHasReferenceAndTotals(t *testing.T) {
	uc, tx := setup(t)
	ctx := context.Background()
	b, p := accounts(t, tx)

	ok, err := uc.HasReference(ctx, "pay:1")
	require.NoError(t, err)
	assert.False(t, ok)

	for _, amt := range []string{"1.10", "2.20", "3.30"} {
		_, err := uc.Post(ctx, TransferInput{FromAccountID: b.AccountID, ToAccountID: p.AccountID,
			Amount: money.Must(amt), Category: "payment", ReferenceTag: "pay:1"})
		require.NoError(t, err)
	}

	ok, err = uc.HasReference(ctx, "pay:1")
	require.NoError(t, err)
	assert.True(t, ok)

	tot, err := uc.Totals(ctx)
	require.NoError(t, err)
	assert.True(t, tot.Balanced())
	assert.True(t, tot.Debits.Equal(money.Must("6.60")), "debits=%s", tot.Debits)
}

func TestPost_RollsBackWithCallerTx(t *testing.T) {
	uc, tx := setup(t)
	ctx := context.Background()
	b, p := accounts(t, tx)

	boom := errors.New("boom")
	err := tx.WithinTx(ctx, func(r uow.Repos) error {
		if _, err := Post(ctx, r, domain.Transfer{From: b.ID, To: p.ID, Amount: money.Must("5"),
			Category: "fee", ReferenceTag: "rb"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	ok, err := uc.HasReference(ctx, "rb")
	require.NoError(t, err)
	assert.False(t, ok, "entries must not survive a rolled back transaction")
}
