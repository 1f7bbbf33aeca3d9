package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "edu-lending-core/internal/domain/ledger"
	"edu-lending-core/internal/domain/uow"
	"edu-lending-core/internal/infrastructure/metrics"
	"edu-lending-core/pkg/id"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Post writes t as one debit and one credit inside the caller's transaction.
// Both accounts must exist. The ledger does not deduplicate tags; see HasReference.
func Post(ctx context.Context, r uow.Repos, t domain.Transfer) (*domain.Posting, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	for _, acc := range []uint64{t.From, t.To} {
		if _, err := r.Ledger.GetAccount(ctx, acc); err != nil {
			return nil, err
		}
	}

	var meta datatypes.JSON
	if len(t.Meta) > 0 {
		b, err := json.Marshal(t.Meta)
		if err != nil {
			return nil, fmt.Errorf("ledger meta: %w", err)
		}
		meta = datatypes.JSON(b)
	}
	at := t.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	entry := func(acc uint64, dir domain.Direction) *domain.Entry {
		return &domain.Entry{
			EntryID:      uuid.NewString(),
			AccountID:    acc,
			Amount:       t.Amount,
			Direction:    dir,
			ReferenceTag: t.ReferenceTag,
			Category:     t.Category,
			Subcategory:  t.Subcategory,
			Meta:         meta,
			OccurredAt:   at,
		}
	}
	debit, credit := entry(t.From, domain.Debit), entry(t.To, domain.Credit)
	if err := r.Ledger.InsertEntries(ctx, []*domain.Entry{debit, credit}); err != nil {
		return nil, err
	}
	return &domain.Posting{
		DebitEntryID:  debit.EntryID,
		CreditEntryID: credit.EntryID,
		ReferenceTag:  t.ReferenceTag,
	}, nil
}

// EnsureAccount returns the account registered under key, creating it on first use.
// The unique key index makes this safe across processes.
func EnsureAccount(ctx context.Context, r uow.Repos, key string, typ domain.AccountType, ownerRef string) (*domain.Account, error) {
	a, err := r.Ledger.GetAccountByKey(ctx, key)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}
	a = &domain.Account{
		AccountID: id.NewID32(),
		Key:       key,
		Type:      typ,
		OwnerRef:  ownerRef,
	}
	if err := r.Ledger.CreateAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// EnsurePlatform returns the platform revenue account.
func EnsurePlatform(ctx context.Context, r uow.Repos) (*domain.Account, error) {
	return EnsureAccount(ctx, r, domain.PlatformKey, domain.AccountPlatform, "")
}

// EnsureBorrower returns the account that pays a borrower's fees and installments.
func EnsureBorrower(ctx context.Context, r uow.Repos, borrowerID string) (*domain.Account, error) {
	return EnsureAccount(ctx, r, domain.BorrowerKey(borrowerID), domain.AccountBorrower, borrowerID)
}

// EnsureInvestor returns the account credited with an investor's repayments.
func EnsureInvestor(ctx context.Context, r uow.Repos, investorID string) (*domain.Account, error) {
	return EnsureAccount(ctx, r, domain.InvestorKey(investorID), domain.AccountInvestor, investorID)
}

// EnsureClearing returns the inbound clearing account for a deposit method.
func EnsureClearing(ctx context.Context, r uow.Repos, method string) (*domain.Account, error) {
	return EnsureAccount(ctx, r, domain.ClearingKey(method), domain.AccountClearing, method)
}

type Usecase struct {
	repo    domain.Repository
	uow     uow.UnitOfWork
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewUsecase(repo domain.Repository, tx uow.UnitOfWork, log *zap.Logger, m *metrics.Collector) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repo: repo, uow: tx, log: log, metrics: m}
}

// Post resolves public account ids and posts one transfer in its own transaction.
func (u *Usecase) Post(ctx context.Context, in TransferInput) (*domain.Posting, error) {
	var p *domain.Posting
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		from, err := r.Ledger.GetAccountByAccountID(ctx, in.FromAccountID)
		if err != nil {
			return err
		}
		to, err := r.Ledger.GetAccountByAccountID(ctx, in.ToAccountID)
		if err != nil {
			return err
		}
		p, err = Post(ctx, r, domain.Transfer{
			From:         from.ID,
			To:           to.ID,
			Amount:       in.Amount,
			Category:     in.Category,
			Subcategory:  in.Subcategory,
			ReferenceTag: in.ReferenceTag,
			Meta:         in.Meta,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	u.metrics.Posting(in.Category)
	u.log.Debug("ledger posting",
		zap.String("reference_tag", p.ReferenceTag),
		zap.String("category", in.Category),
		zap.String("amount", in.Amount.StringFixed(2)))
	return p, nil
}

func (u *Usecase) BalanceOf(ctx context.Context, accountID string) (*BalanceDTO, error) {
	a, err := u.repo.GetAccountByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	bal, err := u.repo.Balance(ctx, a.ID)
	if err != nil {
		return nil, err
	}
	return &BalanceDTO{
		AccountID: a.AccountID,
		Key:       a.Key,
		Type:      string(a.Type),
		Balance:   bal,
		AsOf:      time.Now().UTC(),
	}, nil
}

func (u *Usecase) Totals(ctx context.Context) (domain.Totals, error) {
	return u.repo.Totals(ctx)
}

// HasReference reports whether anything was already posted under tag, so
// callers retrying with the same tag can skip the duplicate.
func (u *Usecase) HasReference(ctx context.Context, tag string) (bool, error) {
	entries, err := u.repo.EntriesByReference(ctx, tag)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}
