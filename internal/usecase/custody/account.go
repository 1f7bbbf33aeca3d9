package custody

import (
	"context"
	"errors"
	"fmt"

	domainCustody "edu-lending-core/internal/domain/custody"
	"edu-lending-core/internal/domain/errs"
	domainLedger "edu-lending-core/internal/domain/ledger"
	domainLoan "edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/domain/uow"
	"edu-lending-core/internal/usecase/ledger"
	"edu-lending-core/pkg/id"

	"github.com/shopspring/decimal"
)

// EnsureForLoan returns the loan's custody account, provisioning and binding
// one on first use. l must be locked by the caller.
func EnsureForLoan(ctx context.Context, r uow.Repos, l *domainLoan.Loan) (*domainCustody.Account, error) {
	if l.CustodyAccountRef != nil {
		return r.Custody.GetByCustodyID(ctx, *l.CustodyAccountRef)
	}
	a, err := ensureOwned(ctx, r, domainCustody.OwnerSystem, l.LoanID)
	if err != nil {
		return nil, err
	}
	ref := a.CustodyID
	l.CustodyAccountRef = &ref
	if err := r.Loans.Save(ctx, l); err != nil {
		return nil, err
	}
	return a, nil
}

// EnsureInstitution returns the institution's system account, one per institution.
func EnsureInstitution(ctx context.Context, r uow.Repos, institutionID string) (*domainCustody.Account, error) {
	return ensureOwned(ctx, r, domainCustody.OwnerInstitution, institutionID)
}

func ensureOwned(ctx context.Context, r uow.Repos, ownerType domainCustody.OwnerType, ownerRef string) (*domainCustody.Account, error) {
	a, err := r.Custody.GetByOwner(ctx, ownerType, ownerRef)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, domainCustody.ErrNotFound) {
		return nil, err
	}

	custodyID := id.NewID32()
	la, err := ledger.EnsureAccount(ctx, r, domainLedger.CustodyKey(custodyID), domainLedger.AccountCustody, ownerRef)
	if err != nil {
		return nil, err
	}
	a = &domainCustody.Account{
		CustodyID:        custodyID,
		OwnerRef:         ownerRef,
		OwnerType:        ownerType,
		LedgerAccountID:  la.ID,
		AvailableBalance: decimal.Zero,
		BlockedAmount:    decimal.Zero,
		TotalBalance:     decimal.Zero,
		Status:           domainCustody.StatusActive,
	}
	if err := r.Custody.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Verify checks the snapshot against itself and against the ledger.
func Verify(ctx context.Context, r uow.Repos, a *domainCustody.Account) error {
	if !a.Consistent() {
		return fmt.Errorf("%w: %s total=%s available=%s blocked=%s", domainCustody.ErrSnapshotDrift,
			a.CustodyID, a.TotalBalance, a.AvailableBalance, a.BlockedAmount)
	}
	bal, err := r.Ledger.Balance(ctx, a.LedgerAccountID)
	if err != nil {
		return err
	}
	if !bal.Equal(a.TotalBalance) {
		return fmt.Errorf("%w: %s total=%s ledger=%s", domainCustody.ErrSnapshotDrift,
			a.CustodyID, a.TotalBalance, bal)
	}
	return nil
}

func toAccountDTO(a *domainCustody.Account) AccountDTO {
	return AccountDTO{
		CustodyID:        a.CustodyID,
		OwnerRef:         a.OwnerRef,
		OwnerType:        string(a.OwnerType),
		AvailableBalance: a.AvailableBalance,
		BlockedAmount:    a.BlockedAmount,
		TotalBalance:     a.TotalBalance,
		Status:           string(a.Status),
	}
}

var errSameCustody = fmt.Errorf("custody transfer to the same account: %w", errs.ErrInvalidInput)
