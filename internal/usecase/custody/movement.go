package custody

import (
	"context"

	domainCustody "edu-lending-core/internal/domain/custody"
	domainLedger "edu-lending-core/internal/domain/ledger"
	domainLoan "edu-lending-core/internal/domain/loan"
	domainOffer "edu-lending-core/internal/domain/offer"
	"edu-lending-core/internal/domain/uow"
	"edu-lending-core/internal/usecase/ledger"
	"edu-lending-core/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger categories for custody movements.
const (
	CategoryDeposit  = "deposit"
	CategoryTransfer = "transfer"
	CategoryFunding  = "funding"
	CategoryFee      = "fee"
)

// The functions below mutate locked snapshots inside the caller's transaction.
// Each one posts to the ledger (block/unblock excepted), appends the audit rows
// and re-verifies the snapshot before returning.

// Deposit moves cash from the clearing account of method into a.
func Deposit(ctx context.Context, r uow.Repos, a *domainCustody.Account, amount decimal.Decimal, method, ref string) (*domainCustody.Transaction, error) {
	if !money.Positive(amount) {
		return nil, domainLedger.ErrInvalidAmount
	}
	if a.Status == domainCustody.StatusFrozen {
		return nil, domainCustody.ErrFrozen
	}
	clearing, err := ledger.EnsureClearing(ctx, r, method)
	if err != nil {
		return nil, err
	}
	if _, err := ledger.Post(ctx, r, domainLedger.Transfer{
		From:         clearing.ID,
		To:           a.LedgerAccountID,
		Amount:       amount,
		Category:     CategoryDeposit,
		Subcategory:  method,
		ReferenceTag: ref,
	}); err != nil {
		return nil, err
	}
	a.Credit(amount)
	t := &domainCustody.Transaction{Kind: domainCustody.TxnDeposit, Amount: amount, ReferenceTag: ref, Method: method}
	if err := settle(ctx, r, a, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Move transfers amount between two custody accounts. It never overdraws from.
func Move(ctx context.Context, r uow.Repos, from, to *domainCustody.Account, amount decimal.Decimal, category, ref string) (*domainCustody.Transaction, error) {
	if !money.Positive(amount) {
		return nil, domainLedger.ErrInvalidAmount
	}
	if to.Status == domainCustody.StatusFrozen {
		return nil, domainCustody.ErrFrozen
	}
	if err := from.Debit(amount); err != nil {
		return nil, err
	}
	if _, err := ledger.Post(ctx, r, domainLedger.Transfer{
		From:         from.LedgerAccountID,
		To:           to.LedgerAccountID,
		Amount:       amount,
		Category:     category,
		ReferenceTag: ref,
		Meta:         map[string]any{"from_custody_id": from.CustodyID, "to_custody_id": to.CustodyID},
	}); err != nil {
		return nil, err
	}
	to.Credit(amount)

	toID, fromID := to.CustodyID, from.CustodyID
	out := &domainCustody.Transaction{Kind: domainCustody.TxnTransferOut, Amount: amount, ReferenceTag: ref, CounterpartyCustodyID: &toID}
	in := &domainCustody.Transaction{Kind: domainCustody.TxnTransferIn, Amount: amount, ReferenceTag: ref, CounterpartyCustodyID: &fromID}
	if err := settle(ctx, r, from, out); err != nil {
		return nil, err
	}
	if err := settle(ctx, r, to, in); err != nil {
		return nil, err
	}
	return out, nil
}

// Fund credits a from a non-custody ledger account, e.g. an investor.
func Fund(ctx context.Context, r uow.Repos, a *domainCustody.Account, payer uint64, amount decimal.Decimal, ref string, meta map[string]any) (*domainCustody.Transaction, error) {
	if _, err := ledger.Post(ctx, r, domainLedger.Transfer{
		From:         payer,
		To:           a.LedgerAccountID,
		Amount:       amount,
		Category:     CategoryFunding,
		ReferenceTag: ref,
		Meta:         meta,
	}); err != nil {
		return nil, err
	}
	a.Credit(amount)
	t := &domainCustody.Transaction{Kind: domainCustody.TxnTransferIn, Amount: amount, ReferenceTag: ref}
	if err := settle(ctx, r, a, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Charge debits a fee from a into payee. The balance may go negative.
func Charge(ctx context.Context, r uow.Repos, a *domainCustody.Account, payee uint64, amount decimal.Decimal, subcategory, ref string) (*domainCustody.Transaction, error) {
	if _, err := ledger.Post(ctx, r, domainLedger.Transfer{
		From:         a.LedgerAccountID,
		To:           payee,
		Amount:       amount,
		Category:     CategoryFee,
		Subcategory:  subcategory,
		ReferenceTag: ref,
	}); err != nil {
		return nil, err
	}
	a.Charge(amount)
	t := &domainCustody.Transaction{Kind: domainCustody.TxnFee, Amount: amount, ReferenceTag: ref}
	if err := settle(ctx, r, a, t); err != nil {
		return nil, err
	}
	return t, nil
}

func Block(ctx context.Context, r uow.Repos, a *domainCustody.Account, amount decimal.Decimal, ref string) (*domainCustody.Transaction, error) {
	if !money.Positive(amount) {
		return nil, domainLedger.ErrInvalidAmount
	}
	if err := a.Block(amount); err != nil {
		return nil, err
	}
	t := &domainCustody.Transaction{Kind: domainCustody.TxnBlock, Amount: amount, ReferenceTag: ref}
	if err := settle(ctx, r, a, t); err != nil {
		return nil, err
	}
	return t, nil
}

func Unblock(ctx context.Context, r uow.Repos, a *domainCustody.Account, amount decimal.Decimal, ref string) (*domainCustody.Transaction, error) {
	if !money.Positive(amount) {
		return nil, domainLedger.ErrInvalidAmount
	}
	if err := a.Unblock(amount); err != nil {
		return nil, err
	}
	t := &domainCustody.Transaction{Kind: domainCustody.TxnUnblock, Amount: amount, ReferenceTag: ref}
	if err := settle(ctx, r, a, t); err != nil {
		return nil, err
	}
	return t, nil
}

// FundFromMatches posts every match of a fully matched loan from the investor
// into the loan custody account and blocks the funds until release. Matches
// already posted under their fund tag are skipped, so reruns are harmless.
func FundFromMatches(ctx context.Context, r uow.Repos, l *domainLoan.Loan, matches []domainOffer.Match) (*domainCustody.Account, error) {
	a, err := EnsureForLoan(ctx, r, l)
	if err != nil {
		return nil, err
	}
	// the snapshot must be the locked row
	if a, err = r.Custody.GetByCustodyIDForUpdate(ctx, a.CustodyID); err != nil {
		return nil, err
	}

	funded := decimal.Zero
	for _, m := range matches {
		ref := FundingRef(m.MatchID)
		prior, err := r.Ledger.EntriesByReference(ctx, ref)
		if err != nil {
			return nil, err
		}
		if len(prior) > 0 {
			continue
		}
		investor, err := ledger.EnsureInvestor(ctx, r, m.InvestorID)
		if err != nil {
			return nil, err
		}
		meta := map[string]any{"loan_id": l.LoanID, "match_id": m.MatchID}
		if _, err := Fund(ctx, r, a, investor.ID, m.AmountMatched, ref, meta); err != nil {
			return nil, err
		}
		funded = funded.Add(m.AmountMatched)
	}
	if funded.IsPositive() {
		if _, err := Block(ctx, r, a, funded, EscrowRef(l.LoanID)); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func FundingRef(matchID string) string { return "fund:" + matchID }
func EscrowRef(loanID string) string   { return "escrow:" + loanID }

func settle(ctx context.Context, r uow.Repos, a *domainCustody.Account, t *domainCustody.Transaction) error {
	if err := r.Custody.Save(ctx, a); err != nil {
		return err
	}
	t.TxnID = uuid.NewString()
	t.CustodyAccountID = a.ID
	if err := r.Custody.AppendTransaction(ctx, t); err != nil {
		return err
	}
	return Verify(ctx, r, a)
}
