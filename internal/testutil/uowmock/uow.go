package uowmock

import (
	"context"
	"errors"

	"edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/domain/uow"
)

var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

// UoW is a function-backed mock that satisfies uow.UnitOfWork.
// Unset functions return errUnimplemented.
type UoW struct {
	WithinTxFn     func(ctx context.Context, fn func(r uow.Repos) error) error
	WithinLoanTxFn func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error

	// Commits counts bodies that returned nil.
	Commits int
}

// Over returns a UoW that runs every body against repos without a real
// transaction. WithinLoanTx resolves the loan through repos.Loans.
func Over(repos uow.Repos) *UoW {
	m := &UoW{}
	m.WithinTxFn = func(_ context.Context, fn func(uow.Repos) error) error {
		return m.commit(fn(repos))
	}
	m.WithinLoanTxFn = func(ctx context.Context, loanID string, fn func(uow.Repos, *loan.Loan) error) error {
		if repos.Loans == nil {
			return errUnimplemented
		}
		l, err := repos.Loans.GetByLoanIDForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		return m.commit(fn(repos, l))
	}
	return m
}

func (m *UoW) commit(err error) error {
	if err == nil {
		m.Commits++
	}
	return err
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn != nil {
		return m.WithinTxFn(ctx, fn)
	}
	return errUnimplemented
}

func (m *UoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	if m.WithinLoanTxFn != nil {
		return m.WithinLoanTxFn(ctx, loanID, fn)
	}
	return errUnimplemented
}
