package custody

import (
	"context"
	"errors"

	domainCustody "edu-lending-core/internal/domain/custody"
	"edu-lending-core/internal/domain/errs"
	domainLoan "edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/domain/uow"
	"edu-lending-core/internal/infrastructure/metrics"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Usecase struct {
	uow     uow.UnitOfWork
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewUsecase(tx uow.UnitOfWork, log *zap.Logger, m *metrics.Collector) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{uow: tx, log: log, metrics: m}
}

// Alert logs and counts integrity faults. Those must reach an operator and are never retried.
func Alert(log *zap.Logger, m *metrics.Collector, op string, err error, fields ...zap.Field) {
	if !errors.Is(err, errs.ErrIntegrityFault) {
		return
	}
	m.IntegrityFault()
	log.Error("integrity fault", append(fields, zap.String("op", op), zap.Error(err))...)
}

// CreateCustodyForLoan is idempotent: a loan has at most one custody account.
func (u *Usecase) CreateCustodyForLoan(ctx context.Context, loanID string) (*AccountDTO, error) {
	var dto AccountDTO
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domainLoan.Loan) error {
		a, err := EnsureForLoan(ctx, r, l)
		if err != nil {
			return err
		}
		dto = toAccountDTO(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (u *Usecase) EnsureInstitutionAccount(ctx context.Context, institutionID string) (*AccountDTO, error) {
	var dto AccountDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := EnsureInstitution(ctx, r, institutionID)
		if err != nil {
			return err
		}
		dto = toAccountDTO(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

func (u *Usecase) Deposit(ctx context.Context, in DepositInput) (*TxnDTO, error) {
	ref := refOrNew(in.ReferenceTag)
	var dto *TxnDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Custody.GetByCustodyIDForUpdate(ctx, in.CustodyID)
		if err != nil {
			return err
		}
		t, err := Deposit(ctx, r, a, in.Amount, in.Method, ref)
		if err != nil {
			return err
		}
		dto = toTxnDTO(a, t)
		return nil
	})
	if err != nil {
		Alert(u.log, u.metrics, "deposit", err, zap.String("custody_id", in.CustodyID))
		return nil, err
	}
	u.metrics.Posting(CategoryDeposit)
	return dto, nil
}

func (u *Usecase) Transfer(ctx context.Context, in TransferInput) (*TxnDTO, error) {
	ref := refOrNew(in.ReferenceTag)
	var dto *TxnDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		from, to, err := lockPair(ctx, r, in.FromCustodyID, in.ToCustodyID)
		if err != nil {
			return err
		}
		t, err := Move(ctx, r, from, to, in.Amount, CategoryTransfer, ref)
		if err != nil {
			return err
		}
		dto = toTxnDTO(from, t)
		return nil
	})
	if err != nil {
		Alert(u.log, u.metrics, "transfer", err,
			zap.String("from_custody_id", in.FromCustodyID), zap.String("to_custody_id", in.ToCustodyID))
		return nil, err
	}
	u.metrics.Posting(CategoryTransfer)
	return dto, nil
}

func (u *Usecase) Block(ctx context.Context, custodyID string, amount decimal.Decimal, ref string) (*TxnDTO, error) {
	return u.hold(ctx, "block", custodyID, amount, ref, Block)
}

func (u *Usecase) Unblock(ctx context.Context, custodyID string, amount decimal.Decimal, ref string) (*TxnDTO, error) {
	return u.hold(ctx, "unblock", custodyID, amount, ref, Unblock)
}

type holdFn func(context.Context, uow.Repos, *domainCustody.Account, decimal.Decimal, string) (*domainCustody.Transaction, error)

func (u *Usecase) hold(ctx context.Context, op, custodyID string, amount decimal.Decimal, ref string, fn holdFn) (*TxnDTO, error) {
	ref = refOrNew(ref)
	var dto *TxnDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Custody.GetByCustodyIDForUpdate(ctx, custodyID)
		if err != nil {
			return err
		}
		t, err := fn(ctx, r, a, amount, ref)
		if err != nil {
			return err
		}
		dto = toTxnDTO(a, t)
		return nil
	})
	if err != nil {
		Alert(u.log, u.metrics, op, err, zap.String("custody_id", custodyID))
		return nil, err
	}
	return dto, nil
}

// Reconcile is read-only. On divergence it returns both the figures and ErrSnapshotDrift.
func (u *Usecase) Reconcile(ctx context.Context, custodyID string) (*ReconcileDTO, error) {
	var dto ReconcileDTO
	var drift error
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Custody.GetByCustodyID(ctx, custodyID)
		if err != nil {
			return err
		}
		bal, err := r.Ledger.Balance(ctx, a.LedgerAccountID)
		if err != nil {
			return err
		}
		dto = ReconcileDTO{AccountDTO: toAccountDTO(a), LedgerBalance: bal}
		drift = Verify(ctx, r, a)
		dto.Consistent = drift == nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	if drift != nil {
		Alert(u.log, u.metrics, "reconcile", drift, zap.String("custody_id", custodyID))
		return &dto, drift
	}
	return &dto, nil
}

func (u *Usecase) Get(ctx context.Context, custodyID string) (*AccountDTO, error) {
	var dto AccountDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		a, err := r.Custody.GetByCustodyID(ctx, custodyID)
		if err != nil {
			return err
		}
		dto = toAccountDTO(a)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// lockPair locks both accounts in custody id order so opposing transfers cannot deadlock.
func lockPair(ctx context.Context, r uow.Repos, fromID, toID string) (from, to *domainCustody.Account, err error) {
	if fromID == toID {
		return nil, nil, errSameCustody
	}
	first, second := fromID, toID
	if second < first {
		first, second = second, first
	}
	a, err := r.Custody.GetByCustodyIDForUpdate(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	b, err := r.Custody.GetByCustodyIDForUpdate(ctx, second)
	if err != nil {
		return nil, nil, err
	}
	if a.CustodyID == fromID {
		return a, b, nil
	}
	return b, a, nil
}

func refOrNew(ref string) string {
	if ref == "" {
		return uuid.NewString()
	}
	return ref
}

func toTxnDTO(a *domainCustody.Account, t *domainCustody.Transaction) *TxnDTO {
	return &TxnDTO{
		TxnID:        t.TxnID,
		CustodyID:    a.CustodyID,
		Kind:         string(t.Kind),
		Amount:       t.Amount,
		ReferenceTag: t.ReferenceTag,
		CreatedAt:    t.CreatedAt,
	}
}
