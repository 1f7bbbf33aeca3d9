package custody

import (
	"fmt"
	"time"

	"edu-lending-core/internal/domain/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = fmt.Errorf("custody account %w", errs.ErrNotFound)
	ErrInsufficientFunds = fmt.Errorf("custody account has insufficient available balance: %w", errs.ErrInvalidState)
	ErrFrozen            = fmt.Errorf("custody account is frozen: %w", errs.ErrInvalidState)
	ErrSnapshotDrift     = fmt.Errorf("custody snapshot diverges from ledger: %w", errs.ErrIntegrityFault)
)

type OwnerType string

const (
	OwnerSystem      OwnerType = "system"
	OwnerInstitution OwnerType = "institution"
	OwnerInvestor    OwnerType = "investor"
	OwnerBorrower    OwnerType = "borrower"
)

type Status string

const (
	StatusActive Status = "active"
	StatusFrozen Status = "frozen"
)

// Table: custody_accounts. The balance columns are a read snapshot; the ledger
// is the source of truth and TotalBalance must always equal the ledger balance.
type Account struct {
	ID               uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	CustodyID        string          `gorm:"column:custody_id;type:char(32);not null;uniqueIndex:ux_custody_accounts_custody_id" json:"custody_id"`
	OwnerRef         string          `gorm:"column:owner_ref;size:32;not null;uniqueIndex:ux_custody_accounts_owner,priority:2" json:"owner_ref"`
	OwnerType        OwnerType       `gorm:"column:owner_type;size:16;not null;uniqueIndex:ux_custody_accounts_owner,priority:1" json:"owner_type"`
	LedgerAccountID  uint64          `gorm:"column:ledger_account_id;not null" json:"-"`
	AvailableBalance decimal.Decimal `gorm:"column:available_balance;type:decimal(18,2);not null;default:0" json:"available_balance"`
	BlockedAmount    decimal.Decimal `gorm:"column:blocked_amount;type:decimal(18,2);not null;default:0" json:"blocked_amount"`
	TotalBalance     decimal.Decimal `gorm:"column:total_balance;type:decimal(18,2);not null;default:0" json:"total_balance"`
	Status           Status          `gorm:"column:status;size:16;not null;default:'active'" json:"status"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string { return "custody_accounts" }

// Consistent reports whether total == available + blocked.
func (a *Account) Consistent() bool {
	return a.TotalBalance.Equal(a.AvailableBalance.Add(a.BlockedAmount))
}

func (a *Account) debit(amount decimal.Decimal) {
	a.AvailableBalance = a.AvailableBalance.Sub(amount)
	a.TotalBalance = a.TotalBalance.Sub(amount)
}

// Credit adds funds to the available balance.
func (a *Account) Credit(amount decimal.Decimal) {
	a.AvailableBalance = a.AvailableBalance.Add(amount)
	a.TotalBalance = a.TotalBalance.Add(amount)
}

// Debit withdraws from the available balance, refusing to overdraw it.
func (a *Account) Debit(amount decimal.Decimal) error {
	if a.Status == StatusFrozen {
		return ErrFrozen
	}
	if a.AvailableBalance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.debit(amount)
	return nil
}

// Charge withdraws a fee; the balance may go negative (fee receivable).
func (a *Account) Charge(amount decimal.Decimal) { a.debit(amount) }

// Block moves amount from available to blocked.
func (a *Account) Block(amount decimal.Decimal) error {
	if a.AvailableBalance.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.AvailableBalance = a.AvailableBalance.Sub(amount)
	a.BlockedAmount = a.BlockedAmount.Add(amount)
	return nil
}

// Unblock moves amount from blocked back to available.
func (a *Account) Unblock(amount decimal.Decimal) error {
	if a.BlockedAmount.LessThan(amount) {
		return ErrInsufficientFunds
	}
	a.BlockedAmount = a.BlockedAmount.Sub(amount)
	a.AvailableBalance = a.AvailableBalance.Add(amount)
	return nil
}

type TxnKind string

const (
	TxnDeposit     TxnKind = "deposit"
	TxnTransferIn  TxnKind = "transfer_in"
	TxnTransferOut TxnKind = "transfer_out"
	TxnFee         TxnKind = "fee"
	TxnBlock       TxnKind = "block"
	TxnUnblock     TxnKind = "unblock"
)

// Table: custody_transactions. Audit mirror of ledger postings, keyed by custody account.
type Transaction struct {
	ID                    uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	TxnID                 string          `gorm:"column:txn_id;type:char(36);not null;uniqueIndex:ux_custody_transactions_txn_id" json:"txn_id"`
	CustodyAccountID      uint64          `gorm:"column:custody_account_id;not null;index:idx_custody_transactions_account" json:"-"`
	CounterpartyCustodyID *string         `gorm:"column:counterparty_custody_id;type:char(32)" json:"counterparty_custody_id,omitempty"`
	Kind                  TxnKind         `gorm:"column:kind;size:16;not null" json:"kind"`
	Amount                decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	ReferenceTag          string          `gorm:"column:reference_tag;size:128;not null" json:"reference_tag"`
	Method                string          `gorm:"column:method;size:16" json:"method,omitempty"`
	CreatedAt             time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Transaction) TableName() string { return "custody_transactions" }
