package ledger

import (
	"fmt"
	"strings"
	"time"

	"edu-lending-core/internal/domain/errs"
	"edu-lending-core/pkg/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrAccountNotFound = fmt.Errorf("ledger account %w", errs.ErrNotFound)
	ErrInvalidAmount   = fmt.Errorf("ledger transfer: %w", errs.ErrInvalidAmount)
	ErrSameAccount     = fmt.Errorf("ledger transfer to the same account: %w", errs.ErrInvalidInput)
	ErrMissingTag      = fmt.Errorf("ledger transfer without reference tag: %w", errs.ErrInvalidInput)
)

type AccountType string

const (
	AccountBorrower    AccountType = "borrower"
	AccountInvestor    AccountType = "investor"
	AccountInstitution AccountType = "institution"
	AccountPlatform    AccountType = "platform"
	AccountCustody     AccountType = "custody"
	AccountClearing    AccountType = "clearing"
)

// Singleton keys. Every ledger account is reachable through exactly one key.
const PlatformKey = "platform"

func BorrowerKey(borrowerID string) string { return "borrower:" + borrowerID }
func InvestorKey(investorID string) string { return "investor:" + investorID }
func CustodyKey(custodyID string) string { return "custody:" + custodyID }
func ClearingKey(method string) string { return "clearing:" + strings.ToLower(method) }

// Table: ledger_accounts. Balance is never stored; it is derived from entries.
type Account struct {
	ID        uint64      `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	AccountID string      `gorm:"column:account_id;type:char(32);not null;uniqueIndex:ux_ledger_accounts_account_id" json:"account_id"`
	Key       string      `gorm:"column:account_key;size:128;not null;uniqueIndex:ux_ledger_accounts_key" json:"account_key"`
	Type      AccountType `gorm:"column:type;size:16;not null" json:"type"`
	OwnerRef  string      `gorm:"column:owner_ref;size:64" json:"owner_ref"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Account) TableName() string { return "ledger_accounts" }

type Direction string

const (
	Debit  Direction = "D"
	Credit Direction = "C"
)

// Table: ledger_entries. Rows are insert-only.
type Entry struct {
	ID           uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	EntryID      string          `gorm:"column:entry_id;type:char(36);not null;uniqueIndex:ux_ledger_entries_entry_id" json:"entry_id"`
	AccountID    uint64          `gorm:"column:account_id;not null;index:idx_ledger_entries_account" json:"-"`
	Amount       decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	Direction    Direction       `gorm:"column:direction;type:char(1);not null" json:"direction"`
	ReferenceTag string          `gorm:"column:reference_tag;size:128;not null;index:idx_ledger_entries_ref" json:"reference_tag"`
	Category     string          `gorm:"column:category;size:32;not null" json:"category"`
	Subcategory  string          `gorm:"column:subcategory;size:32" json:"subcategory"`
	Meta         datatypes.JSON  `gorm:"column:meta" json:"meta,omitempty"`
	OccurredAt   time.Time       `gorm:"column:occurred_at;not null" json:"occurred_at"`
}

func (Entry) TableName() string { return "ledger_entries" }

func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.EntryID == "" {
		e.EntryID = uuid.NewString()
	}
	return nil
}

// Transfer moves Amount from From to To. It is posted as one debit and one credit.
type Transfer struct {
	From         uint64
	To           uint64
	Amount       decimal.Decimal
	Category     string
	Subcategory  string
	ReferenceTag string
	Meta         map[string]any
	OccurredAt   time.Time
}

func (t Transfer) Validate() error {
	if !money.Positive(t.Amount) {
		return ErrInvalidAmount
	}
	if t.From == t.To {
		return ErrSameAccount
	}
	if strings.TrimSpace(t.ReferenceTag) == "" {
		return ErrMissingTag
	}
	return nil
}

// Posting is the pair of entries written for one Transfer.
type Posting struct {
	DebitEntryID  string `json:"debit_entry_id"`
	CreditEntryID string `json:"credit_entry_id"`
	ReferenceTag  string `json:"reference_tag"`
}

// Totals aggregates every entry in the ledger.
type Totals struct {
	Debits  decimal.Decimal
	Credits decimal.Decimal
}

func (t Totals) Balanced() bool { return t.Debits.Equal(t.Credits) }
