package custody

import (
	"time"

	"github.com/shopspring/decimal"
)

type DepositInput struct {
	CustodyID    string
	Amount       decimal.Decimal
	Method       string
	ReferenceTag string
}

type TransferInput struct {
	FromCustodyID string
	ToCustodyID   string
	Amount        decimal.Decimal
	ReferenceTag  string
}

type TxnDTO struct {
	TxnID        string          `json:"txn_id"`
	CustodyID    string          `json:"custody_id"`
	Kind         string          `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	ReferenceTag string          `json:"reference_tag"`
	CreatedAt    time.Time       `json:"created_at"`
}

type AccountDTO struct {
	CustodyID        string          `json:"custody_id"`
	OwnerRef         string          `json:"owner_ref"`
	OwnerType        string          `json:"owner_type"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	BlockedAmount    decimal.Decimal `json:"blocked_amount"`
	TotalBalance     decimal.Decimal `json:"total_balance"`
	Status           string          `json:"status"`
}

// ReconcileDTO compares the stored snapshot against the ledger.
type ReconcileDTO struct {
	AccountDTO
	LedgerBalance decimal.Decimal `json:"ledger_balance"`
	Consistent    bool            `json:"consistent"`
}
