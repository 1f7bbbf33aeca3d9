package ledger

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	Category      string
	Subcategory   string
	ReferenceTag  string
	Meta          map[string]any
}

type BalanceDTO struct {
	AccountID string          `json:"account_id"`
	Key       string          `json:"account_key"`
	Type      string          `json:"type"`
	Balance   decimal.Decimal `json:"balance"`
	AsOf      time.Time       `json:"as_of"`
}
