package fee

import (
	"time"

	"github.com/shopspring/decimal"
)

type ChargeInput struct {
	LoanID  string
	FeeType string
	Amount  decimal.Decimal
	// PeriodStart defaults to today. Custody fees cover the month starting here.
	PeriodStart *time.Time
}

type FeeDTO struct {
	FeeType     string          `json:"fee_type"`
	Amount      decimal.Decimal `json:"amount"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	LedgerRef   string          `json:"ledger_ref"`
	CreatedAt   time.Time       `json:"created_at"`
}

type RevenueDTO struct {
	LoanID      string          `json:"loan_id"`
	Origination decimal.Decimal `json:"origination"`
	Marketplace decimal.Decimal `json:"marketplace"`
	Custody     decimal.Decimal `json:"custody"`
	Spread      decimal.Decimal `json:"spread"`
	Total       decimal.Decimal `json:"total"`
}
