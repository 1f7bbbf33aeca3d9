package offer

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateOfferInput struct {
	InvestorID string          `json:"investor_id"`
	Amount     decimal.Decimal `json:"amount"`
	TermMonths int             `json:"term_months"`
	MinRate    decimal.Decimal `json:"min_rate"`
}

type OfferDTO struct {
	OfferID         string          `json:"offer_id"`
	InvestorID      string          `json:"investor_id"`
	AmountAvailable decimal.Decimal `json:"amount_available"`
	TermMonths      int             `json:"term_months"`
	MinRate         decimal.Decimal `json:"min_rate"`
	CreatedAt       time.Time       `json:"created_at"`
}
