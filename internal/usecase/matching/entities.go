package matching

import (
	"time"

	"github.com/shopspring/decimal"
)

type MatchDTO struct {
	MatchID       string          `json:"match_id"`
	OfferID       string          `json:"offer_id"`
	InvestorID    string          `json:"investor_id"`
	AmountMatched decimal.Decimal `json:"amount_matched"`
	Rate          decimal.Decimal `json:"rate"`
	CreatedAt     time.Time       `json:"created_at"`
}

// MatchResult reports one matching run. Matches holds only the matches this run created.
type MatchResult struct {
	LoanID       string          `json:"loan_id"`
	Status       string          `json:"status"`
	AmountFunded decimal.Decimal `json:"amount_funded"`
	Remaining    decimal.Decimal `json:"remaining"`
	CustodyID    string          `json:"custody_id,omitempty"`
	Matches      []MatchDTO      `json:"matches"`
}
