package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

// Defaults are stamped on a loan when the request leaves a percentage out.
type Defaults struct {
	OriginationPct    decimal.Decimal
	MarketplacePct    decimal.Decimal
	CustodyPctMonthly decimal.Decimal
	SpreadPctAnnual   decimal.Decimal
	MaxFraudSeverity  int
}

type CreateLoanInput struct {
	BorrowerID        string           `json:"borrower_id"`
	InstitutionID     string           `json:"institution_id"`
	Amount            decimal.Decimal  `json:"amount"`
	TermMonths        int              `json:"term_months"`
	MonthlyRate       decimal.Decimal  `json:"monthly_rate"`
	OriginationPct    *decimal.Decimal `json:"origination_pct,omitempty"`
	MarketplacePct    *decimal.Decimal `json:"marketplace_pct,omitempty"`
	CustodyPctMonthly *decimal.Decimal `json:"custody_pct_monthly,omitempty"`
	SpreadPctAnnual   *decimal.Decimal `json:"spread_pct_annual,omitempty"`
}

type LoanDTO struct {
	LoanID                   string          `json:"loan_id"`
	BorrowerID               string          `json:"borrower_id"`
	InstitutionID            string          `json:"institution_id"`
	CustodyAccountRef        *string         `json:"custody_account_ref,omitempty"`
	Amount                   decimal.Decimal `json:"amount"`
	TermMonths               int             `json:"term_months"`
	MonthlyRate              decimal.Decimal `json:"monthly_rate"`
	Status                   string          `json:"status"`
	AmountFunded             decimal.Decimal `json:"amount_funded"`
	OriginationPct           decimal.Decimal `json:"origination_pct"`
	MarketplacePct           decimal.Decimal `json:"marketplace_pct"`
	CustodyPctMonthly        decimal.Decimal `json:"custody_pct_monthly"`
	SpreadPctAnnual          decimal.Decimal `json:"spread_pct_annual"`
	RevenueForecastFirstYear decimal.Decimal `json:"revenue_forecast_first_year"`
	DisbursedAt              *time.Time      `json:"disbursed_at,omitempty"`
	CreatedAt                time.Time       `json:"created_at"`
}
