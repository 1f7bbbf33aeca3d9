package loan

import (
	"fmt"
	"time"

	"edu-lending-core/internal/domain/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = fmt.Errorf("loan %w", errs.ErrNotFound)
	ErrInvalidTransition = fmt.Errorf("loan transition: %w", errs.ErrInvalidState)
	ErrNotMatchable      = fmt.Errorf("loan is not open for matching: %w", errs.ErrInvalidState)
	ErrNotMatched        = fmt.Errorf("loan is not matched: %w", errs.ErrInvalidState)
	ErrIneligible        = fmt.Errorf("borrower is not eligible: %w", errs.ErrInvalidState)
	ErrPendingExists     = fmt.Errorf("borrower already has a pending loan: %w", errs.ErrInvalidState)
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusOpen      Status = "open"
	StatusPartial   Status = "partial"
	StatusMatched   Status = "matched"
	StatusDisbursed Status = "disbursed"
	StatusRepaying  Status = "repaying"
	StatusClosed    Status = "closed"
	StatusDefaulted Status = "defaulted"
)

// Matchable reports whether the matching engine may allocate offers to the loan.
func (s Status) Matchable() bool { return s == StatusOpen || s == StatusPartial }

// Billable reports whether custody fees accrue for the loan.
func (s Status) Billable() bool { return s == StatusDisbursed || s == StatusRepaying }

type Loan struct {
	ID                uint64          `gorm:"primaryKey;column:id" json:"-"`
	LoanID            string          `gorm:"size:32;uniqueIndex:ux_loans_loan_id" json:"loan_id"`
	BorrowerID        string          `gorm:"size:32;index:idx_loans_borrower" json:"borrower_id"`
	InstitutionID     string          `gorm:"size:32;index:idx_loans_institution" json:"institution_id"`
	CustodyAccountRef *string         `gorm:"size:32" json:"custody_account_ref,omitempty"`
	Amount            decimal.Decimal `gorm:"type:decimal(18,2);not null" json:"amount"`
	TermMonths        int             `gorm:"not null" json:"term_months"`
	MonthlyRate       decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"monthly_rate"`
	Status            Status          `gorm:"size:16;not null;default:'pending';index:idx_loans_status" json:"status"`
	AmountFunded      decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"amount_funded"`
	OriginationPct    decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"origination_pct"`
	MarketplacePct    decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"marketplace_pct"`
	CustodyPctMonthly decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"custody_pct_monthly"`
	SpreadPctAnnual   decimal.Decimal `gorm:"type:decimal(10,4);not null" json:"spread_pct_annual"`
	// forecast only; actual charges live in loan_fees
	RevenueForecastFirstYear decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0" json:"revenue_forecast_first_year"`
	DisbursedAt              *time.Time      `json:"disbursed_at,omitempty"`
	StatusUpdatedAt          time.Time       `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedAt                time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt                time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Loan) TableName() string { return "loans" }

// Remaining is the part of the request not yet covered by matches.
func (l *Loan) Remaining() decimal.Decimal { return l.Amount.Sub(l.AmountFunded) }

// Transition moves the loan to s and stamps the change.
func (l *Loan) Transition(s Status, at time.Time) {
	l.Status = s
	l.StatusUpdatedAt = at.UTC()
}

// CreditProfile is the borrower's score as reported by the scoring service.
type CreditProfile struct {
	Score         int    `json:"score"`
	RiskBand      string `json:"risk_band"`
	FraudSeverity int    `json:"fraud_severity"`
}

// Eligible rejects band E and any fraud severity at or above maxFraud.
func (p CreditProfile) Eligible(maxFraud int) bool {
	return p.RiskBand != "E" && p.FraudSeverity < maxFraud
}
