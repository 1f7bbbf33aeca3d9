package fee

import (
	"fmt"
	"time"

	"edu-lending-core/internal/domain/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateCharge = fmt.Errorf("fee already charged for this period: %w", errs.ErrInvalidState)
	ErrUnknownType     = fmt.Errorf("unknown fee type: %w", errs.ErrInvalidInput)
	ErrReleaseOnly     = fmt.Errorf("fee is charged on release only: %w", errs.ErrInvalidInput)
	ErrNotBillable     = fmt.Errorf("loan is not billable: %w", errs.ErrInvalidState)
)

type Type string

const (
	TypeOrigination Type = "origination"
	TypeMarketplace Type = "marketplace"
	TypeCustody     Type = "custody"
	TypeSpread      Type = "spread"
)

// Periodic fees accrue while the loan is billable; the rest belong to release.
func (t Type) Periodic() bool { return t == TypeCustody || t == TypeSpread }

func (t Type) Valid() bool {
	switch t {
	case TypeOrigination, TypeMarketplace, TypeCustody, TypeSpread:
		return true
	}
	return false
}

// Table: loan_fees. One row per charge event; (loan, type, period start) is unique.
type LoanFee struct {
	ID          uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	LoanID      uint64          `gorm:"column:loan_id;not null;uniqueIndex:ux_loan_fees_period,priority:1" json:"-"`
	FeeType     Type            `gorm:"column:fee_type;size:16;not null;uniqueIndex:ux_loan_fees_period,priority:2" json:"fee_type"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	PeriodStart time.Time       `gorm:"column:period_start;type:date;not null;uniqueIndex:ux_loan_fees_period,priority:3" json:"period_start"`
	PeriodEnd   time.Time       `gorm:"column:period_end;type:date;not null" json:"period_end"`
	LedgerRef   string          `gorm:"column:ledger_ref;size:128;not null" json:"ledger_ref"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (LoanFee) TableName() string { return "loan_fees" }

// Period is an inclusive date range a fee covers.
type Period struct {
	Start time.Time
	End   time.Time
}

// MonthFrom returns [date, date+1month-1day]. A start past the end of the
// next month clamps, so Jan 31 covers up to Feb 27 and Feb 28 starts the next.
func MonthFrom(date time.Time) Period {
	start := truncateDay(date)
	first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
	next := time.Date(first.Year(), first.Month(), min(start.Day(), first.AddDate(0, 1, -1).Day()), 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: next.AddDate(0, 0, -1)}
}

// Day returns the single-day period for one-off charges.
func Day(date time.Time) Period {
	d := truncateDay(date)
	return Period{Start: d, End: d}
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Reference is the ledger tag for a fee charge; stable across retries.
func Reference(loanID string, t Type, p Period) string {
	return fmt.Sprintf("fee:%s:%s:%s", loanID, t, p.Start.Format("2006-01-02"))
}
