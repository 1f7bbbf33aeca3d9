package schedule

import (
	"time"

	"github.com/shopspring/decimal"
)

type GenerateInput struct {
	LoanID            string
	Timing            string
	GraduationDate    *time.Time
	GracePeriodMonths int
	// PlatformSharePct overrides the configured platform share when set.
	PlatformSharePct *decimal.Decimal
}

type InstallmentDTO struct {
	InstallmentID   string          `json:"installment_id"`
	Number          int             `json:"number"`
	Amount          decimal.Decimal `json:"amount"`
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	InterestAmount  decimal.Decimal `json:"interest_amount"`
	DueDate         time.Time       `json:"due_date"`
	PaymentPhase    string          `json:"payment_phase"`
	IsSymbolic      bool            `json:"is_symbolic"`
	InvestorShare   decimal.Decimal `json:"investor_share"`
	QiEduFeeShare   decimal.Decimal `json:"qi_edu_fee_share"`
	Status          string          `json:"status"`
	PaidAmount      decimal.Decimal `json:"paid_amount"`
	PlatformPaid    decimal.Decimal `json:"platform_paid"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	LateFeeAmount   decimal.Decimal `json:"late_fee_amount"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
}
