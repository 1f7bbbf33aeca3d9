package payment

import (
	"time"

	"edu-lending-core/internal/usecase/schedule"

	"github.com/shopspring/decimal"
)

// Policy prices off-schedule payments.
type Policy struct {
	EarlyWindowDays  int
	EarlyDiscountPct decimal.Decimal
	LateFeePct       decimal.Decimal
}

type Timing string

const (
	TimingEarly  Timing = "early"
	TimingOnTime Timing = "on_time"
	TimingLate   Timing = "late"
)

type PayInput struct {
	InstallmentID string
	Method        string
	Amount        decimal.Decimal
	Date          time.Time
	// RequestID is the caller's idempotency key; it is kept on the ledger entries.
	RequestID string
}

type PaymentDTO struct {
	Installment  schedule.InstallmentDTO `json:"installment"`
	Timing       Timing                  `json:"timing"`
	Applied      decimal.Decimal         `json:"applied"`
	DueTotal     decimal.Decimal         `json:"due_total"`
	Remaining    decimal.Decimal         `json:"remaining"`
	InvestorPart decimal.Decimal         `json:"investor_part"`
	PlatformPart decimal.Decimal         `json:"platform_part"`
	ReferenceTag string                  `json:"reference_tag"`
	LoanStatus   string                  `json:"loan_status"`
}
