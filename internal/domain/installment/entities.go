package installment

import (
	"fmt"
	"time"

	"edu-lending-core/internal/domain/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = fmt.Errorf("installment %w", errs.ErrNotFound)
	ErrAlreadySettled  = fmt.Errorf("installment %w", errs.ErrAlreadySettled)
	ErrOverpayment     = fmt.Errorf("payment exceeds the amount due: %w", errs.ErrInvalidAmount)
	ErrScheduleExists  = fmt.Errorf("loan already has a schedule: %w", errs.ErrInvalidState)
	ErrUnknownTiming   = fmt.Errorf("unknown payment timing: %w", errs.ErrInvalidInput)
	ErrMissingGradDate = fmt.Errorf("graduation date required for this timing: %w", errs.ErrInvalidInput)
)

type Status string

const (
	StatusPending       Status = "pending"
	StatusPaid          Status = "paid"
	StatusPaidEarly     Status = "paid_early"
	StatusPaidLate      Status = "paid_late"
	StatusPartiallyPaid Status = "partially_paid"
	StatusOverdue       Status = "overdue"
)

// Settled reports a terminal, fully paid status.
func (s Status) Settled() bool {
	return s == StatusPaid || s == StatusPaidEarly || s == StatusPaidLate
}

// Timing is the repayment regime chosen for the whole plan.
type Timing string

const (
	TimingDuringStudies   Timing = "during_studies"
	TimingAfterGraduation Timing = "after_graduation"
	TimingHybrid          Timing = "hybrid"
)

func (t Timing) Valid() bool {
	return t == TimingDuringStudies || t == TimingAfterGraduation || t == TimingHybrid
}

// Phase labels a single installment.
type Phase string

const (
	PhaseDuringStudies   Phase = "during_studies"
	PhaseAfterGraduation Phase = "after_graduation"
)

// Table: installments.
type Installment struct {
	ID              uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	InstallmentID   string          `gorm:"column:installment_id;type:char(32);not null;uniqueIndex:ux_installments_installment_id" json:"installment_id"`
	LoanID          uint64          `gorm:"column:loan_id;not null;uniqueIndex:ux_installments_loan_number,priority:1" json:"-"`
	Number          int             `gorm:"column:number;not null;uniqueIndex:ux_installments_loan_number,priority:2" json:"number"`
	Amount          decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null" json:"amount"`
	PrincipalAmount decimal.Decimal `gorm:"column:principal_amount;type:decimal(18,2);not null" json:"principal_amount"`
	InterestAmount  decimal.Decimal `gorm:"column:interest_amount;type:decimal(18,2);not null" json:"interest_amount"`
	DueDate         time.Time       `gorm:"column:due_date;type:date;not null;index:idx_installments_due" json:"due_date"`
	PaymentPhase    Phase           `gorm:"column:payment_phase;size:24;not null" json:"payment_phase"`
	IsSymbolic      bool            `gorm:"column:is_symbolic;not null;default:false" json:"is_symbolic"`
	InvestorShare   decimal.Decimal `gorm:"column:investor_share;type:decimal(18,2);not null" json:"investor_share"`
	QiEduFeeShare   decimal.Decimal `gorm:"column:qi_edu_fee_share;type:decimal(18,2);not null" json:"qi_edu_fee_share"`
	Status          Status          `gorm:"column:status;size:16;not null;default:'pending'" json:"status"`
	PaidAmount      decimal.Decimal `gorm:"column:paid_amount;type:decimal(18,2);not null;default:0" json:"paid_amount"`
	// platform part of PaidAmount so far; never exceeds QiEduFeeShare
	PlatformPaid    decimal.Decimal `gorm:"column:platform_paid;type:decimal(18,2);not null;default:0" json:"platform_paid"`
	DiscountAmount  decimal.Decimal `gorm:"column:discount_amount;type:decimal(18,2);not null;default:0" json:"discount_amount"`
	LateFeeAmount   decimal.Decimal `gorm:"column:late_fee_amount;type:decimal(18,2);not null;default:0" json:"late_fee_amount"`
	PaymentMethod   string          `gorm:"column:payment_method;size:16" json:"payment_method,omitempty"`
	Payments        int             `gorm:"column:payments;not null;default:0" json:"payments"`
	PaidAt          *time.Time      `gorm:"column:paid_at" json:"paid_at,omitempty"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Installment) TableName() string { return "installments" }
