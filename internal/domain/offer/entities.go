package offer

import (
	"fmt"
	"time"

	"edu-lending-core/internal/domain/errs"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = fmt.Errorf("offer %w", errs.ErrNotFound)
)

// Table: offers. AmountAvailable only ever decreases, and never below zero.
type Offer struct {
	ID              uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	OfferID         string          `gorm:"column:offer_id;type:char(32);not null;uniqueIndex:ux_offers_offer_id" json:"offer_id"`
	InvestorID      string          `gorm:"column:investor_id;size:32;not null;index:idx_offers_investor" json:"investor_id"`
	AmountAvailable decimal.Decimal `gorm:"column:amount_available;type:decimal(18,2);not null" json:"amount_available"`
	TermMonths      int             `gorm:"column:term_months;not null" json:"term_months"`
	MinRate         decimal.Decimal `gorm:"column:min_rate;type:decimal(10,4);not null" json:"min_rate"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime;index:idx_offers_queue" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Offer) TableName() string { return "offers" }

// Table: matches. Immutable link between a loan and the offer that funded part of it.
type Match struct {
	ID            uint64          `gorm:"column:id;primaryKey;autoIncrement" json:"-"`
	MatchID       string          `gorm:"column:match_id;type:char(32);not null;uniqueIndex:ux_matches_match_id" json:"match_id"`
	LoanID        uint64          `gorm:"column:loan_id;not null;index:idx_matches_loan" json:"-"`
	OfferID       uint64          `gorm:"column:offer_id;not null;index:idx_matches_offer" json:"-"`
	InvestorID    string          `gorm:"column:investor_id;size:32;not null" json:"investor_id"`
	AmountMatched decimal.Decimal `gorm:"column:amount_matched;type:decimal(18,2);not null" json:"amount_matched"`
	Rate          decimal.Decimal `gorm:"column:rate;type:decimal(10,4);not null" json:"rate"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Match) TableName() string { return "matches" }
