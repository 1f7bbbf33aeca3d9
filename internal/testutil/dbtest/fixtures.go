package dbtest

import (
	"testing"
	"time"

	"edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/domain/offer"
	"edu-lending-core/pkg/id"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoanFixture inserts a loan with the standard fee schedule.
func LoanFixture(t *testing.T, db *gorm.DB, amount string, status loan.Status) *loan.Loan {
	t.Helper()
	now := time.Now().UTC()
	l := &loan.Loan{
		LoanID:            id.NewID32(),
		BorrowerID:        id.NewID32(),
		InstitutionID:     id.NewID32(),
		Amount:            decimal.RequireFromString(amount),
		TermMonths:        12,
		MonthlyRate:       decimal.RequireFromString("0.02"),
		Status:            status,
		AmountFunded:      decimal.Zero,
		OriginationPct:    decimal.RequireFromString("0.015"),
		MarketplacePct:    decimal.RequireFromString("0.005"),
		CustodyPctMonthly: decimal.RequireFromString("0.0005"),
		SpreadPctAnnual:   decimal.RequireFromString("0.02"),
		StatusUpdatedAt:   now,
	}
	if err := db.Create(l).Error; err != nil {
		t.Fatalf("create loan: %v", err)
	}
	return l
}

// OfferFixture inserts an offer; createdAt fixes its place in the FIFO queue.
func OfferFixture(t *testing.T, db *gorm.DB, amount string, createdAt time.Time) *offer.Offer {
	t.Helper()
	o := &offer.Offer{
		OfferID:         id.NewID32(),
		InvestorID:      id.NewID32(),
		AmountAvailable: decimal.RequireFromString(amount),
		TermMonths:      12,
		MinRate:         decimal.RequireFromString("0.01"),
		CreatedAt:       createdAt.UTC(),
	}
	if err := db.Create(o).Error; err != nil {
		t.Fatalf("create offer: %v", err)
	}
	return o
}

// Reload re-reads a loan by public id.
func Reload(t *testing.T, db *gorm.DB, loanID string) *loan.Loan {
	t.Helper()
	var l loan.Loan
	if err := db.Where("loan_id = ?", loanID).First(&l).Error; err != nil {
		t.Fatalf("reload loan: %v", err)
	}
	return &l
}

// MatchFixture links part of o to l without touching either row.
func MatchFixture(t *testing.T, db *gorm.DB, l *loan.Loan, o *offer.Offer, amount string) *offer.Match {
	t.Helper()
	m := &offer.Match{
		MatchID:       id.NewID32(),
		LoanID:        l.ID,
		OfferID:       o.ID,
		InvestorID:    o.InvestorID,
		AmountMatched: decimal.RequireFromString(amount),
		Rate:          l.MonthlyRate,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("create match: %v", err)
	}
	return m
}
