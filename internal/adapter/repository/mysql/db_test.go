package mysql

import (
	"testing"
	"time"

	"edu-lending-core/internal/domain/loan"
	"edu-lending-core/pkg/id"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestDB migrates every service table into a private in-memory sqlite.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(Models()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return db
}

// openMockDB is a mysql-dialect gorm over sqlmock, for asserting the SQL itself.
func openMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		t.Fatalf("gorm open: %v", err)
	}
	return db, mock
}

func makeLoan(borrowerID string, status loan.Status) *loan.Loan {
	return &loan.Loan{
		LoanID:            id.NewID32(),
		BorrowerID:        borrowerID,
		InstitutionID:     id.NewID32(),
		Amount:            decimal.RequireFromString("5000"),
		TermMonths:        12,
		MonthlyRate:       decimal.RequireFromString("0.02"),
		Status:            status,
		AmountFunded:      decimal.Zero,
		OriginationPct:    decimal.RequireFromString("0.015"),
		MarketplacePct:    decimal.RequireFromString("0.005"),
		CustodyPctMonthly: decimal.RequireFromString("0.0005"),
		SpreadPctAnnual:   decimal.RequireFromString("0.02"),
		StatusUpdatedAt:   time.Now().UTC(),
	}
}
