package matching

import (
	"context"
	"sync"
	"testing"
	"time"

	"edu-lending-core/internal/adapter/repository/mysql"
	domainCustody "edu-lending-core/internal/domain/custody"
	"edu-lending-core/internal/domain/errs"
	domainLedger "edu-lending-core/internal/domain/ledger"
	domainLoan "edu-lending-core/internal/domain/loan"
	domainOffer "edu-lending-core/internal/domain/offer"
	"edu-lending-core/internal/testutil/dbtest"
	"edu-lending-core/pkg/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var t0 = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func newUsecase(t *testing.T) (*gorm.DB, *Usecase) {
	t.Helper()
	db := dbtest.Open(t)
	return db, NewUsecase(mysql.NewGormUoW(db), nil, nil)
}

func offerAvailable(t *testing.T, db *gorm.DB, offerID string) string {
	t.Helper()
	var o domainOffer.Offer
	require.NoError(t, db.Where("offer_id = ?", offerID).First(&o).Error)
	return o.AmountAvailable.StringFixed(2)
}

func TestMatchLoan_FIFO(t *testing.T) {
	db, uc := newUsecase(t)
	ctx := context.Background()

	l := dbtest.LoanFixture(t, db, "5000", domainLoan.StatusOpen)
	o2 := dbtest.OfferFixture(t, db, "4000", t0.Add(time.Minute))
	o1 := dbtest.OfferFixture(t, db, "3000", t0)

	res, err := uc.MatchLoan(ctx, l.LoanID)
	require.NoError(t, err)

	assert.Equal(t, string(domainLoan.StatusMatched), res.Status)
	require.Len(t, res.Matches, 2)
	assert.Equal(t, o1.OfferID, res.Matches[0].OfferID)
	assert.True(t, res.Matches[0].AmountMatched.Equal(money.Must("3000")))
	assert.Equal(t, o2.OfferID, res.Matches[1].OfferID)
	assert.True(t, res.Matches[1].AmountMatched.Equal(money.Must("2000")))
	assert.True(t, res.Remaining.IsZero())

	assert.Equal(t, "0.00", offerAvailable(t, db, o1.OfferID))
	assert.Equal(t, "2000.00", offerAvailable(t, db, o2.OfferID))

	got := dbtest.Reload(t, db, l.LoanID)
	assert.Equal(t, domainLoan.StatusMatched, got.Status)
	assert.True(t, got.AmountFunded.Equal(got.Amount))

	// funds sit blocked in the loan custody account
	require.NotNil(t, got.CustodyAccountRef)
	assert.Equal(t, *got.CustodyAccountRef, res.CustodyID)
	var a domainCustody.Account
	require.NoError(t, db.Where("custody_id = ?", res.CustodyID).First(&a).Error)
	assert.True(t, a.BlockedAmount.Equal(money.Must("5000")), "blocked=%s", a.BlockedAmount)
	assert.True(t, a.AvailableBalance.IsZero())

	listed, err := uc.Matches(ctx, l.LoanID)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	sum := money.Zero
	for _, m := range listed {
		sum = sum.Add(m.AmountMatched)
	}
	assert.True(t, sum.Equal(l.Amount))
}

func TestMatchLoan_PartialThenComplete(t *testing.T) {
	db, uc := newUsecase(t)
	ctx := context.Background()
	l := dbtest.LoanFixture(t, db, "5000", domainLoan.StatusOpen)

	res, err := uc.MatchLoan(ctx, l.LoanID)
	require.NoError(t, err)
	assert.Equal(t, string(domainLoan.StatusOpen), res.Status)
	assert.Empty(t, res.Matches)

	dbtest.OfferFixture(t, db, "1000", t0)
	res, err = uc.MatchLoan(ctx, l.LoanID)
	require.NoError(t, err)
	assert.Equal(t, string(domainLoan.StatusPartial), res.Status)
	assert.True(t, res.Remaining.Equal(money.Must("4000")))
	assert.Empty(t, res.CustodyID)

	dbtest.OfferFixture(t, db, "4000", t0.Add(time.Hour))
	res, err = uc.MatchLoan(ctx, l.LoanID)
	require.NoError(t, err)
	assert.Equal(t, string(domainLoan.StatusMatched), res.Status)
	assert.True(t, res.AmountFunded.Equal(money.Must("5000")))
	require.Len(t, res.Matches, 1)
	assert.NotEmpty(t, res.CustodyID)
}

func TestMatchLoan_RejectsStatus(t *testing.T) {
	db, uc := newUsecase(t)
	ctx := context.Background()

	for _, st := range []domainLoan.Status{
		domainLoan.StatusPending, domainLoan.StatusMatched, domainLoan.StatusDisbursed, domainLoan.StatusClosed,
	} {
		t.Run(string(st), func(t *testing.T) {
			l := dbtest.LoanFixture(t, db, "100", st)
			_, err := uc.MatchLoan(ctx, l.LoanID)
			assert.ErrorIs(t, err, domainLoan.ErrNotMatchable)
			assert.Equal(t, errs.KindInvalidState, errs.KindOf(err))
		})
	}

	_, err := uc.MatchLoan(ctx, "ffffffffffffffffffffffffffffffff")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestMatchLoan_ConcurrentRunsNeverOverspend(t *testing.T) {
	db, uc := newUsecase(t)
	ctx := context.Background()

	o := dbtest.OfferFixture(t, db, "4000", t0)
	loans := []*domainLoan.Loan{
		dbtest.LoanFixture(t, db, "3000", domainLoan.StatusOpen),
		dbtest.LoanFixture(t, db, "3000", domainLoan.StatusOpen),
		dbtest.LoanFixture(t, db, "3000", domainLoan.StatusOpen),
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(loans))
	for _, l := range loans {
		wg.Add(1)
		go func(loanID string) {
			defer wg.Done()
			_, err := uc.MatchLoan(ctx, loanID)
			errCh <- err
		}(l.LoanID)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	assert.Equal(t, "0.00", offerAvailable(t, db, o.OfferID))

	var matched []domainOffer.Match
	require.NoError(t, db.Find(&matched).Error)
	total := money.Zero
	for _, m := range matched {
		total = total.Add(m.AmountMatched)
	}
	assert.True(t, total.Equal(money.Must("4000")), "matched total=%s", total)

	var negative int64
	require.NoError(t, db.Model(&domainOffer.Offer{}).Where("amount_available < 0").Count(&negative).Error)
	assert.Zero(t, negative)

	var sums struct{ D, C float64 }
	require.NoError(t, db.Model(&domainLedger.Entry{}).
		Select("SUM(CASE WHEN direction = 'D' THEN amount ELSE 0 END) AS d, SUM(CASE WHEN direction = 'C' THEN amount ELSE 0 END) AS c").
		Scan(&sums).Error)
	assert.InDelta(t, sums.D, sums.C, 0.001)
}
