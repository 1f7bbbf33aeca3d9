package disbursement

import (
	"context"
	"testing"
	"time"

	"edu-lending-core/internal/adapter/repository/mysql"
	"edu-lending-core/internal/domain/errs"
	domainFee "edu-lending-core/internal/domain/fee"
	domainLoan "edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/testutil/dbtest"
	"edu-lending-core/internal/usecase/custody"
	"edu-lending-core/internal/usecase/fee"
	"edu-lending-core/internal/usecase/ledger"
	"edu-lending-core/internal/usecase/matching"
	"edu-lending-core/pkg/money"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var releasedAt = time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

type env struct {
	db      *gorm.DB
	uc      *Usecase
	match   *matching.Usecase
	custody *custody.Usecase
	ledger  *ledger.Usecase
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.Open(t)
	tx := mysql.NewGormUoW(db)
	uc := NewUsecase(tx, nil, nil)
	uc.now = func() time.Time { return releasedAt }
	return &env{
		db:      db,
		uc:      uc,
		match:   matching.NewUsecase(tx, nil, nil),
		custody: custody.NewUsecase(tx, nil, nil),
		ledger:  ledger.NewUsecase(mysql.NewLedgerRepository(db), tx, nil, nil),
	}
}

// matchedLoan reproduces the 5000 against 3000 + 4000 scenario.
func (e *env) matchedLoan(t *testing.T) *domainLoan.Loan {
	t.Helper()
	l := dbtest.LoanFixture(t, e.db, "5000", domainLoan.StatusOpen)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	dbtest.OfferFixture(t, e.db, "3000", base)
	dbtest.OfferFixture(t, e.db, "4000", base.Add(time.Minute))
	res, err := e.match.MatchLoan(context.Background(), l.LoanID)
	require.NoError(t, err)
	require.Equal(t, string(domainLoan.StatusMatched), res.Status)
	return l
}

func (e *env) entryCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Table("ledger_entries").Count(&n).Error)
	return n
}

func TestReleaseToInstitution(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := e.matchedLoan(t)

	got, err := e.uc.ReleaseToInstitution(ctx, l.LoanID)
	require.NoError(t, err)

	assert.Equal(t, string(domainLoan.StatusDisbursed), got.Status)
	assert.True(t, got.DisbursedAt.Equal(releasedAt))

	fees := map[string]string{}
	for _, f := range got.Fees {
		fees[f.FeeType] = f.Amount.StringFixed(2)
	}
	assert.Equal(t, map[string]string{"origination": "75.00", "marketplace": "25.00"}, fees)

	var rows []domainFee.LoanFee
	require.NoError(t, e.db.Where("loan_id = ?", l.ID).Find(&rows).Error)
	assert.Len(t, rows, 2)

	inst, err := e.custody.Reconcile(ctx, got.InstitutionCustodyID)
	require.NoError(t, err)
	assert.True(t, inst.AvailableBalance.Equal(money.Must("5000")), "institution=%s", inst.AvailableBalance)

	reloaded := dbtest.Reload(t, e.db, l.LoanID)
	assert.Equal(t, domainLoan.StatusDisbursed, reloaded.Status)
	require.NotNil(t, reloaded.DisbursedAt)
	loanAcct, err := e.custody.Reconcile(ctx, *reloaded.CustodyAccountRef)
	require.NoError(t, err)
	assert.True(t, loanAcct.TotalBalance.IsZero())
	assert.True(t, loanAcct.BlockedAmount.IsZero())

	tot, err := e.ledger.Totals(ctx)
	require.NoError(t, err)
	assert.True(t, tot.Balanced(), "debits=%s credits=%s", tot.Debits, tot.Credits)
}

func TestReleaseToInstitution_SecondCallPostsNothing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := e.matchedLoan(t)

	_, err := e.uc.ReleaseToInstitution(ctx, l.LoanID)
	require.NoError(t, err)
	before := e.entryCount(t)

	_, err = e.uc.ReleaseToInstitution(ctx, l.LoanID)
	require.ErrorIs(t, err, domainLoan.ErrInvalidTransition)
	assert.Equal(t, errs.KindInvalidState, errs.KindOf(err))
	assert.Equal(t, before, e.entryCount(t))
}

func TestReleaseToInstitution_RequiresMatched(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	for _, st := range []domainLoan.Status{domainLoan.StatusOpen, domainLoan.StatusPartial, domainLoan.StatusRepaying} {
		t.Run(string(st), func(t *testing.T) {
			l := dbtest.LoanFixture(t, e.db, "1000", st)
			_, err := e.uc.ReleaseToInstitution(ctx, l.LoanID)
			assert.ErrorIs(t, err, errs.ErrInvalidState)
		})
	}
	assert.Zero(t, e.entryCount(t))

	_, err := e.uc.ReleaseToInstitution(ctx, "ffffffffffffffffffffffffffffffff")
	assert.ErrorIs(t, err, domainLoan.ErrNotFound)
}

func TestReleaseToInstitution_UnfundedRollsBack(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	// matched on paper, custody never funded
	l := dbtest.LoanFixture(t, e.db, "1000", domainLoan.StatusMatched)

	_, err := e.uc.ReleaseToInstitution(ctx, l.LoanID)
	require.Error(t, err)
	assert.Equal(t, domainLoan.StatusMatched, dbtest.Reload(t, e.db, l.LoanID).Status)
	assert.Zero(t, e.entryCount(t))
}

func TestReleaseToInstitution_ManualChargesBeforeReleaseAreRefused(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l := e.matchedLoan(t)
	fees := fee.NewUsecase(mysql.NewGormUoW(e.db), nil, nil)
	before := e.entryCount(t)

	_, err := fees.ChargeFee(ctx, fee.ChargeInput{LoanID: l.LoanID, FeeType: "origination", Amount: money.Must("75")})
	require.ErrorIs(t, err, domainFee.ErrReleaseOnly)
	_, err = fees.ChargeFee(ctx, fee.ChargeInput{LoanID: l.LoanID, FeeType: "custody", Amount: money.Must("2.50")})
	require.ErrorIs(t, err, domainFee.ErrNotBillable)
	_, err = fees.ChargeCustodyMonthly(ctx, l.LoanID, releasedAt)
	require.ErrorIs(t, err, domainFee.ErrNotBillable)
	assert.Equal(t, before, e.entryCount(t))

	got, err := e.uc.ReleaseToInstitution(ctx, l.LoanID)
	require.NoError(t, err)
	assert.Equal(t, string(domainLoan.StatusDisbursed), got.Status)

	var origination int64
	require.NoError(t, e.db.Model(&domainFee.LoanFee{}).
		Where("loan_id = ? AND fee_type = ?", l.ID, domainFee.TypeOrigination).Count(&origination).Error)
	assert.EqualValues(t, 1, origination)

	// billable from here on
	_, err = fees.ChargeCustodyMonthly(ctx, l.LoanID, releasedAt)
	require.NoError(t, err)
}
