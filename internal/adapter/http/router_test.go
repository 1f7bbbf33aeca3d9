package http

import (
	"context"
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"edu-lending-core/internal/adapter/middleware"
	"edu-lending-core/internal/adapter/repository/mysql"
	domain "edu-lending-core/internal/domain/loan"
	"edu-lending-core/internal/infrastructure/metrics"
	"edu-lending-core/internal/testutil/dbtest"
	"edu-lending-core/internal/usecase/custody"
	"edu-lending-core/internal/usecase/disbursement"
	"edu-lending-core/internal/usecase/fee"
	"edu-lending-core/internal/usecase/ledger"
	"edu-lending-core/internal/usecase/loan"
	"edu-lending-core/internal/usecase/matching"
	"edu-lending-core/internal/usecase/offer"
	"edu-lending-core/internal/usecase/payment"
	"edu-lending-core/internal/usecase/schedule"
	"edu-lending-core/pkg/id"
	"edu-lending-core/pkg/money"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

const testActor = "dddddddddddddddddddddddddddddddd"

type api struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db := dbtest.Open(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New("edu", reg)
	tx := mysql.NewGormUoW(db)
	loans := mysql.NewLoanRepository(db)

	credit := fixedCredit{profile: domain.CreditProfile{Score: 710, RiskBand: "B"}}
	policy := payment.Policy{
		EarlyWindowDays:  5,
		EarlyDiscountPct: money.Must("0.01"),
		LateFeePct:       money.Must("0.02"),
	}

	e := echo.New()
	Register(e, RouterConfig{Redis: rdb, IdempotencyTTL: time.Minute, Gatherer: reg}, Handlers{
		Health: NewHandler(nil),
		Loans: NewLoanHandler(
			loan.NewUsecase(loans, tx, credit, testDefaults, nil),
			matching.NewUsecase(tx, nil, m),
			disbursement.NewUsecase(tx, nil, m),
			nil),
		Offers:   NewOfferHandler(offer.NewUsecase(mysql.NewOfferRepository(db), nil), nil),
		Fees:     NewFeeHandler(fee.NewUsecase(tx, nil, m), nil),
		Schedule: NewScheduleHandler(schedule.NewUsecase(tx, money.Must("0.2"), nil), nil),
		Payments: NewPaymentHandler(payment.NewUsecase(tx, policy, nil, m), nil),
		Custody: NewCustodyHandler(
			custody.NewUsecase(tx, nil, m),
			ledger.NewUsecase(mysql.NewLedgerRepository(db), tx, nil, m),
			nil),
	})
	return &api{t: t, e: e}
}

// call sends body as JSON with fresh idempotency headers unless reqID is set.
func (a *api) call(method, path string, body any, reqID string) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		r = mustJSON(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if method != stdhttp.MethodGet {
		if reqID == "" {
			reqID = id.NewID32()
		}
		req.Header.Set(middleware.HeaderRequestID, reqID)
		req.Header.Set(middleware.HeaderRequestAt, time.Now().UTC().Format(time.RFC3339))
		req.Header.Set(middleware.HeaderActorID, testActor)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *api) ok(rec *httptest.ResponseRecorder, want int, out any) {
	a.t.Helper()
	if rec.Code != want {
		a.t.Fatalf("status = %d, want %d; body=%s", rec.Code, want, rec.Body.String())
	}
	if out != nil {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			a.t.Fatalf("bad json: %v; raw=%s", err, rec.Body.String())
		}
	}
}

func TestRouter_LoanLifecycle(t *testing.T) {
	a := newAPI(t)

	for _, amt := range []string{"3000.00", "4000.00"} {
		a.ok(a.call(stdhttp.MethodPost, "/offers", map[string]any{
			"investor_id": id.NewID32(),
			"amount":      amt,
			"term_months": 12,
			"min_rate":    "0.01",
		}, ""), stdhttp.StatusCreated, nil)
	}

	var created loan.LoanDTO
	a.ok(a.call(stdhttp.MethodPost, "/loans", validLoanBody(), ""), stdhttp.StatusCreated, &created)
	base := "/loans/" + created.LoanID

	var published loan.LoanDTO
	a.ok(a.call(stdhttp.MethodPost, base+"/publish", nil, ""), stdhttp.StatusOK, &published)
	if published.Status != string(domain.StatusOpen) {
		t.Fatalf("published status = %s", published.Status)
	}

	matchReq := id.NewID32()
	first := a.call(stdhttp.MethodPost, base+"/match", nil, matchReq)
	var matched matching.MatchResult
	a.ok(first, stdhttp.StatusOK, &matched)
	if matched.Status != string(domain.StatusMatched) || len(matched.Matches) != 2 || matched.CustodyID == "" {
		t.Fatalf("unexpected match result: %+v", matched)
	}

	replay := a.call(stdhttp.MethodPost, base+"/match", nil, matchReq)
	if replay.Code != stdhttp.StatusOK || replay.Body.String() != first.Body.String() {
		t.Fatalf("replay = %d %s", replay.Code, replay.Body.String())
	}

	var listed struct {
		Matches []matching.MatchDTO `json:"matches"`
	}
	a.ok(a.call(stdhttp.MethodGet, base+"/matches", nil, ""), stdhttp.StatusOK, &listed)
	if len(listed.Matches) != 2 {
		t.Fatalf("matches = %d, want 2", len(listed.Matches))
	}

	a.ok(a.call(stdhttp.MethodPost, base+"/release", nil, ""), stdhttp.StatusOK, nil)
	// the loan has left the matchable states
	a.ok(a.call(stdhttp.MethodPost, base+"/match", nil, ""), stdhttp.StatusConflict, nil)

	var sched struct {
		Installments []schedule.InstallmentDTO `json:"installments"`
	}
	a.ok(a.call(stdhttp.MethodPost, base+"/schedule", map[string]any{"timing": "during_studies"}, ""),
		stdhttp.StatusCreated, &sched)
	if len(sched.Installments) != 12 {
		t.Fatalf("installments = %d, want 12", len(sched.Installments))
	}
	a.ok(a.call(stdhttp.MethodGet, base+"/installments", nil, ""), stdhttp.StatusOK, &sched)

	first1 := sched.Installments[0]
	var paid payment.PaymentDTO
	a.ok(a.call(stdhttp.MethodPost, "/installments/"+first1.InstallmentID+"/pay", map[string]any{
		"method": "pix",
		"amount": first1.Amount.StringFixed(2),
		"date":   first1.DueDate.Format(dateLayout),
	}, ""), stdhttp.StatusOK, &paid)
	if !paid.Remaining.IsZero() || paid.Timing != payment.TimingOnTime {
		t.Fatalf("unexpected payment: %+v", paid)
	}
	a.ok(a.call(stdhttp.MethodPost, "/installments/"+first1.InstallmentID+"/pay", map[string]any{
		"method": "pix",
		"amount": "1.00",
	}, ""), stdhttp.StatusConflict, nil)

	var fees struct {
		Fees []fee.FeeDTO `json:"fees"`
	}
	a.ok(a.call(stdhttp.MethodGet, base+"/fees", nil, ""), stdhttp.StatusOK, &fees)
	if len(fees.Fees) == 0 {
		t.Fatal("release should have charged the upfront fees")
	}

	var recon custody.ReconcileDTO
	a.ok(a.call(stdhttp.MethodGet, "/custody/"+matched.CustodyID+"/reconcile", nil, ""), stdhttp.StatusOK, &recon)
	if !recon.Consistent {
		t.Fatalf("custody drifted from the ledger: %+v", recon)
	}

	mrec := a.call(stdhttp.MethodGet, "/metrics", nil, "")
	if mrec.Code != stdhttp.StatusOK || !strings.Contains(mrec.Body.String(), "edu_ledger_postings_total") {
		t.Fatalf("metrics not exposed: %d", mrec.Code)
	}
}

func TestRouter_MutatingRoutesRequireIdempotencyHeaders(t *testing.T) {
	a := newAPI(t)
	req := httptest.NewRequest(stdhttp.MethodPost, "/offers", mustJSON(map[string]any{}))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	if rec.Code != stdhttp.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRouter_ReadsAndNotFound(t *testing.T) {
	a := newAPI(t)
	a.ok(a.call(stdhttp.MethodGet, "/health", nil, ""), stdhttp.StatusOK, nil)
	a.ok(a.call(stdhttp.MethodGet, "/loans/"+id.NewID32(), nil, ""), stdhttp.StatusNotFound, nil)
	a.ok(a.call(stdhttp.MethodGet, "/offers/"+id.NewID32(), nil, ""), stdhttp.StatusNotFound, nil)
	a.ok(a.call(stdhttp.MethodGet, "/custody/"+id.NewID32(), nil, ""), stdhttp.StatusNotFound, nil)
	a.ok(a.call(stdhttp.MethodPost, "/loans/"+id.NewID32()+"/publish", nil, ""), stdhttp.StatusNotFound, nil)
}

func TestCustodyHandler_DepositUsesRequestID(t *testing.T) {
	db := dbtest.Open(t)
	tx := mysql.NewGormUoW(db)
	cu := custody.NewUsecase(tx, nil, nil)
	acct, err := cu.EnsureInstitutionAccount(context.Background(), id.NewID32())
	if err != nil {
		t.Fatalf("ensure account: %v", err)
	}

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	e := echo.New()
	Register(e, RouterConfig{Redis: rdb, IdempotencyTTL: time.Minute}, Handlers{
		Custody: NewCustodyHandler(cu, ledger.NewUsecase(mysql.NewLedgerRepository(db), tx, nil, nil), nil),
	})
	a := &api{t: t, e: e}

	reqID := id.NewID32()
	var txn custody.TxnDTO
	a.ok(a.call(stdhttp.MethodPost, "/custody/"+acct.CustodyID+"/deposit",
		map[string]any{"amount": "250.00", "method": "pix"}, reqID), stdhttp.StatusCreated, &txn)
	if txn.ReferenceTag != "deposit:"+reqID {
		t.Fatalf("reference tag = %q", txn.ReferenceTag)
	}

	var got custody.AccountDTO
	a.ok(a.call(stdhttp.MethodGet, "/custody/"+acct.CustodyID, nil, ""), stdhttp.StatusOK, &got)
	if !got.AvailableBalance.Equal(money.Must("250")) {
		t.Fatalf("available = %s", got.AvailableBalance)
	}
}

func TestRouter_BodyLimitsMatchColumns(t *testing.T) {
	a := newAPI(t)
	long := strings.Repeat("m", 17)

	tests := []struct {
		name string
		path string
		body map[string]any
	}{
		{"payment method over 16", "/installments/" + id.NewID32() + "/pay",
			map[string]any{"amount": "10.00", "method": long}},
		{"deposit method over 16", "/custody/" + id.NewID32() + "/deposit",
			map[string]any{"amount": "10.00", "method": long}},
		{"origination is charged on release only", "/loans/" + id.NewID32() + "/fees",
			map[string]any{"fee_type": "origination", "amount": "10.00"}},
		{"marketplace is charged on release only", "/loans/" + id.NewID32() + "/fees",
			map[string]any{"fee_type": "marketplace", "amount": "10.00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a.t = t
			a.ok(a.call(stdhttp.MethodPost, tt.path, tt.body, ""), stdhttp.StatusUnprocessableEntity, nil)
		})
	}
}
