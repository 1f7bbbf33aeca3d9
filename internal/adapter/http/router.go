package http

import (
	"time"

	"edu-lending-core/internal/adapter/middleware"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Handlers groups everything the router mounts. Nil entries are skipped.
type Handlers struct {
	Health   *Handler
	Loans    *LoanHandler
	Offers   *OfferHandler
	Fees     *FeeHandler
	Schedule *ScheduleHandler
	Payments *PaymentHandler
	Custody  *CustodyHandler
}

type RouterConfig struct {
	Redis          *redis.Client
	IdempotencyTTL time.Duration
	Gatherer       prometheus.Gatherer
	Log            *zap.Logger
}

// Register mounts the API on e. Mutating routes sit behind the idempotency
// middleware; reads do not.
func Register(e *echo.Echo, cfg RouterConfig, h Handlers) {
	if e.Validator == nil {
		e.Validator = NewValidator()
	}
	if h.Health != nil {
		e.GET("/health", h.Health.Health)
	}
	if cfg.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	idem := middleware.Idempotency(cfg.Redis, cfg.IdempotencyTTL, cfg.Log)

	if l := h.Loans; l != nil {
		e.POST("/loans", l.CreateLoan, idem)
		e.GET("/loans/:loan_id", l.GetLoan)
		e.POST("/loans/:loan_id/publish", l.PublishLoan, idem)
		e.POST("/loans/:loan_id/match", l.MatchLoan, idem)
		e.GET("/loans/:loan_id/matches", l.ListMatches)
		e.POST("/loans/:loan_id/release", l.ReleaseLoan, idem)
	}
	if o := h.Offers; o != nil {
		e.POST("/offers", o.CreateOffer, idem)
		e.GET("/offers/:offer_id", o.GetOffer)
	}
	if f := h.Fees; f != nil {
		e.POST("/loans/:loan_id/fees", f.ChargeFee, idem)
		e.GET("/loans/:loan_id/fees", f.ListFees)
		e.POST("/loans/:loan_id/revenue-forecast", f.RevenueForecast, idem)
	}
	if s := h.Schedule; s != nil {
		e.POST("/loans/:loan_id/schedule", s.GenerateSchedule, idem)
		e.GET("/loans/:loan_id/installments", s.ListInstallments)
	}
	if p := h.Payments; p != nil {
		e.POST("/installments/:installment_id/pay", p.PayInstallment, idem)
	}
	if c := h.Custody; c != nil {
		e.POST("/custody/transfer", c.Transfer, idem)
		e.POST("/custody/:custody_id/deposit", c.Deposit, idem)
		e.GET("/custody/:custody_id", c.GetAccount)
		e.GET("/custody/:custody_id/reconcile", c.Reconcile)
		e.GET("/accounts/:account_id/balance", c.Balance)
	}
}
