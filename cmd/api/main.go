package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"edu-lending-core/internal/adapter/creditprofile"
	httpadp "edu-lending-core/internal/adapter/http"
	"edu-lending-core/internal/adapter/repository/mysql"
	"edu-lending-core/internal/config"
	"edu-lending-core/internal/infrastructure/cache"
	"edu-lending-core/internal/infrastructure/db"
	"edu-lending-core/internal/infrastructure/logging"
	"edu-lending-core/internal/infrastructure/metrics"
	"edu-lending-core/internal/usecase/custody"
	"edu-lending-core/internal/usecase/disbursement"
	"edu-lending-core/internal/usecase/fee"
	"edu-lending-core/internal/usecase/ledger"
	"edu-lending-core/internal/usecase/loan"
	"edu-lending-core/internal/usecase/matching"
	"edu-lending-core/internal/usecase/offer"
	"edu-lending-core/internal/usecase/payment"
	"edu-lending-core/internal/usecase/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		stdlog.Fatal(err)
	}
	log, err := logging.New(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		stdlog.Fatal(err)
	}
	defer func() { _ = log.Sync() }()

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
	if err != nil {
		log.Fatal("open mysql", zap.Error(err))
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatal("open redis", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New("edu_lending", reg)

	tx := mysql.NewGormUoW(gdb)
	credit := creditprofile.New(cfg.Eligibility.CreditProfileURL, cfg.Eligibility.Timeout, log)
	defaults := loan.Defaults{
		OriginationPct:    cfg.Fees.OriginationPct,
		MarketplacePct:    cfg.Fees.MarketplacePct,
		CustodyPctMonthly: cfg.Fees.CustodyPctMonthly,
		SpreadPctAnnual:   cfg.Fees.SpreadPctAnnual,
		MaxFraudSeverity:  cfg.Eligibility.MaxFraudSeverity,
	}
	policy := payment.Policy{
		EarlyWindowDays:  cfg.Payments.EarlyWindowDays,
		EarlyDiscountPct: cfg.Payments.EarlyDiscountPct,
		LateFeePct:       cfg.Payments.LateFeePct,
	}

	health := httpadp.NewHandler(map[string]httpadp.Check{
		"mysql": func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": cache.Check(rdb),
	})

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover(), middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:      true,
		LogStatus:   true,
		LogMethod:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			log.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.Error(v.Error))
			return nil
		},
	}))

	httpadp.Register(e, httpadp.RouterConfig{
		Redis:          rdb,
		IdempotencyTTL: cfg.IdempotencyTTL(),
		Gatherer:       reg,
		Log:            log,
	}, httpadp.Handlers{
		Health: health,
		Loans: httpadp.NewLoanHandler(
			loan.NewUsecase(mysql.NewLoanRepository(gdb), tx, credit, defaults, log),
			matching.NewUsecase(tx, log, m),
			disbursement.NewUsecase(tx, log, m),
			log),
		Offers:   httpadp.NewOfferHandler(offer.NewUsecase(mysql.NewOfferRepository(gdb), log), log),
		Fees:     httpadp.NewFeeHandler(fee.NewUsecase(tx, log, m), log),
		Schedule: httpadp.NewScheduleHandler(schedule.NewUsecase(tx, cfg.Payments.PlatformSharePct, log), log),
		Payments: httpadp.NewPaymentHandler(payment.NewUsecase(tx, policy, log, m), log),
		Custody: httpadp.NewCustodyHandler(
			custody.NewUsecase(tx, log, m),
			ledger.NewUsecase(mysql.NewLedgerRepository(gdb), tx, log, m),
			log),
	})

	go func() {
		addr := ":" + cfg.AppPort
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	log.Info("stopped")
}
