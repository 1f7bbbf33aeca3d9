// Command worker runs the monthly custody billing and the daily overdue sweep.
// Several replicas may run; a redis lock keeps each period to one runner.
package main

import (
	"context"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"edu-lending-core/internal/adapter/repository/mysql"
	"edu-lending-core/internal/config"
	"edu-lending-core/internal/infrastructure/cache"
	"edu-lending-core/internal/infrastructure/db"
	"edu-lending-core/internal/infrastructure/lock"
	"edu-lending-core/internal/infrastructure/logging"
	"edu-lending-core/internal/infrastructure/metrics"
	"edu-lending-core/internal/usecase/billing"
	"edu-lending-core/internal/usecase/fee"
	"edu-lending-core/internal/usecase/ledger"
	"edu-lending-core/internal/usecase/payment"
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
	log = log.Named("worker")

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
	if err != nil {
		log.Fatal("open mysql", zap.Error(err))
	}
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		log.Fatal("open redis", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	// counters are only scraped from the api process
	var m *metrics.Collector

	tx := mysql.NewGormUoW(gdb)
	policy := payment.Policy{
		EarlyWindowDays:  cfg.Payments.EarlyWindowDays,
		EarlyDiscountPct: cfg.Payments.EarlyDiscountPct,
		LateFeePct:       cfg.Payments.LateFeePct,
	}
	uc := billing.NewUsecase(
		mysql.NewLoanRepository(gdb),
		fee.NewUsecase(tx, log, m),
		payment.NewUsecase(tx, policy, log, m),
		ledger.NewUsecase(mysql.NewLedgerRepository(gdb), tx, log, m),
		lock.NewRedisLocker(rdb, cfg.Worker.LockTTL),
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := billing.NewScheduler(ctx, uc)
	if err := sched.Register(cfg.Worker.CustodyCron, cfg.Worker.OverdueCron); err != nil {
		log.Fatal("register jobs", zap.Error(err))
	}
	sched.Start()
	log.Info("billing schedule",
		zap.String("custody_cron", cfg.Worker.CustodyCron),
		zap.String("overdue_cron", cfg.Worker.OverdueCron))

	<-ctx.Done()
	sched.Stop()
	log.Info("stopped")
}
