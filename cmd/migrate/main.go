// Command migrate creates or updates the service tables.
package main

import (
	stdlog "log"

	"go.uber.org/zap"

	"edu-lending-core/internal/adapter/repository/mysql"
	"edu-lending-core/internal/config"
	"edu-lending-core/internal/infrastructure/db"
	"edu-lending-core/internal/infrastructure/logging"
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
	models := mysql.Models()
	if err := gdb.AutoMigrate(models...); err != nil {
		log.Fatal("auto-migrate", zap.Error(err))
	}
	log.Info("migrated", zap.Int("tables", len(models)))
}
