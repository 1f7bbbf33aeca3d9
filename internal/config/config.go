package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Fees are the defaults stamped on a loan at creation.
type Fees struct {
	OriginationPct    decimal.Decimal
	MarketplacePct    decimal.Decimal
	CustodyPctMonthly decimal.Decimal
	SpreadPctAnnual   decimal.Decimal
}

// Payments governs how an installment payment is classified and split.
type Payments struct {
	// payments within this many days before the due date count as on time
	EarlyWindowDays  int
	EarlyDiscountPct decimal.Decimal
	LateFeePct       decimal.Decimal
	PlatformSharePct decimal.Decimal
}

type Eligibility struct {
	CreditProfileURL string
	Timeout          time.Duration
	MaxFraudSeverity int
}

type Worker struct {
	CustodyCron string
	OverdueCron string
	LockTTL     time.Duration
}

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisPass string
	RedisDB   int

	IdempTTLSecs int

	LogLevel  string
	LogFormat string

	Fees        Fees
	Payments    Payments
	Eligibility Eligibility
	Worker      Worker
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getdec(k string, d decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(k); v != "" {
		if n, err := decimal.NewFromString(v); err == nil {
			return n
		}
	}
	return d
}

func Defaults() *Config {
	return &Config{
		AppPort:   "8080",
		MySQLHost: "mysql",
		MySQLPort: "3306",
		MySQLDB:   "edulending",
		MySQLUser: "edulending",
		MySQLPass: "edulending",

		RedisAddr:    "redis:6379",
		IdempTTLSecs: 300,

		LogLevel:  "info",
		LogFormat: "json",

		Fees: Fees{
			OriginationPct:    decimal.RequireFromString("0.015"),
			MarketplacePct:    decimal.RequireFromString("0.005"),
			CustodyPctMonthly: decimal.RequireFromString("0.0005"),
			SpreadPctAnnual:   decimal.RequireFromString("0.02"),
		},
		Payments: Payments{
			EarlyWindowDays:  5,
			EarlyDiscountPct: decimal.RequireFromString("0.01"),
			LateFeePct:       decimal.RequireFromString("0.02"),
			PlatformSharePct: decimal.RequireFromString("0.05"),
		},
		Eligibility: Eligibility{
			CreditProfileURL: "http://scoring:8081",
			Timeout:          2 * time.Second,
			MaxFraudSeverity: 7,
		},
		Worker: Worker{
			// seconds-resolution cron specs
			CustodyCron: "0 0 3 1 * *",
			OverdueCron: "0 30 0 * * *",
			LockTTL:     10 * time.Minute,
		},
	}
}

// Load starts from Defaults, applies CONFIG_FILE (YAML) if set, then the environment.
func Load() (*Config, error) {
	c := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := c.applyFile(path); err != nil {
			return nil, err
		}
	}
	c.applyEnv()
	return c, nil
}

func (c *Config) applyEnv() {
	c.AppPort = getenv("APP_PORT", c.AppPort)
	c.MySQLHost = getenv("MYSQL_HOST", c.MySQLHost)
	c.MySQLPort = getenv("MYSQL_PORT", c.MySQLPort)
	c.MySQLDB = getenv("MYSQL_DB", c.MySQLDB)
	c.MySQLUser = getenv("MYSQL_USER", c.MySQLUser)
	c.MySQLPass = getenv("MYSQL_PASS", c.MySQLPass)

	c.RedisAddr = getenv("REDIS_ADDR", c.RedisAddr)
	c.RedisPass = getenv("REDIS_PASS", c.RedisPass)
	c.RedisDB = getint("REDIS_DB", c.RedisDB)
	c.IdempTTLSecs = getint("IDEMPOTENCY_TTL_SECONDS", c.IdempTTLSecs)

	c.LogLevel = getenv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getenv("LOG_FORMAT", c.LogFormat)

	c.Fees.OriginationPct = getdec("FEE_ORIGINATION_PCT", c.Fees.OriginationPct)
	c.Fees.MarketplacePct = getdec("FEE_MARKETPLACE_PCT", c.Fees.MarketplacePct)
	c.Fees.CustodyPctMonthly = getdec("FEE_CUSTODY_PCT_MONTHLY", c.Fees.CustodyPctMonthly)
	c.Fees.SpreadPctAnnual = getdec("FEE_SPREAD_PCT_ANNUAL", c.Fees.SpreadPctAnnual)

	c.Payments.EarlyWindowDays = getint("PAYMENT_EARLY_WINDOW_DAYS", c.Payments.EarlyWindowDays)
	c.Payments.EarlyDiscountPct = getdec("PAYMENT_EARLY_DISCOUNT_PCT", c.Payments.EarlyDiscountPct)
	c.Payments.LateFeePct = getdec("PAYMENT_LATE_FEE_PCT", c.Payments.LateFeePct)
	c.Payments.PlatformSharePct = getdec("PAYMENT_PLATFORM_SHARE_PCT", c.Payments.PlatformSharePct)

	c.Eligibility.CreditProfileURL = getenv("CREDIT_PROFILE_URL", c.Eligibility.CreditProfileURL)
	c.Eligibility.MaxFraudSeverity = getint("MAX_FRAUD_SEVERITY", c.Eligibility.MaxFraudSeverity)

	c.Worker.CustodyCron = getenv("WORKER_CUSTODY_CRON", c.Worker.CustodyCron)
	c.Worker.OverdueCron = getenv("WORKER_OVERDUE_CRON", c.Worker.OverdueCron)
}

// fileConfig mirrors the YAML layout. Numbers are read as strings so rates keep
// their exact decimal text.
type fileConfig struct {
	Fees struct {
		OriginationPct    string `yaml:"origination_pct"`
		MarketplacePct    string `yaml:"marketplace_pct"`
		CustodyPctMonthly string `yaml:"custody_pct_monthly"`
		SpreadPctAnnual   string `yaml:"spread_pct_annual"`
	} `yaml:"fees"`
	Payments struct {
		EarlyWindowDays  *int   `yaml:"early_window_days"`
		EarlyDiscountPct string `yaml:"early_discount_pct"`
		LateFeePct       string `yaml:"late_fee_pct"`
		PlatformSharePct string `yaml:"platform_share_pct"`
	} `yaml:"payments"`
	Eligibility struct {
		CreditProfileURL string `yaml:"credit_profile_url"`
		Timeout          string `yaml:"timeout"`
		MaxFraudSeverity *int   `yaml:"max_fraud_severity"`
	} `yaml:"eligibility"`
	Worker struct {
		CustodyCron string `yaml:"custody_cron"`
		OverdueCron string `yaml:"overdue_cron"`
		LockTTL     string `yaml:"lock_ttl"`
	} `yaml:"worker"`
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	decs := []struct {
		raw string
		dst *decimal.Decimal
	}{
		{f.Fees.OriginationPct, &c.Fees.OriginationPct},
		{f.Fees.MarketplacePct, &c.Fees.MarketplacePct},
		{f.Fees.CustodyPctMonthly, &c.Fees.CustodyPctMonthly},
		{f.Fees.SpreadPctAnnual, &c.Fees.SpreadPctAnnual},
		{f.Payments.EarlyDiscountPct, &c.Payments.EarlyDiscountPct},
		{f.Payments.LateFeePct, &c.Payments.LateFeePct},
		{f.Payments.PlatformSharePct, &c.Payments.PlatformSharePct},
	}
	for _, d := range decs {
		if d.raw == "" {
			continue
		}
		v, err := decimal.NewFromString(d.raw)
		if err != nil {
			return fmt.Errorf("parse config: %q: %w", d.raw, err)
		}
		*d.dst = v
	}

	durs := []struct {
		raw string
		dst *time.Duration
	}{
		{f.Eligibility.Timeout, &c.Eligibility.Timeout},
		{f.Worker.LockTTL, &c.Worker.LockTTL},
	}
	for _, d := range durs {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
		*d.dst = v
	}

	if f.Payments.EarlyWindowDays != nil {
		c.Payments.EarlyWindowDays = *f.Payments.EarlyWindowDays
	}
	if f.Eligibility.MaxFraudSeverity != nil {
		c.Eligibility.MaxFraudSeverity = *f.Eligibility.MaxFraudSeverity
	}
	if f.Eligibility.CreditProfileURL != "" {
		c.Eligibility.CreditProfileURL = f.Eligibility.CreditProfileURL
	}
	if f.Worker.CustodyCron != "" {
		c.Worker.CustodyCron = f.Worker.CustodyCron
	}
	if f.Worker.OverdueCron != "" {
		c.Worker.OverdueCron = f.Worker.OverdueCron
	}
	return nil
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	one := decimal.NewFromInt(1)
	for name, pct := range map[string]decimal.Decimal{
		"origination_pct":     c.Fees.OriginationPct,
		"marketplace_pct":     c.Fees.MarketplacePct,
		"custody_pct_monthly": c.Fees.CustodyPctMonthly,
		"spread_pct_annual":   c.Fees.SpreadPctAnnual,
		"early_discount_pct":  c.Payments.EarlyDiscountPct,
		"late_fee_pct":        c.Payments.LateFeePct,
		"platform_share_pct":  c.Payments.PlatformSharePct,
	} {
		if pct.IsNegative() || pct.GreaterThanOrEqual(one) {
			return fmt.Errorf("%s must be in [0, 1), got %s", name, pct)
		}
	}
	if c.Payments.EarlyWindowDays < 0 {
		return errors.New("early_window_days must not be negative")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME/DATE columns
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}
