// Package config loads service configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sheikh-saqib/double-entry-balancer/internal/amount"
	"github.com/sheikh-saqib/double-entry-balancer/internal/balancer"
	"github.com/shopspring/decimal"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const defaultConnectionString = "Host=localhost;Port=5432;Database=ledger_db;Username=postgres;Password=postgres;Timeout=30;CommandTimeout=30"

type Config struct {
	HTTPAddr        string
	StorageDriver   string
	DatabaseDSN     string
	SQLitePath      string
	KafkaBrokers    []string
	KafkaTopic      string
	ChartPath       string
	Tolerance       decimal.Decimal
	TriggerPolicy   balancer.TriggerPolicy
	DefaultCurrency string
	Locale          amount.Locale
	AuthUsers       string
	AuthDisabled    bool
	Debug           bool
}

// Load reads configuration. A .env file in the working directory is loaded
// when present; an explicit envPath must exist.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	var errs []string

	tolerance, err := decimal.NewFromString(getEnvOrDefault("BALANCE_TOLERANCE", "0.01"))
	if err != nil || tolerance.IsNegative() {
		errs = append(errs, "BALANCE_TOLERANCE must be a non-negative decimal")
	}

	policy, err := balancer.ParseTriggerPolicy(os.Getenv("SPLIT_TRIGGER_POLICY"))
	if err != nil {
		errs = append(errs, err.Error())
	}

	defaultCurrency, err := amount.ParseCurrency(getEnvOrDefault("DEFAULT_CURRENCY", "PLN"))
	if err != nil {
		errs = append(errs, "DEFAULT_CURRENCY: "+err.Error())
	}

	if len(errs) > 0 {
		return nil, errors.New(strings.Join(errs, "; "))
	}

	return &Config{
		HTTPAddr:        getEnvOrDefault("HTTP_ADDR", ":8080"),
		StorageDriver:   strings.ToLower(getEnvOrDefault("STORAGE_DRIVER", DriverMemory)),
		DatabaseDSN:     normalizeConnectionString(getEnvOrDefault("DATABASE_DSN", defaultConnectionString)),
		SQLitePath:      getEnvOrDefault("SQLITE_PATH", "./data/ledger.db"),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      getEnvOrDefault("KAFKA_TOPIC", "batch_committed"),
		ChartPath:       strings.TrimSpace(os.Getenv("CHART_OF_ACCOUNTS_PATH")),
		Tolerance:       tolerance,
		TriggerPolicy:   policy,
		DefaultCurrency: defaultCurrency,
		Locale:          amount.LocaleFor(getEnvOrDefault("LOCALE", "pl-PL")),
		AuthUsers:       strings.TrimSpace(os.Getenv("AUTH_USERS")),
		AuthDisabled:    os.Getenv("AUTH_DISABLED") == "true",
		Debug:           os.Getenv("DEBUG") == "true",
	}, nil
}

// Validate checks that the settings needed by the selected drivers are set.
func (c *Config) Validate() error {
	var missing []string

	switch c.StorageDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			missing = append(missing, "DATABASE_DSN")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			missing = append(missing, "SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}

	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		missing = append(missing, "KAFKA_TOPIC")
	}
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	if c.AuthUsers == "" && !c.AuthDisabled {
		return errors.New("AUTH_USERS is empty: configure operators or set AUTH_DISABLED=true")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeConnectionString turns an ADO-style "Host=..;Database=.." string
// into a libpq keyword string. URLs and libpq strings pass through unchanged.
func normalizeConnectionString(raw string) string {
	if !strings.Contains(raw, ";") {
		return raw
	}

	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	hasSSLMode := false

	for _, part := range parts {
		p := strings.TrimSpace(part)
		if p == "" {
			continue
		}

		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}

		key := strings.ToLower(strings.TrimSpace(kv[0]))
		val := strings.TrimSpace(kv[1])

		switch key {
		case "host", "server":
			out = append(out, "host="+val)
		case "port":
			out = append(out, "port="+val)
		case "database":
			out = append(out, "dbname="+val)
		case "username", "user id":
			out = append(out, "user="+val)
		case "password":
			out = append(out, "password="+val)
		case "timeout", "connect timeout":
			out = append(out, "connect_timeout="+val)
		case "commandtimeout", "command timeout":
			out = append(out, "statement_timeout="+val+"s")
		case "sslmode", "ssl mode":
			hasSSLMode = true
			out = append(out, "sslmode="+strings.ToLower(val))
		default:
			out = append(out, key+"="+val)
		}
	}

	if len(out) == 0 {
		return raw
	}

	if !hasSSLMode {
		out = append(out, "sslmode=disable")
	}

	return strings.Join(out, " ")
}
