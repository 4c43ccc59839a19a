// Package config loads engine configuration from YAML with sane defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config holds the tunable knobs of the reconciliation engine.
type Config struct {
	// PaymentMarkers are the "payment received" descriptions recognized
	// case- and diacritic-insensitively by the line classifier.
	PaymentMarkers []string
	// ExactTolerance is the maximum difference still reported as an
	// "exact" reconciliation match.
	ExactTolerance decimal.Decimal
	// CloseTolerance is the maximum difference still reported as "close".
	CloseTolerance decimal.Decimal
	// MatchWindowDays bounds the candidate bill-payment search around the
	// aggregate-payment date.
	MatchWindowDays int
	// RegexTimeout caps a single rule-pattern evaluation. A timed-out
	// attempt counts as no match.
	RegexTimeout time.Duration
	// DatabasePath is the sqlite database file. ":memory:" for tests.
	DatabasePath string
	// ListenAddr is the HTTP listen address for serve mode.
	ListenAddr string
}

// fileConfig is the YAML shape. Tolerances are strings so they parse into
// exact decimals instead of floats.
type fileConfig struct {
	PaymentMarkers  []string `yaml:"payment_markers"`
	ExactTolerance  string   `yaml:"exact_tolerance"`
	CloseTolerance  string   `yaml:"close_tolerance"`
	MatchWindowDays int      `yaml:"match_window_days"`
	RegexTimeoutMS  int      `yaml:"regex_timeout_ms"`
	DatabasePath    string   `yaml:"database_path"`
	ListenAddr      string   `yaml:"listen_addr"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		PaymentMarkers:  []string{"pagamento recebido", "payment received"},
		ExactTolerance:  decimal.RequireFromString("0.01"),
		CloseTolerance:  decimal.RequireFromString("10.00"),
		MatchWindowDays: 45,
		RegexTimeout:    50 * time.Millisecond,
		DatabasePath:    "ledgerecon.db",
		ListenAddr:      ":8080",
	}
}

// Load reads a YAML config file and overlays it on the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s (check syntax and field names): %w", path, err)
	}

	if len(fc.PaymentMarkers) > 0 {
		cfg.PaymentMarkers = fc.PaymentMarkers
	}
	if fc.ExactTolerance != "" {
		d, err := decimal.NewFromString(fc.ExactTolerance)
		if err != nil {
			return cfg, fmt.Errorf("invalid exact_tolerance %q: %w", fc.ExactTolerance, err)
		}
		cfg.ExactTolerance = d
	}
	if fc.CloseTolerance != "" {
		d, err := decimal.NewFromString(fc.CloseTolerance)
		if err != nil {
			return cfg, fmt.Errorf("invalid close_tolerance %q: %w", fc.CloseTolerance, err)
		}
		cfg.CloseTolerance = d
	}
	if fc.MatchWindowDays != 0 {
		cfg.MatchWindowDays = fc.MatchWindowDays
	}
	if fc.RegexTimeoutMS != 0 {
		cfg.RegexTimeout = time.Duration(fc.RegexTimeoutMS) * time.Millisecond
	}
	if fc.DatabasePath != "" {
		cfg.DatabasePath = fc.DatabasePath
	}
	if fc.ListenAddr != "" {
		cfg.ListenAddr = fc.ListenAddr
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks internal consistency of the configuration.
func (c Config) Validate() error {
	if len(c.PaymentMarkers) == 0 {
		return fmt.Errorf("payment_markers cannot be empty")
	}
	if c.ExactTolerance.IsNegative() {
		return fmt.Errorf("exact_tolerance cannot be negative, got %s", c.ExactTolerance)
	}
	if c.CloseTolerance.LessThan(c.ExactTolerance) {
		return fmt.Errorf("close_tolerance (%s) cannot be below exact_tolerance (%s)", c.CloseTolerance, c.ExactTolerance)
	}
	if c.MatchWindowDays <= 0 {
		return fmt.Errorf("match_window_days must be positive, got %d", c.MatchWindowDays)
	}
	if c.RegexTimeout <= 0 {
		return fmt.Errorf("regex_timeout must be positive, got %s", c.RegexTimeout)
	}
	return nil
}
