// Package store persists transactions and category rules in sqlite.
//
// It is the engine's only stateful collaborator: it provides the candidate
// bill-payment window query, the uncategorized-transaction query, the bulk
// category assignment, and the single atomic transaction that expands a
// confirmed import. The unique index on (owner, cycle, parent, line
// fingerprint) is the idempotency guard for duplicate imports.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/rumor-ml/ledgerecon/internal/domain"
)

// Sentinel errors callers branch on. Driver errors are wrapped so
// errors.Is works across the package boundary.
var (
	ErrNotFound        = errors.New("record not found")
	ErrUniqueViolation = errors.New("unique constraint violated")
	ErrAlreadyExpanded = errors.New("bill payment already expanded")
)

const (
	dateLayout = "2006-01-02"
	// Fixed-width fractional seconds keep lexicographic ordering of the
	// created_at column chronological; RFC3339Nano trims zeros and
	// breaks it.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Store wraps the sqlite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at path and applies
// the schema. Use ":memory:" for an ephemeral test database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}

	// A single connection keeps ":memory:" databases coherent and
	// serializes writers, which sqlite requires anyway.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// wrapErr translates driver-level failures into the package sentinels.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrUniqueViolation, err)
	}
	return err
}

func formatDate(t time.Time) string { return t.UTC().Format(dateLayout) }

func parseDate(s string) (time.Time, error) { return time.Parse(dateLayout, s) }

func formatTime(t time.Time) string { return t.UTC().Format(timeLayout) }

func parseTime(s string) (time.Time, error) { return time.Parse(timeLayout, s) }

func parseAmountColumn(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt amount column %q: %w", s, err)
	}
	return d, nil
}

func ownerArgs(o domain.Owner) (string, string) {
	return string(o.Type), o.ID
}

// execer lets query helpers run against either *sql.DB or *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
