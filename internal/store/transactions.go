package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rumor-ml/ledgerecon/internal/domain"
)

const transactionColumns = `id, owner_type, owner_id, date, description, amount,
	category_id, billing_cycle, parent_bill_payment_id, is_bill_payment,
	expanded_at, is_hidden, installment_current, installment_total, created_at`

// InsertTransaction inserts a single transaction row. Used for recording
// bill payments and for non-import creation paths; imported children go
// through ExpandImport instead.
func (s *Store) InsertTransaction(ctx context.Context, txn domain.Transaction) error {
	return insertTransaction(ctx, s.db, txn, "")
}

func insertTransaction(ctx context.Context, ex execer, txn domain.Transaction, fingerprint string) error {
	ownerType, ownerID := ownerArgs(txn.Owner)

	var expandedAt any
	if txn.ExpandedAt != nil {
		expandedAt = formatTime(*txn.ExpandedAt)
	}

	_, err := ex.ExecContext(ctx, `
		INSERT INTO transactions (
			id, owner_type, owner_id, date, description, amount,
			category_id, billing_cycle, parent_bill_payment_id, is_bill_payment,
			expanded_at, is_hidden, installment_current, installment_total,
			line_fingerprint, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID, ownerType, ownerID, formatDate(txn.Date), txn.Description,
		txn.Amount.String(), txn.CategoryID, txn.BillingCycle,
		txn.ParentBillPaymentID, boolToInt(txn.IsBillPayment), expandedAt,
		boolToInt(txn.IsHidden), txn.InstallmentCurrent, txn.InstallmentTotal,
		fingerprint, formatTime(txn.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction %s: %w", txn.ID, wrapErr(err))
	}
	return nil
}

// GetTransaction fetches one transaction in the owner's scope.
func (s *Store) GetTransaction(ctx context.Context, owner domain.Owner, id string) (domain.Transaction, error) {
	ownerType, ownerID := ownerArgs(owner)
	row := s.db.QueryRowContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = ? AND owner_type = ? AND owner_id = ?`,
		id, ownerType, ownerID)

	txn, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", id, ErrNotFound)
	}
	return txn, err
}

// ChildrenOf returns the children expanded from a bill payment, in date
// then insertion order. Listing collaborators use it to render a parent's
// itemized lines.
func (s *Store) ChildrenOf(ctx context.Context, owner domain.Owner, parentID string) ([]domain.Transaction, error) {
	ownerType, ownerID := ownerArgs(owner)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE owner_type = ? AND owner_id = ? AND parent_bill_payment_id = ?
		ORDER BY date, rowid`,
		ownerType, ownerID, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children of %s: %w", parentID, err)
	}
	return collectTransactions(rows)
}

// CandidateBillPayments returns unexpanded bill payments for the owner
// whose date falls within windowDays of anchor, ordered by date. This is
// the reconciliation matcher's candidate pool.
func (s *Store) CandidateBillPayments(ctx context.Context, owner domain.Owner, anchor time.Time, windowDays int) ([]domain.Transaction, error) {
	ownerType, ownerID := ownerArgs(owner)
	from := anchor.AddDate(0, 0, -windowDays)
	to := anchor.AddDate(0, 0, windowDays)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE owner_type = ? AND owner_id = ?
		  AND is_bill_payment = 1
		  AND expanded_at IS NULL
		  AND date >= ? AND date <= ?
		ORDER BY date, rowid`,
		ownerType, ownerID, formatDate(from), formatDate(to))
	if err != nil {
		return nil, fmt.Errorf("failed to query candidate bill payments: %w", err)
	}
	return collectTransactions(rows)
}

// UncategorizedTransactions returns the owner's transactions with no
// category, oldest first. The retroactive applier filters these against a
// new rule's pattern.
func (s *Store) UncategorizedTransactions(ctx context.Context, owner domain.Owner) ([]domain.Transaction, error) {
	ownerType, ownerID := ownerArgs(owner)
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE owner_type = ? AND owner_id = ? AND category_id = ''
		ORDER BY date, rowid`,
		ownerType, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query uncategorized transactions: %w", err)
	}
	return collectTransactions(rows)
}

// AssignCategoryBulk sets categoryID on the given rows in one UPDATE
// statement. Rows that have gained a category since being selected are
// left alone; a concurrently created rule's later commit simply wins.
func (s *Store) AssignCategoryBulk(ctx context.Context, owner domain.Owner, transactionIDs []string, categoryID string) (int64, error) {
	if len(transactionIDs) == 0 {
		return 0, nil
	}
	ownerType, ownerID := ownerArgs(owner)

	placeholders := strings.Repeat("?,", len(transactionIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(transactionIDs)+3)
	args = append(args, categoryID, ownerType, ownerID)
	for _, id := range transactionIDs {
		args = append(args, id)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET category_id = ?
		WHERE owner_type = ? AND owner_id = ?
		  AND id IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk-assign category: %w", err)
	}
	return res.RowsAffected()
}

// ImportBatch is everything ExpandImport commits as one unit. Each child
// row carries its own billing cycle and fingerprint; together with the
// owner and parent columns they feed the import-guard unique index.
type ImportBatch struct {
	Owner domain.Owner
	// ParentID is the confirmed bill payment to expand, empty when the
	// caller imports without one.
	ParentID string
	// Children are the fully-built rows to insert; Fingerprints[i] is the
	// idempotency fingerprint of Children[i].
	Children     []domain.Transaction
	Fingerprints []string
	ExpandedAt   time.Time
}

// ExpandImport atomically inserts every child row and, when a parent is
// chosen, marks it expanded and hidden. Any failure rolls the whole batch
// back: a tripped import-guard index surfaces as ErrUniqueViolation, an
// already-expanded or missing parent as ErrAlreadyExpanded/ErrNotFound.
func (s *Store) ExpandImport(ctx context.Context, batch ImportBatch) (err error) {
	if len(batch.Children) != len(batch.Fingerprints) {
		return fmt.Errorf("batch has %d children but %d fingerprints", len(batch.Children), len(batch.Fingerprints))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin import transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for i, child := range batch.Children {
		if err = insertTransaction(ctx, tx, child, batch.Fingerprints[i]); err != nil {
			return err
		}
	}

	if batch.ParentID != "" {
		ownerType, ownerID := ownerArgs(batch.Owner)
		res, execErr := tx.ExecContext(ctx, `
			UPDATE transactions
			SET expanded_at = ?, is_hidden = 1
			WHERE id = ? AND owner_type = ? AND owner_id = ?
			  AND is_bill_payment = 1 AND expanded_at IS NULL`,
			formatTime(batch.ExpandedAt), batch.ParentID, ownerType, ownerID)
		if execErr != nil {
			err = fmt.Errorf("failed to mark bill payment %s expanded: %w", batch.ParentID, execErr)
			return err
		}
		affected, raErr := res.RowsAffected()
		if raErr != nil {
			err = raErr
			return err
		}
		if affected != 1 {
			err = s.explainParentFailure(ctx, tx, batch.Owner, batch.ParentID)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit import: %w", err)
	}
	return nil
}

// explainParentFailure distinguishes a missing parent from one already
// expanded, so the caller can report the right validation error.
func (s *Store) explainParentFailure(ctx context.Context, ex execer, owner domain.Owner, parentID string) error {
	ownerType, ownerID := ownerArgs(owner)
	var expanded sql.NullString
	row := ex.QueryRowContext(ctx, `
		SELECT expanded_at FROM transactions
		WHERE id = ? AND owner_type = ? AND owner_id = ? AND is_bill_payment = 1`,
		parentID, ownerType, ownerID)
	if err := row.Scan(&expanded); err != nil {
		return fmt.Errorf("bill payment %s: %w", parentID, ErrNotFound)
	}
	return fmt.Errorf("bill payment %s: %w", parentID, ErrAlreadyExpanded)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (domain.Transaction, error) {
	var (
		txn                           domain.Transaction
		ownerType, dateStr, amountStr string
		expandedAt                    sql.NullString
		isBillPayment, isHidden       int
		createdAtStr                  string
	)
	err := row.Scan(&txn.ID, &ownerType, &txn.Owner.ID, &dateStr,
		&txn.Description, &amountStr, &txn.CategoryID, &txn.BillingCycle,
		&txn.ParentBillPaymentID, &isBillPayment, &expandedAt, &isHidden,
		&txn.InstallmentCurrent, &txn.InstallmentTotal, &createdAtStr)
	if err != nil {
		return domain.Transaction{}, err
	}

	txn.Owner.Type = domain.OwnerType(ownerType)
	txn.IsBillPayment = isBillPayment != 0
	txn.IsHidden = isHidden != 0

	if txn.Date, err = parseDate(dateStr); err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", txn.ID, err)
	}
	if txn.Amount, err = parseAmountColumn(amountStr); err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", txn.ID, err)
	}
	if txn.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s: %w", txn.ID, err)
	}
	if expandedAt.Valid {
		t, err := parseTime(expandedAt.String)
		if err != nil {
			return domain.Transaction{}, fmt.Errorf("transaction %s: %w", txn.ID, err)
		}
		txn.ExpandedAt = &t
	}
	return txn, nil
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	defer rows.Close()
	var out []domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
