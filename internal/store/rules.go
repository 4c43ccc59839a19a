package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rumor-ml/ledgerecon/internal/domain"
)

const ruleColumns = `id, owner_type, owner_id, pattern, category_id, priority, is_active, created_at`

// InsertRule persists a new category rule. The (owner, pattern) unique
// constraint surfaces as ErrUniqueViolation.
func (s *Store) InsertRule(ctx context.Context, rule domain.CategoryRule) error {
	ownerType, ownerID := ownerArgs(rule.Owner)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO category_rules (id, owner_type, owner_id, pattern, category_id, priority, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID, ownerType, ownerID, rule.Pattern, rule.CategoryID,
		rule.Priority, boolToInt(rule.IsActive), formatTime(rule.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert rule %s: %w", rule.ID, wrapErr(err))
	}
	return nil
}

// GetRule fetches one rule in the owner's scope.
func (s *Store) GetRule(ctx context.Context, owner domain.Owner, id string) (domain.CategoryRule, error) {
	ownerType, ownerID := ownerArgs(owner)
	row := s.db.QueryRowContext(ctx, `
		SELECT `+ruleColumns+`
		FROM category_rules
		WHERE id = ? AND owner_type = ? AND owner_id = ?`,
		id, ownerType, ownerID)

	rule, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CategoryRule{}, fmt.Errorf("rule %s: %w", id, ErrNotFound)
	}
	return rule, err
}

// ActiveRules returns the owner's active rules in evaluation order:
// priority descending, then oldest created first.
func (s *Store) ActiveRules(ctx context.Context, owner domain.Owner) ([]domain.CategoryRule, error) {
	return s.queryRules(ctx, owner, true)
}

// ListRules returns all of the owner's rules, active or not, in the same
// evaluation order as ActiveRules.
func (s *Store) ListRules(ctx context.Context, owner domain.Owner) ([]domain.CategoryRule, error) {
	return s.queryRules(ctx, owner, false)
}

func (s *Store) queryRules(ctx context.Context, owner domain.Owner, activeOnly bool) ([]domain.CategoryRule, error) {
	ownerType, ownerID := ownerArgs(owner)
	query := `
		SELECT ` + ruleColumns + `
		FROM category_rules
		WHERE owner_type = ? AND owner_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY priority DESC, created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, ownerType, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var out []domain.CategoryRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// UpdateRule rewrites a rule's mutable fields (pattern, category,
// priority, active flag).
func (s *Store) UpdateRule(ctx context.Context, rule domain.CategoryRule) error {
	ownerType, ownerID := ownerArgs(rule.Owner)
	res, err := s.db.ExecContext(ctx, `
		UPDATE category_rules
		SET pattern = ?, category_id = ?, priority = ?, is_active = ?
		WHERE id = ? AND owner_type = ? AND owner_id = ?`,
		rule.Pattern, rule.CategoryID, rule.Priority, boolToInt(rule.IsActive),
		rule.ID, ownerType, ownerID)
	if err != nil {
		return fmt.Errorf("failed to update rule %s: %w", rule.ID, wrapErr(err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("rule %s: %w", rule.ID, ErrNotFound)
	}
	return nil
}

// PriorityUpdate reassigns one rule's priority during a reorder.
type PriorityUpdate struct {
	RuleID   string `json:"id"`
	Priority int    `json:"priority"`
}

// UpdatePriorities applies a reorder as one transaction: either every
// referenced rule gets its new priority or none do. A missing rule fails
// the whole batch with ErrNotFound.
func (s *Store) UpdatePriorities(ctx context.Context, owner domain.Owner, updates []PriorityUpdate) (err error) {
	if len(updates) == 0 {
		return nil
	}
	ownerType, ownerID := ownerArgs(owner)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin reorder transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, u := range updates {
		res, execErr := tx.ExecContext(ctx, `
			UPDATE category_rules
			SET priority = ?
			WHERE id = ? AND owner_type = ? AND owner_id = ?`,
			u.Priority, u.RuleID, ownerType, ownerID)
		if execErr != nil {
			err = fmt.Errorf("failed to reprioritize rule %s: %w", u.RuleID, execErr)
			return err
		}
		affected, raErr := res.RowsAffected()
		if raErr != nil {
			err = raErr
			return err
		}
		if affected == 0 {
			err = fmt.Errorf("rule %s: %w", u.RuleID, ErrNotFound)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit reorder: %w", err)
	}
	return nil
}

func scanRule(row rowScanner) (domain.CategoryRule, error) {
	var (
		rule         domain.CategoryRule
		ownerType    string
		isActive     int
		createdAtStr string
	)
	err := row.Scan(&rule.ID, &ownerType, &rule.Owner.ID, &rule.Pattern,
		&rule.CategoryID, &rule.Priority, &isActive, &createdAtStr)
	if err != nil {
		return domain.CategoryRule{}, err
	}
	rule.Owner.Type = domain.OwnerType(ownerType)
	rule.IsActive = isActive != 0
	if rule.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return domain.CategoryRule{}, fmt.Errorf("rule %s: %w", rule.ID, err)
	}
	return rule, nil
}
