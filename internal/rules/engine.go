// Package rules resolves categories for transaction descriptions from an
// owner-scoped, priority-ordered pattern set, and retroactively applies
// newly created rules to existing uncategorized transactions.
package rules

import (
	"context"
	"regexp"
	"time"

	"github.com/rumor-ml/ledgerecon/internal/domain"
	"github.com/rumor-ml/ledgerecon/internal/logger"
)

// Store is the persistence surface the rule engine needs. Implemented by
// the sqlite store; tests may substitute fakes.
type Store interface {
	// ActiveRules returns the owner's active rules ordered by priority
	// descending, then createdAt ascending.
	ActiveRules(ctx context.Context, owner domain.Owner) ([]domain.CategoryRule, error)
	// UncategorizedTransactions returns the owner's transactions with no
	// category assigned.
	UncategorizedTransactions(ctx context.Context, owner domain.Owner) ([]domain.Transaction, error)
	// AssignCategoryBulk sets categoryID on the given rows in a single
	// bulk update and reports how many rows changed.
	AssignCategoryBulk(ctx context.Context, owner domain.Owner, transactionIDs []string, categoryID string) (int64, error)
}

// Resolver matches descriptions against an owner's rule set.
//
// Rules are re-queried on every resolution; there is deliberately no
// process-wide rule cache. Patterns are compiled per use.
type Resolver struct {
	store Store
	// timeout bounds a single pattern evaluation; a timed-out attempt is
	// treated as no match.
	timeout time.Duration
}

// NewResolver creates a resolver. A non-positive timeout disables the
// per-pattern deadline.
func NewResolver(store Store, timeout time.Duration) *Resolver {
	return &Resolver{store: store, timeout: timeout}
}

// Resolve returns the category of the highest-priority active rule whose
// pattern matches description, or ok=false if none match. Equal priorities
// resolve oldest-created first. Unparseable patterns are skipped, never
// surfaced. Matching is a case-insensitive substring-style regexp search,
// not a full match.
func (r *Resolver) Resolve(ctx context.Context, owner domain.Owner, description string) (categoryID string, ok bool, err error) {
	ruleSet, err := r.store.ActiveRules(ctx, owner)
	if err != nil {
		return "", false, err
	}

	log := logger.FromContext(ctx)
	for _, rule := range ruleSet {
		re, err := compileSearch(rule.Pattern)
		if err != nil {
			log.Debug().Str("ruleId", rule.ID).Str("pattern", rule.Pattern).
				Msg("skipping unparseable rule pattern")
			continue
		}
		if r.matches(re, description) {
			return rule.CategoryID, true, nil
		}
	}
	return "", false, nil
}

// compileSearch compiles pattern for case-insensitive searching.
func compileSearch(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("(?i)" + pattern)
}

// matches runs one bounded evaluation. Go's regexp engine runs in linear
// time, but rule patterns are user-supplied, so the deadline guards against
// pathological pattern-by-input blowups all the same.
func (r *Resolver) matches(re *regexp.Regexp, description string) bool {
	if r.timeout <= 0 {
		return re.MatchString(description)
	}

	done := make(chan bool, 1)
	go func() {
		done <- re.MatchString(description)
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case matched := <-done:
		return matched
	case <-timer.C:
		return false
	}
}
