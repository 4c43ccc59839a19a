package rules

import (
	"context"
	"time"

	"github.com/rumor-ml/ledgerecon/internal/domain"
	"github.com/rumor-ml/ledgerecon/internal/logger"
)

// Applier retroactively categorizes existing uncategorized transactions
// when a rule is created. It never fails rule creation: every downstream
// error is logged and reported as zero updated rows.
type Applier struct {
	store   Store
	timeout time.Duration
}

// NewApplier creates an applier sharing the resolver's store and
// per-pattern evaluation timeout.
func NewApplier(store Store, timeout time.Duration) *Applier {
	return &Applier{store: store, timeout: timeout}
}

// Apply assigns rule.CategoryID to every uncategorized transaction in the
// rule's owner scope whose description matches the rule's pattern
// (case-insensitive search). The assignment is one bulk update so that two
// concurrently created rules race at commit granularity, not per row.
// Returns the number of rows updated; 0 on any failure.
func (a *Applier) Apply(ctx context.Context, rule domain.CategoryRule) int64 {
	log := logger.FromContext(ctx).With().Str("ruleId", rule.ID).Logger()

	re, err := compileSearch(rule.Pattern)
	if err != nil {
		log.Warn().Str("pattern", rule.Pattern).Msg("retroactive apply skipped: pattern does not compile")
		return 0
	}

	candidates, err := a.store.UncategorizedTransactions(ctx, rule.Owner)
	if err != nil {
		log.Warn().Err(err).Msg("retroactive apply degraded: uncategorized query failed")
		return 0
	}

	resolver := &Resolver{timeout: a.timeout}
	var ids []string
	for _, txn := range candidates {
		if resolver.matches(re, txn.Description) {
			ids = append(ids, txn.ID)
		}
	}
	if len(ids) == 0 {
		return 0
	}

	updated, err := a.store.AssignCategoryBulk(ctx, rule.Owner, ids, rule.CategoryID)
	if err != nil {
		log.Warn().Err(err).Msg("retroactive apply degraded: bulk update failed")
		return 0
	}
	log.Info().Int64("updated", updated).Msg("retroactively categorized transactions")
	return updated
}
