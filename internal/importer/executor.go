// Package importer expands a confirmed reconciliation preview into
// persistent child transactions, assigning categories per line through the
// rule engine.
package importer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/rumor-ml/ledgerecon/internal/domain"
	"github.com/rumor-ml/ledgerecon/internal/logger"
	"github.com/rumor-ml/ledgerecon/internal/store"
)

// Store is the slice of persistence the executor needs.
type Store interface {
	ExpandImport(ctx context.Context, batch store.ImportBatch) error
}

// CategoryResolver resolves a category for a description, owner-scoped.
// Satisfied by rules.Resolver.
type CategoryResolver interface {
	Resolve(ctx context.Context, owner domain.Owner, description string) (categoryID string, ok bool, err error)
}

// Result reports what a confirmed import created.
type Result struct {
	CreatedCount     int `json:"createdCount"`
	CategorizedCount int `json:"categorizedCount"`
}

// Executor turns classified statement lines into one atomic batch of
// child transactions.
type Executor struct {
	store    Store
	resolver CategoryResolver
	now      func() time.Time
	newID    func() string
}

// New creates an executor.
func New(st Store, resolver CategoryResolver) *Executor {
	return &Executor{
		store:    st,
		resolver: resolver,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

// Execute inserts one child per line as a single database transaction and,
// when parentID names a confirmed bill payment, marks it expanded and
// links every child to it.
//
// The aggregate-payment line is inserted too, flagged hidden so listing
// collaborators exclude it from totals. Amounts go in exactly as parsed;
// no magnitude is taken here for any role. A line whose category cannot be
// resolved degrades to uncategorized without aborting the batch; any
// insert failure aborts everything.
//
// Errors come back untranslated from the store: ErrUniqueViolation is the
// duplicate-import guard, ErrNotFound/ErrAlreadyExpanded are invalid
// parent choices.
func (e *Executor) Execute(ctx context.Context, owner domain.Owner, lines []domain.StatementLine, billingCycle, parentID string) (Result, error) {
	log := logger.FromContext(ctx)
	createdAt := e.now()

	batch := store.ImportBatch{
		Owner:        owner,
		ParentID:     parentID,
		Children:     make([]domain.Transaction, 0, len(lines)),
		Fingerprints: make([]string, 0, len(lines)),
		ExpandedAt:   createdAt,
	}

	var categorized int
	for i, line := range lines {
		child := domain.Transaction{
			ID:                  e.newID(),
			Owner:               owner,
			Date:                line.Date,
			Description:         line.Description,
			Amount:              line.Amount,
			BillingCycle:        billingCycle,
			ParentBillPaymentID: parentID,
			IsHidden:            line.Role == domain.RoleAggregatePayment,
			InstallmentCurrent:  line.InstallmentCurrent,
			InstallmentTotal:    line.InstallmentTotal,
			CreatedAt:           createdAt,
		}

		if line.Role != domain.RoleAggregatePayment {
			categoryID, ok, err := e.resolver.Resolve(ctx, owner, line.Description)
			switch {
			case err != nil:
				// Partial-success policy: the line stays uncategorized.
				log.Warn().Err(err).Str("description", line.Description).
					Msg("categorization degraded for imported line")
			case ok:
				child.CategoryID = categoryID
				categorized++
			}
		}

		batch.Children = append(batch.Children, child)
		batch.Fingerprints = append(batch.Fingerprints, LineFingerprint(line, i))
	}

	if err := e.store.ExpandImport(ctx, batch); err != nil {
		return Result{}, err
	}

	log.Info().Int("created", len(batch.Children)).Int("categorized", categorized).
		Str("billingCycle", billingCycle).Msg("statement imported")
	return Result{CreatedCount: len(batch.Children), CategorizedCount: categorized}, nil
}
