// Package engine composes the parser, matcher, rule engine, and importer
// into the service surface collaborators call: Preview, Import,
// CreateRule, ResolveCategory, and Reorder.
//
// The engine trusts the owner it is given; authentication happens
// upstream. All scoping is per owner.
package engine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/rumor-ml/ledgerecon/internal/config"
	"github.com/rumor-ml/ledgerecon/internal/domain"
	"github.com/rumor-ml/ledgerecon/internal/importer"
	"github.com/rumor-ml/ledgerecon/internal/reconcile"
	"github.com/rumor-ml/ledgerecon/internal/rules"
	"github.com/rumor-ml/ledgerecon/internal/statement"
	"github.com/rumor-ml/ledgerecon/internal/store"
)

// Engine is the reconciliation and categorization service.
type Engine struct {
	cfg      config.Config
	store    *store.Store
	parser   *statement.Parser
	matcher  *reconcile.Matcher
	resolver *rules.Resolver
	applier  *rules.Applier
	executor *importer.Executor
	now      func() time.Time
}

// New wires an engine from its configuration and open store.
func New(cfg config.Config, st *store.Store) *Engine {
	resolver := rules.NewResolver(st, cfg.RegexTimeout)
	return &Engine{
		cfg:      cfg,
		store:    st,
		parser:   statement.NewParser(cfg.PaymentMarkers),
		matcher:  reconcile.NewMatcher(cfg.ExactTolerance, cfg.CloseTolerance),
		resolver: resolver,
		applier:  rules.NewApplier(st, cfg.RegexTimeout),
		executor: importer.New(st, resolver),
		now:      time.Now,
	}
}

// Preview parses and classifies rawText, derives its billing cycle, and
// scores candidate bill payments against the net total. It mutates
// nothing: callers may generate previews freely before confirming one.
func (e *Engine) Preview(ctx context.Context, owner domain.Owner, rawText string) (*domain.ReconciliationPreview, error) {
	if err := owner.Validate(); err != nil {
		return nil, &ValidationError{Field: "owner", Message: err.Error()}
	}

	lines, err := e.parser.Parse(rawText)
	if err != nil {
		return nil, err
	}

	cycle := statement.Cycle(lines, e.now())
	anchor := reconcile.AnchorDate(lines)

	candidates, err := e.store.CandidateBillPayments(ctx, owner, anchor, e.cfg.MatchWindowDays)
	if err != nil {
		return nil, &PersistenceError{Op: "candidate search", Err: err}
	}

	result := e.matcher.Match(lines, candidates, anchor)
	return &domain.ReconciliationPreview{
		BillingCycle: cycle,
		Lines:        lines,
		NetTotal:     result.NetTotal,
		Candidate:    result.Candidate,
		Difference:   result.Difference,
		Confidence:   result.Confidence,
	}, nil
}

// Import confirms a previewed statement: it re-parses rawText and expands
// it into child transactions as one atomic unit, optionally expanding the
// chosen bill payment. Identical content for the same owner, cycle, and
// parent fails with DuplicateImportError and creates nothing.
//
// A chosen bill payment must carry a magnitude within the close tolerance
// of the statement's net total. The check runs once, here; later edits to
// the parent or its children are not re-validated.
func (e *Engine) Import(ctx context.Context, owner domain.Owner, rawText, chosenBillPaymentID string) (importer.Result, error) {
	if err := owner.Validate(); err != nil {
		return importer.Result{}, &ValidationError{Field: "owner", Message: err.Error()}
	}

	lines, err := e.parser.Parse(rawText)
	if err != nil {
		return importer.Result{}, err
	}
	cycle := statement.Cycle(lines, e.now())

	if chosenBillPaymentID != "" {
		parent, err := e.store.GetTransaction(ctx, owner, chosenBillPaymentID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return importer.Result{}, &ValidationError{Field: "billPaymentId", Message: "chosen bill payment does not exist for this owner"}
		case err != nil:
			return importer.Result{}, &PersistenceError{Op: "import", Err: err}
		}
		if !parent.IsBillPayment {
			return importer.Result{}, &ValidationError{Field: "billPaymentId", Message: "chosen transaction is not a bill payment"}
		}
		if parent.ExpandedAt != nil {
			return importer.Result{}, &ValidationError{Field: "billPaymentId", Message: "chosen bill payment was already expanded"}
		}
		netTotal := reconcile.NetTotal(lines)
		if !e.matcher.WithinCloseTolerance(netTotal, parent.Amount) {
			return importer.Result{}, &ValidationError{
				Field:   "billPaymentId",
				Message: fmt.Sprintf("bill payment amount %s is outside the close tolerance of the statement net total %s", parent.Amount, netTotal),
			}
		}
	}

	result, err := e.executor.Execute(ctx, owner, lines, cycle, chosenBillPaymentID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUniqueViolation):
			return importer.Result{}, &DuplicateImportError{BillingCycle: cycle}
		case errors.Is(err, store.ErrNotFound):
			return importer.Result{}, &ValidationError{Field: "billPaymentId", Message: "chosen bill payment does not exist for this owner"}
		case errors.Is(err, store.ErrAlreadyExpanded):
			return importer.Result{}, &ValidationError{Field: "billPaymentId", Message: "chosen bill payment was already expanded"}
		default:
			return importer.Result{}, &PersistenceError{Op: "import", Err: err}
		}
	}
	return result, nil
}

// CreateRuleResult pairs the persisted rule with the number of existing
// transactions its retroactive application categorized.
type CreateRuleResult struct {
	Rule                domain.CategoryRule `json:"rule"`
	TransactionsUpdated int64               `json:"transactionsUpdated"`
}

// CreateRule persists a new rule and synchronously applies it to the
// owner's existing uncategorized transactions. Retroactive application
// never fails the creation: on any downstream error TransactionsUpdated
// is simply 0.
//
// The stored pattern is taken verbatim; rule-creation callers wanting
// "contains"/"starts with"/"exact" semantics build it via
// rules.BuildPattern first.
func (e *Engine) CreateRule(ctx context.Context, owner domain.Owner, pattern, categoryID string, priority int) (CreateRuleResult, error) {
	if err := owner.Validate(); err != nil {
		return CreateRuleResult{}, &ValidationError{Field: "owner", Message: err.Error()}
	}
	if pattern == "" {
		return CreateRuleResult{}, &ValidationError{Field: "pattern", Message: "pattern cannot be empty"}
	}
	if _, err := regexp.Compile("(?i)" + pattern); err != nil {
		return CreateRuleResult{}, &ValidationError{Field: "pattern", Message: err.Error()}
	}
	if categoryID == "" {
		return CreateRuleResult{}, &ValidationError{Field: "categoryId", Message: "category is required"}
	}

	rule := domain.CategoryRule{
		ID:         uuid.NewString(),
		Owner:      owner,
		Pattern:    pattern,
		CategoryID: categoryID,
		Priority:   priority,
		IsActive:   true,
		CreatedAt:  e.now(),
	}
	if err := e.store.InsertRule(ctx, rule); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return CreateRuleResult{}, &ValidationError{Field: "pattern", Message: "a rule with this pattern already exists for the owner"}
		}
		return CreateRuleResult{}, &PersistenceError{Op: "rule creation", Err: err}
	}

	updated := e.applier.Apply(ctx, rule)
	return CreateRuleResult{Rule: rule, TransactionsUpdated: updated}, nil
}

// ResolveCategory resolves a category for a description using the owner's
// active rules. Reusable by any transaction-creation path that wants
// auto-categorization without duplicating rule logic.
func (e *Engine) ResolveCategory(ctx context.Context, owner domain.Owner, description string) (string, bool, error) {
	if err := owner.Validate(); err != nil {
		return "", false, &ValidationError{Field: "owner", Message: err.Error()}
	}
	categoryID, ok, err := e.resolver.Resolve(ctx, owner, description)
	if err != nil {
		return "", false, &PersistenceError{Op: "rule resolution", Err: err}
	}
	return categoryID, ok, nil
}

// Reorder reassigns priorities in one atomic batch and returns the
// owner's rules in their new evaluation order.
func (e *Engine) Reorder(ctx context.Context, owner domain.Owner, updates []store.PriorityUpdate) ([]domain.CategoryRule, error) {
	if err := owner.Validate(); err != nil {
		return nil, &ValidationError{Field: "owner", Message: err.Error()}
	}
	if err := e.store.UpdatePriorities(ctx, owner, updates); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &ValidationError{Field: "ruleId", Message: "reorder references a rule that does not exist for this owner"}
		}
		return nil, &PersistenceError{Op: "reorder", Err: err}
	}
	rulesList, err := e.store.ListRules(ctx, owner)
	if err != nil {
		return nil, &PersistenceError{Op: "rule listing", Err: err}
	}
	return rulesList, nil
}

// GetRule returns one rule in the owner's scope.
func (e *Engine) GetRule(ctx context.Context, owner domain.Owner, id string) (domain.CategoryRule, error) {
	if err := owner.Validate(); err != nil {
		return domain.CategoryRule{}, &ValidationError{Field: "owner", Message: err.Error()}
	}
	rule, err := e.store.GetRule(ctx, owner, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.CategoryRule{}, &ValidationError{Field: "ruleId", Message: "rule does not exist for this owner"}
		}
		return domain.CategoryRule{}, &PersistenceError{Op: "rule lookup", Err: err}
	}
	return rule, nil
}

// ListRules returns all of the owner's rules in evaluation order.
func (e *Engine) ListRules(ctx context.Context, owner domain.Owner) ([]domain.CategoryRule, error) {
	if err := owner.Validate(); err != nil {
		return nil, &ValidationError{Field: "owner", Message: err.Error()}
	}
	rulesList, err := e.store.ListRules(ctx, owner)
	if err != nil {
		return nil, &PersistenceError{Op: "rule listing", Err: err}
	}
	return rulesList, nil
}

// UpdateRule edits a rule's pattern, category, priority, or active flag.
// Edits do not re-trigger retroactive application.
func (e *Engine) UpdateRule(ctx context.Context, rule domain.CategoryRule) (domain.CategoryRule, error) {
	if err := rule.Owner.Validate(); err != nil {
		return domain.CategoryRule{}, &ValidationError{Field: "owner", Message: err.Error()}
	}
	if rule.Pattern == "" {
		return domain.CategoryRule{}, &ValidationError{Field: "pattern", Message: "pattern cannot be empty"}
	}
	if _, err := regexp.Compile("(?i)" + rule.Pattern); err != nil {
		return domain.CategoryRule{}, &ValidationError{Field: "pattern", Message: err.Error()}
	}

	if err := e.store.UpdateRule(ctx, rule); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return domain.CategoryRule{}, &ValidationError{Field: "ruleId", Message: "rule does not exist for this owner"}
		case errors.Is(err, store.ErrUniqueViolation):
			return domain.CategoryRule{}, &ValidationError{Field: "pattern", Message: "a rule with this pattern already exists for the owner"}
		default:
			return domain.CategoryRule{}, &PersistenceError{Op: "rule update", Err: err}
		}
	}
	return e.store.GetRule(ctx, rule.Owner, rule.ID)
}
