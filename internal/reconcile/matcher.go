// Package reconcile computes a statement's algebraic net total and scores
// recorded bill payments against it. Everything here is read-only and safe
// under arbitrary concurrency; persistence of a confirmed match belongs to
// the importer.
package reconcile

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rumor-ml/ledgerecon/internal/domain"
	"github.com/rumor-ml/ledgerecon/internal/money"
	"github.com/rumor-ml/ledgerecon/internal/statement"
)

// Matcher grades candidate bill payments by how closely their magnitude
// matches a statement's net total.
type Matcher struct {
	exactTolerance decimal.Decimal
	closeTolerance decimal.Decimal
}

// NewMatcher creates a matcher with the given confidence tolerances.
func NewMatcher(exactTolerance, closeTolerance decimal.Decimal) *Matcher {
	return &Matcher{exactTolerance: exactTolerance, closeTolerance: closeTolerance}
}

// Result is the advisory outcome of a match attempt.
type Result struct {
	NetTotal   decimal.Decimal
	Candidate  *domain.Transaction
	Difference decimal.Decimal
	Confidence domain.MatchConfidence
}

// NetTotal sums every non-aggregate line algebraically: purchases add,
// refunds subtract. No term is rectified; the parsed signs carry the
// arithmetic.
func NetTotal(lines []domain.StatementLine) decimal.Decimal {
	amounts := make([]decimal.Decimal, 0, len(lines))
	for _, l := range lines {
		if l.Role == domain.RoleAggregatePayment {
			continue
		}
		amounts = append(amounts, l.Amount)
	}
	return money.Sum(amounts)
}

// AnchorDate is the date candidate windows center on: the
// aggregate-payment line's date when present, else the latest line date.
// Zero time for an empty line set.
func AnchorDate(lines []domain.StatementLine) time.Time {
	if agg := statement.AggregateLine(lines); agg != nil {
		return agg.Date
	}
	var latest time.Time
	for _, l := range lines {
		if l.Date.After(latest) {
			latest = l.Date
		}
	}
	return latest
}

// Match picks the candidate minimizing ||candidate.amount| − netTotal|.
// Ties break by nearest date to anchor, then most recently created. With
// no candidates (including the zero-non-payment-line case) it returns a
// result with no candidate and confidence "none" rather than failing.
//
// The candidate magnitude is the one other legitimate absolute value: a
// recorded bill payment is stored as a negative ledger row, and only its
// size is compared against the net total.
func (m *Matcher) Match(lines []domain.StatementLine, candidates []domain.Transaction, anchor time.Time) Result {
	result := Result{
		NetTotal:   NetTotal(lines),
		Difference: decimal.Zero,
		Confidence: domain.ConfidenceNone,
	}
	if len(candidates) == 0 {
		return result
	}

	scored := make([]scoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = scoredCandidate{
			txn:        c,
			difference: money.Magnitude(money.Magnitude(c.Amount).Sub(result.NetTotal)),
			dateGap:    absDuration(c.Date.Sub(anchor)),
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if !scored[i].difference.Equal(scored[j].difference) {
			return scored[i].difference.LessThan(scored[j].difference)
		}
		if scored[i].dateGap != scored[j].dateGap {
			return scored[i].dateGap < scored[j].dateGap
		}
		return scored[i].txn.CreatedAt.After(scored[j].txn.CreatedAt)
	})

	best := scored[0]
	result.Candidate = &best.txn
	result.Difference = best.difference
	result.Confidence = m.confidence(best.difference)
	return result
}

// WithinCloseTolerance reports whether a bill payment's magnitude is
// within the close tolerance of the statement's net total. The importer
// uses it to guard a confirmed expansion; later independent edits to
// either side are not re-checked.
func (m *Matcher) WithinCloseTolerance(netTotal, candidateAmount decimal.Decimal) bool {
	difference := money.Magnitude(money.Magnitude(candidateAmount).Sub(netTotal))
	return difference.LessThanOrEqual(m.closeTolerance)
}

type scoredCandidate struct {
	txn        domain.Transaction
	difference decimal.Decimal
	dateGap    time.Duration
}

func (m *Matcher) confidence(difference decimal.Decimal) domain.MatchConfidence {
	switch {
	case difference.LessThanOrEqual(m.exactTolerance):
		return domain.ConfidenceExact
	case difference.LessThanOrEqual(m.closeTolerance):
		return domain.ConfidenceClose
	default:
		return domain.ConfidenceNone
	}
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
