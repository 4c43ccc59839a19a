package statement

import (
	"time"

	"github.com/rumor-ml/ledgerecon/internal/domain"
)

// CycleLayout is the canonical year-month key format.
const CycleLayout = "2006-01"

// Cycle derives the billing cycle key for a classified line set.
//
// The aggregate-payment line's date anchors the cycle when present;
// otherwise the latest line date; otherwise the month of now. Pure
// function, no state.
func Cycle(lines []domain.StatementLine, now time.Time) string {
	if agg := AggregateLine(lines); agg != nil {
		return agg.Date.Format(CycleLayout)
	}

	var latest time.Time
	for _, l := range lines {
		if l.Date.After(latest) {
			latest = l.Date
		}
	}
	if !latest.IsZero() {
		return latest.Format(CycleLayout)
	}
	return now.Format(CycleLayout)
}

// AggregateLine returns the first aggregate-payment line, or nil.
func AggregateLine(lines []domain.StatementLine) *domain.StatementLine {
	for i := range lines {
		if lines[i].Role == domain.RoleAggregatePayment {
			return &lines[i]
		}
	}
	return nil
}
