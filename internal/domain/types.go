// Package domain defines the core entities shared across the reconciliation
// and categorization engine: statement lines, transactions, category rules,
// owners, and the reconciliation preview returned to callers.
package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OwnerType identifies whether a record belongs to a user or a group.
type OwnerType string

const (
	OwnerTypeUser  OwnerType = "user"
	OwnerTypeGroup OwnerType = "group"
)

// Owner scopes every persistent record. A record belongs to exactly one
// owner, never both a user and a group.
type Owner struct {
	Type OwnerType `json:"type"`
	ID   string    `json:"id"`
}

// Validate checks that the owner is fully specified.
func (o Owner) Validate() error {
	if o.Type != OwnerTypeUser && o.Type != OwnerTypeGroup {
		return fmt.Errorf("invalid owner type %q (must be 'user' or 'group')", o.Type)
	}
	if o.ID == "" {
		return fmt.Errorf("owner ID cannot be empty")
	}
	return nil
}

// LineRole classifies a parsed statement line.
type LineRole string

const (
	// RolePurchase is a charge; its parsed amount is >= 0.
	RolePurchase LineRole = "purchase"
	// RoleRefund is a credit back to the card; its parsed amount is < 0.
	RoleRefund LineRole = "refund"
	// RoleAggregatePayment is the "payment received" line whose magnitude
	// covers the whole statement.
	RoleAggregatePayment LineRole = "aggregate_payment"
)

// StatementLine is a classified line from a raw statement export. It is
// transient: lines are never persisted directly, only expanded into
// transactions by a confirmed import.
//
// Amount keeps the sign exactly as parsed. Downstream code must never take
// its absolute value outside the aggregate-payment branch; use
// money.Magnitude there and nowhere else.
type StatementLine struct {
	Date               time.Time       `json:"date"`
	Description        string          `json:"description"`
	Amount             decimal.Decimal `json:"amount"`
	Role               LineRole        `json:"role"`
	InstallmentCurrent int             `json:"installmentCurrent,omitempty"`
	InstallmentTotal   int             `json:"installmentTotal,omitempty"`
}

// HasInstallment reports whether the line carries installment metadata.
func (l StatementLine) HasInstallment() bool {
	return l.InstallmentTotal > 0
}

// Transaction is a persistent ledger row.
//
// A bill-payment transaction (IsBillPayment=true) represents the aggregate
// credit-card charge. Once expanded, ExpandedAt is set, the row is hidden,
// and every child carries ParentBillPaymentID pointing back at it. The
// parent link is a non-owning back-reference: the parent never embeds its
// children.
type Transaction struct {
	ID                  string          `json:"id"`
	Owner               Owner           `json:"owner"`
	Date                time.Time       `json:"date"`
	Description         string          `json:"description"`
	Amount              decimal.Decimal `json:"amount"`
	CategoryID          string          `json:"categoryId,omitempty"`
	BillingCycle        string          `json:"billingCycle,omitempty"`
	ParentBillPaymentID string          `json:"parentBillPaymentId,omitempty"`
	IsBillPayment       bool            `json:"isBillPayment"`
	ExpandedAt          *time.Time      `json:"expandedAt,omitempty"`
	IsHidden            bool            `json:"isHidden"`
	InstallmentCurrent  int             `json:"installmentCurrent,omitempty"`
	InstallmentTotal    int             `json:"installmentTotal,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
}

// CategoryRule maps a description pattern to a category for one owner.
// Higher priority rules are evaluated first; ties resolve oldest-created
// first. Rules are created by explicit user action and never auto-deleted;
// deactivation removes a rule from resolution without losing it.
type CategoryRule struct {
	ID         string    `json:"id"`
	Owner      Owner     `json:"owner"`
	Pattern    string    `json:"pattern"`
	CategoryID string    `json:"categoryId"`
	Priority   int       `json:"priority"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MatchConfidence grades how close a reconciliation candidate is to the
// statement's net total.
type MatchConfidence string

const (
	ConfidenceExact MatchConfidence = "exact"
	ConfidenceClose MatchConfidence = "close"
	ConfidenceNone  MatchConfidence = "none"
)

// ReconciliationPreview is the advisory result of matching a parsed
// statement against recorded bill payments. Generating a preview mutates
// nothing; the caller confirms (or abandons) it separately.
type ReconciliationPreview struct {
	BillingCycle string          `json:"billingCycle"`
	Lines        []StatementLine `json:"lines"`
	// NetTotal is the algebraic sum over non-aggregate lines: purchases
	// add, refunds subtract.
	NetTotal   decimal.Decimal `json:"netTotal"`
	Candidate  *Transaction    `json:"candidate,omitempty"`
	Difference decimal.Decimal `json:"difference"`
	Confidence MatchConfidence `json:"matchConfidence"`
}
