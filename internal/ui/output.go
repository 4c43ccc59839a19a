// Package ui provides colored terminal output for the CLI.
package ui

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/rumor-ml/ledgerecon/internal/domain"
)

const headerWidth = 60

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	successColor = color.New(color.FgGreen)
	infoColor    = color.New(color.FgBlue)
	warningColor = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// center pads text on the left so it sits in the middle of width.
func center(text string, width int) string {
	if len(text) >= width {
		return text
	}
	padding := (width - len(text)) / 2
	return strings.Repeat(" ", padding) + text
}

// Header prints a boxed section header.
func Header(text string) {
	line := strings.Repeat("=", headerWidth)
	headerColor.Println(line)
	headerColor.Println(center(text, headerWidth))
	headerColor.Println(line)
}

// Step prints a numbered progress step.
func Step(current, total int, text string) {
	infoColor.Printf("[%d/%d] %s\n", current, total, text)
}

// Success prints a green success message.
func Success(text string) {
	successColor.Printf("✓ %s\n", text)
}

// Info prints a blue informational message.
func Info(text string) {
	infoColor.Printf("• %s\n", text)
}

// Warning prints a yellow warning message.
func Warning(text string) {
	warningColor.Printf("⚠ %s\n", text)
}

// Error prints a red error message.
func Error(text string) {
	errorColor.Printf("✗ %s\n", text)
}

// BlueText prints plain blue text.
func BlueText(text string) {
	infoColor.Println(text)
}

// YellowText prints plain yellow text.
func YellowText(text string) {
	warningColor.Println(text)
}

// RenderPreview prints a reconciliation preview in a human-readable form.
func RenderPreview(p domain.ReconciliationPreview) {
	Header("Statement Preview")

	fmt.Printf("Billing cycle:  %s\n", p.BillingCycle)
	fmt.Printf("Lines parsed:   %d\n", len(p.Lines))
	fmt.Printf("Net total:      %s\n", p.NetTotal.StringFixed(2))
	fmt.Println()

	for _, line := range p.Lines {
		marker := " "
		if line.Role == domain.RoleAggregatePayment {
			marker = "*"
		}
		fmt.Printf("  %s %s  %-40s %12s\n",
			marker, line.Date.Format("2006-01-02"), truncate(line.Description, 40),
			line.Amount.StringFixed(2))
	}
	fmt.Println()

	switch p.Confidence {
	case domain.ConfidenceExact:
		Success(fmt.Sprintf("Matched bill payment %s (difference %s)",
			p.Candidate.ID, p.Difference.StringFixed(2)))
	case domain.ConfidenceClose:
		Warning(fmt.Sprintf("Close match to bill payment %s (difference %s), review before importing",
			p.Candidate.ID, p.Difference.StringFixed(2)))
	default:
		Info("No matching bill payment found in the date window")
	}
}

// RenderImportResult prints the outcome of a confirmed import.
func RenderImportResult(created, categorized int, total decimal.Decimal) {
	Success(fmt.Sprintf("Imported %d transactions (net %s), %d auto-categorized",
		created, total.StringFixed(2), categorized))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
