// Package statement parses raw credit-card statement exports into
// classified lines and resolves their billing cycle.
//
// Exactly one column layout is accepted: one transaction per line, three
// fields (date, description, amount) separated by semicolons or tabs.
// Anything else fails with a FormatError naming the offending line instead
// of guessing.
package statement

import (
	"fmt"
	"strings"
	"time"

	"github.com/rumor-ml/ledgerecon/internal/domain"
	"github.com/rumor-ml/ledgerecon/internal/money"
)

// FormatError reports an unparseable statement. It is fatal: no partial
// line set is ever returned alongside one.
type FormatError struct {
	Line   int    // 1-based line number in the raw input, 0 if whole-input
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("statement format error at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("statement format error: %s", e.Reason)
}

// dateLayouts are the accepted date forms, tried in order.
var dateLayouts = []string{"02/01/2006", "2006-01-02"}

// Parser turns raw statement text into classified lines. The zero value is
// not usable; construct with NewParser so classification markers are set.
type Parser struct {
	classifier *Classifier
}

// NewParser creates a parser whose classifier recognizes the given
// payment-received markers (compared case- and diacritic-insensitively).
func NewParser(paymentMarkers []string) *Parser {
	return &Parser{classifier: NewClassifier(paymentMarkers)}
}

// Parse converts rawText into ordered, classified statement lines.
// Returns a *FormatError if any line deviates from the documented layout.
func (p *Parser) Parse(rawText string) ([]domain.StatementLine, error) {
	if strings.TrimSpace(rawText) == "" {
		return nil, &FormatError{Reason: "statement is empty"}
	}

	var lines []domain.StatementLine
	for i, raw := range strings.Split(rawText, "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if trimmed == "" {
			continue
		}

		fields := splitFields(trimmed)
		if len(fields) != 3 {
			return nil, &FormatError{Line: lineNo, Reason: fmt.Sprintf("expected 3 fields (date, description, amount), got %d", len(fields))}
		}

		date, err := parseDate(fields[0])
		if err != nil {
			return nil, &FormatError{Line: lineNo, Reason: fmt.Sprintf("invalid date %q", fields[0])}
		}

		desc := strings.TrimSpace(fields[1])
		if desc == "" {
			return nil, &FormatError{Line: lineNo, Reason: "description cannot be empty"}
		}

		amount, err := money.ParseAmount(fields[2])
		if err != nil {
			return nil, &FormatError{Line: lineNo, Reason: err.Error()}
		}

		line := domain.StatementLine{Date: date, Description: desc, Amount: amount}
		p.classifier.Classify(&line)
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return nil, &FormatError{Reason: "statement contains no transaction lines"}
	}
	return lines, nil
}

// splitFields splits on the first separator family found. Tab-separated
// exports may contain semicolons inside descriptions, so tabs win when
// present.
func splitFields(line string) []string {
	sep := ";"
	if strings.ContainsRune(line, '\t') {
		sep = "\t"
	}
	parts := strings.Split(line, sep)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
