package statement

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks strips combining marks so "Pagamento recebído" and
// "pagamento recebido" normalize identically.
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, trims, and removes diacritics from s. Used for the
// payment-received marker comparison and for content fingerprinting; rule
// evaluation has its own case-insensitive matching and does not fold marks.
func Normalize(s string) string {
	folded, _, err := transform.String(foldMarks, s)
	if err != nil {
		// Malformed UTF-8: fall back to the raw text rather than fail a
		// comparison that is only a marker heuristic.
		folded = s
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
