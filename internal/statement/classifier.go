package statement

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/rumor-ml/ledgerecon/internal/domain"
)

// installmentPattern matches "current/total" installment markers such as
// "Parcela 1/3" or "3/12". Bounded to two digits per side: anything longer
// is a date or reference number, not an installment counter.
var installmentPattern = regexp.MustCompile(`(?:^|\s)(\d{1,2})\s*/\s*(\d{1,2})(?:\s|$)`)

// Classifier assigns a role to each parsed line.
type Classifier struct {
	markers []string // normalized payment-received markers
}

// NewClassifier builds a classifier recognizing the given payment-received
// markers. Markers are compared against the normalized description, so
// "Pagamento Recebído" matches a configured "pagamento recebido".
func NewClassifier(paymentMarkers []string) *Classifier {
	markers := make([]string, 0, len(paymentMarkers))
	for _, m := range paymentMarkers {
		if n := Normalize(m); n != "" {
			markers = append(markers, n)
		}
	}
	return &Classifier{markers: markers}
}

// Classify sets line.Role and installment metadata in place.
//
// Order matters: the payment-received marker wins over everything, then the
// installment marker, then plain sign. For every role other than
// aggregate_payment the parsed sign is left untouched; the aggregate line's
// magnitude is taken later, by the matcher, through money.Magnitude.
func (c *Classifier) Classify(line *domain.StatementLine) {
	desc := Normalize(line.Description)

	for _, marker := range c.markers {
		if strings.Contains(desc, marker) {
			line.Role = domain.RoleAggregatePayment
			return
		}
	}

	if m := installmentPattern.FindStringSubmatch(line.Description); m != nil {
		current, _ := strconv.Atoi(m[1])
		total, _ := strconv.Atoi(m[2])
		if current >= 1 && total >= current {
			line.InstallmentCurrent = current
			line.InstallmentTotal = total
		}
	}

	if line.Amount.IsNegative() {
		line.Role = domain.RoleRefund
	} else {
		line.Role = domain.RolePurchase
	}
}
