package statement

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumor-ml/ledgerecon/internal/domain"
)

var testMarkers = []string{"pagamento recebido", "payment received"}

func TestParse_DocumentedLayout(t *testing.T) {
	raw := "15/03/2025; Bourbon Supermercado; 620,73\n" +
		"16/03/2025; Estorno de compra; -253,82\n" +
		"20/03/2025; Pagamento recebido; -366,91\n"

	lines, err := NewParser(testMarkers).Parse(raw)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Equal(t, "Bourbon Supermercado", lines[0].Description)
	assert.Equal(t, domain.RolePurchase, lines[0].Role)
	assert.True(t, lines[0].Amount.Equal(decimal.RequireFromString("620.73")))
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), lines[0].Date)

	assert.Equal(t, domain.RoleRefund, lines[1].Role)
	assert.True(t, lines[1].Amount.Equal(decimal.RequireFromString("-253.82")), "refund sign must survive parsing")

	assert.Equal(t, domain.RoleAggregatePayment, lines[2].Role)
	assert.True(t, lines[2].Amount.Equal(decimal.RequireFromString("-366.91")), "aggregate line keeps its parsed sign too")
}

func TestParse_TabSeparated(t *testing.T) {
	raw := "2025-03-15\tUBER TRIP\t42.50"
	lines, err := NewParser(testMarkers).Parse(raw)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "UBER TRIP", lines[0].Description)
	assert.Equal(t, domain.RolePurchase, lines[0].Role)
}

func TestParse_SkipsBlankLines(t *testing.T) {
	raw := "\n15/03/2025; Padaria; 12,00\n\n\n16/03/2025; Farmacia; 30,00\n"
	lines, err := NewParser(testMarkers).Parse(raw)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
}

func TestParse_FormatErrors(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantLine int
	}{
		{name: "empty input", raw: "", wantLine: 0},
		{name: "whitespace only", raw: "  \n  ", wantLine: 0},
		{name: "two fields", raw: "15/03/2025; only-description", wantLine: 1},
		{name: "four fields", raw: "15/03/2025; a; 1,00; extra", wantLine: 1},
		{name: "bad date", raw: "2025/03/15; Loja; 10,00", wantLine: 1},
		{name: "bad amount", raw: "15/03/2025; Loja; dez reais", wantLine: 1},
		{name: "empty description", raw: "15/03/2025; ; 10,00", wantLine: 1},
		{name: "second line broken", raw: "15/03/2025; Loja; 10,00\n16/03/2025; quebrada", wantLine: 2},
	}

	p := NewParser(testMarkers)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse(tt.raw)
			var fe *FormatError
			require.True(t, errors.As(err, &fe), "want *FormatError, got %v", err)
			assert.Equal(t, tt.wantLine, fe.Line)
		})
	}
}

func TestClassify_MarkerIsDiacriticInsensitive(t *testing.T) {
	tests := []string{
		"Pagamento recebido",
		"PAGAMENTO RECEBIDO",
		"Pagamento recebído",
		"  pagamento recebido - obrigado", // marker embedded in longer text
	}
	c := NewClassifier(testMarkers)
	for _, desc := range tests {
		line := domain.StatementLine{Description: desc, Amount: decimal.RequireFromString("-100")}
		c.Classify(&line)
		assert.Equal(t, domain.RoleAggregatePayment, line.Role, "description %q", desc)
	}
}

func TestClassify_Installments(t *testing.T) {
	tests := []struct {
		desc        string
		amount      string
		wantCurrent int
		wantTotal   int
		wantRole    domain.LineRole
	}{
		{desc: "Hospital - Parcela 1/3", amount: "150.00", wantCurrent: 1, wantTotal: 3, wantRole: domain.RolePurchase},
		{desc: "Magazine 10/12", amount: "99.90", wantCurrent: 10, wantTotal: 12, wantRole: domain.RolePurchase},
		{desc: "Estorno parcela 2/4", amount: "-50.00", wantCurrent: 2, wantTotal: 4, wantRole: domain.RoleRefund},
		// current > total is a reference number, not an installment
		{desc: "Pedido 9/2", amount: "20.00", wantCurrent: 0, wantTotal: 0, wantRole: domain.RolePurchase},
		// no marker at all
		{desc: "Mercado", amount: "35.00", wantCurrent: 0, wantTotal: 0, wantRole: domain.RolePurchase},
	}

	c := NewClassifier(testMarkers)
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			line := domain.StatementLine{Description: tt.desc, Amount: decimal.RequireFromString(tt.amount)}
			c.Classify(&line)
			assert.Equal(t, tt.wantCurrent, line.InstallmentCurrent)
			assert.Equal(t, tt.wantTotal, line.InstallmentTotal)
			assert.Equal(t, tt.wantRole, line.Role)
		})
	}
}

func TestClassify_SignDecidesRole(t *testing.T) {
	c := NewClassifier(testMarkers)

	purchase := domain.StatementLine{Description: "Loja", Amount: decimal.Zero}
	c.Classify(&purchase)
	assert.Equal(t, domain.RolePurchase, purchase.Role, "zero amount classifies as purchase")

	refund := domain.StatementLine{Description: "Estorno", Amount: decimal.RequireFromString("-0.01")}
	c.Classify(&refund)
	assert.Equal(t, domain.RoleRefund, refund.Role)
	assert.True(t, refund.Amount.IsNegative(), "classification must not rectify the amount")
}

func TestCycle(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	mar := func(day int) time.Time { return time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC) }

	t.Run("aggregate date anchors the cycle", func(t *testing.T) {
		lines := []domain.StatementLine{
			{Date: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC), Role: domain.RolePurchase},
			{Date: mar(20), Role: domain.RoleAggregatePayment},
		}
		assert.Equal(t, "2025-03", Cycle(lines, now))
	})

	t.Run("latest line date without aggregate", func(t *testing.T) {
		lines := []domain.StatementLine{
			{Date: mar(5), Role: domain.RolePurchase},
			{Date: mar(28), Role: domain.RoleRefund},
			{Date: mar(12), Role: domain.RolePurchase},
		}
		assert.Equal(t, "2025-03", Cycle(lines, now))
	})

	t.Run("current month for empty line set", func(t *testing.T) {
		assert.Equal(t, "2025-06", Cycle(nil, now))
	})
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "pagamento recebido", Normalize("  Pagamento Recebído "))
	assert.Equal(t, "acucar", Normalize("AÇÚCAR"))
	assert.Equal(t, "", Normalize("   "))
}
