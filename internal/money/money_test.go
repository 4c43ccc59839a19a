package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "plain dot decimal", input: "620.73", want: "620.73"},
		{name: "negative dot decimal", input: "-253.82", want: "-253.82"},
		{name: "explicit positive", input: "+15.00", want: "15"},
		{name: "comma decimal", input: "620,73", want: "620.73"},
		{name: "negative comma decimal", input: "-366,91", want: "-366.91"},
		{name: "thousands groups with comma decimal", input: "8.235,79", want: "8235.79"},
		{name: "currency prefix", input: "R$ 1.234,56", want: "1234.56"},
		{name: "dollar prefix", input: "$42.00", want: "42"},
		{name: "integer", input: "100", want: "100"},
		{name: "whitespace", input: "  -9,90  ", want: "-9.9"},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "two commas", input: "1,2,3", wantErr: true},
		{name: "letters", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
		})
	}
}

func TestParseAmount_SignSurvivesRoundTrip(t *testing.T) {
	// The regression this guards against: magnitudes computed ad hoc on
	// refund lines. The parsed sign must come back out exactly.
	for _, raw := range []string{"-253.82", "-0.01", "-1.234,56"} {
		d, err := ParseAmount(raw)
		require.NoError(t, err)
		assert.True(t, d.IsNegative(), "ParseAmount(%q) lost its sign", raw)
	}
}

func TestMagnitude(t *testing.T) {
	assert.True(t, Magnitude(decimal.RequireFromString("-366.91")).Equal(decimal.RequireFromString("366.91")))
	assert.True(t, Magnitude(decimal.RequireFromString("366.91")).Equal(decimal.RequireFromString("366.91")))
	assert.True(t, Magnitude(decimal.Zero).Equal(decimal.Zero))
}

func TestSum_Algebraic(t *testing.T) {
	ds := []decimal.Decimal{
		decimal.RequireFromString("620.73"),
		decimal.RequireFromString("-253.82"),
	}
	assert.True(t, Sum(ds).Equal(decimal.RequireFromString("366.91")))

	assert.True(t, Sum(nil).Equal(decimal.Zero))
}
