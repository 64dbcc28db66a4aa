package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseComparison(t *testing.T) {
	tests := []struct {
		input    string
		operator string
		value    float64
	}{
		{">= 18", ">=", 18},
		{"<65", "<", 65},
		{"= 42.5", "=", 42.5},
		{"!= 0", "!=", 0},
		{"  >   100  ", ">", 100},
		{"<= -3", "<=", -3},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			expr, err := ParseCondition(tc.input)
			require.NoError(t, err)
			require.Len(t, expr.Terms, 1)
			assert.Equal(t, Comparison{Operator: tc.operator, Value: tc.value}, expr.Terms[0])
		})
	}
}

func TestParseMembership(t *testing.T) {
	expr, err := ParseCondition(`in("GOLD", "SILVER", 3)`)
	require.NoError(t, err)
	require.Len(t, expr.Terms, 1)
	assert.Equal(t, Membership{Values: []string{"GOLD", "SILVER", "3"}}, expr.Terms[0])
}

func TestParseConjunction(t *testing.T) {
	expr, err := ParseCondition(`>= 18 and in("GOLD", "SILVER")`)
	require.NoError(t, err)
	require.Len(t, expr.Terms, 2)
	assert.Equal(t, Comparison{Operator: ">=", Value: 18}, expr.Terms[0])
	assert.Equal(t, Membership{Values: []string{"GOLD", "SILVER"}}, expr.Terms[1])
	assert.Equal(t, `>= 18 and in("GOLD", "SILVER")`, expr.Canonical())
}

func TestParseRejectsMalformedInput(t *testing.T) {
	bad := []string{
		"",
		"age >= 18", // input identifier must not appear in unary tests
		">=",
		">= abc",
		"in()",
		`in("A"`,
		`in("A",)`,
		`in "A"`,
		">= 18 and",
		">= 18 or < 65",
		"18",
		`"GOLD"`,
		">= 18 in(1)",
		"不 valid",
	}
	for _, input := range bad {
		t.Run(input, func(t *testing.T) {
			_, err := ParseCondition(input)
			assert.Error(t, err)
		})
	}
}

func TestCanonicalNormalizesWhitespace(t *testing.T) {
	a, err := ParseCondition(">=18")
	require.NoError(t, err)
	b, err := ParseCondition("  >=   18.0 ")
	require.NoError(t, err)
	assert.Equal(t, a.Canonical(), b.Canonical())
}

func TestKeywordBoundary(t *testing.T) {
	// "index(...)" must not parse as the "in" keyword
	_, err := ParseCondition(`index("A")`)
	assert.Error(t, err)

	// "android" must not satisfy a trailing "and"
	_, err = ParseCondition(`>= 18 android`)
	assert.Error(t, err)
}
