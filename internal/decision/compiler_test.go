package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pesio-ai/be-plan-approvals/internal/errors"
)

func floatPtr(v float64) *float64 { return &v }

func TestCompileThreshold(t *testing.T) {
	doc, err := Compile(RuleDescription{
		RuleID:         "min-age",
		Type:           RuleTypeThreshold,
		Field:          "age",
		Comparator:     ">=",
		ThresholdValue: floatPtr(18),
	}, "Minimum age")
	require.NoError(t, err)

	assert.Equal(t, "decision_min-age", doc.DecisionID)
	assert.Equal(t, "age", doc.InputExpression)
	assert.Equal(t, HitPolicyFirst, doc.HitPolicy)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, Row{Condition: ">= 18", Outcome: "true"}, doc.Rows[0])
	assert.Equal(t, Row{Condition: "", Outcome: "false"}, doc.Rows[1])
}

func TestCompileAllowList(t *testing.T) {
	doc, err := Compile(RuleDescription{
		RuleID:        "plan tiers",
		Type:          RuleTypeAllowList,
		Field:         "tier",
		AllowedValues: []string{"GOLD", "SILVER"},
	}, "Eligible tiers")
	require.NoError(t, err)

	assert.Equal(t, "decision_plan_tiers", doc.DecisionID)
	require.Len(t, doc.Rows, 2)
	assert.Equal(t, `in("GOLD", "SILVER")`, doc.Rows[0].Condition)
	assert.True(t, doc.Rows[1].IsDefault())
}

func TestCompileComposite(t *testing.T) {
	doc, err := Compile(RuleDescription{
		RuleID:         "adult-gold",
		Type:           RuleTypeComposite,
		Field:          "profile",
		Comparator:     ">=",
		ThresholdValue: floatPtr(18),
		AllowedValues:  []string{"GOLD"},
	}, "Adult gold members")
	require.NoError(t, err)

	assert.Equal(t, `>= 18 and in("GOLD")`, doc.Rows[0].Condition)
}

func TestCompileLastRowIsAlwaysDefaultDeny(t *testing.T) {
	cases := []RuleDescription{
		{RuleID: "a", Type: RuleTypeThreshold, Field: "age", Comparator: "<", ThresholdValue: floatPtr(65)},
		{RuleID: "b", Type: RuleTypeThreshold, Field: "income", Comparator: ">", ThresholdValue: floatPtr(0)},
		{RuleID: "c", Type: RuleTypeThreshold, Field: "score", Comparator: "=", ThresholdValue: floatPtr(42.5)},
		{RuleID: "d", Type: RuleTypeAllowList, Field: "state", AllowedValues: []string{"CA"}},
	}
	for _, desc := range cases {
		doc, err := Compile(desc, "rule")
		require.NoError(t, err)
		last := doc.Rows[len(doc.Rows)-1]
		assert.True(t, last.IsDefault())
		assert.Equal(t, "false", last.Outcome)
	}
}

func TestCompileInvalidRules(t *testing.T) {
	tests := []struct {
		name string
		desc RuleDescription
	}{
		{"missing rule id", RuleDescription{Type: RuleTypeThreshold, Field: "age", Comparator: ">=", ThresholdValue: floatPtr(1)}},
		{"missing field", RuleDescription{RuleID: "r", Type: RuleTypeThreshold, Comparator: ">=", ThresholdValue: floatPtr(1)}},
		{"missing threshold", RuleDescription{RuleID: "r", Type: RuleTypeThreshold, Field: "age", Comparator: ">="}},
		{"negative threshold", RuleDescription{RuleID: "r", Type: RuleTypeThreshold, Field: "age", Comparator: ">=", ThresholdValue: floatPtr(-1)}},
		{"bad comparator", RuleDescription{RuleID: "r", Type: RuleTypeThreshold, Field: "age", Comparator: "~", ThresholdValue: floatPtr(1)}},
		{"empty allow-list", RuleDescription{RuleID: "r", Type: RuleTypeAllowList, Field: "tier"}},
		{"empty allow-list value", RuleDescription{RuleID: "r", Type: RuleTypeAllowList, Field: "tier", AllowedValues: []string{""}}},
		{"composite missing list", RuleDescription{RuleID: "r", Type: RuleTypeComposite, Field: "x", Comparator: ">=", ThresholdValue: floatPtr(1)}},
		{"unknown type", RuleDescription{RuleID: "r", Type: "fuzzy", Field: "x"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Compile(tc.desc, "rule")
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidRule, errors.Code(err))
		})
	}
}

func TestCompileQuotesSpecialCharacters(t *testing.T) {
	doc, err := Compile(RuleDescription{
		RuleID:        "r",
		Type:          RuleTypeAllowList,
		Field:         "label",
		AllowedValues: []string{`say "hi"`},
	}, "rule")
	require.NoError(t, err)
	assert.Equal(t, `in("say \"hi\"")`, doc.Rows[0].Condition)

	// the emitted condition must round-trip through the parser
	expr, err := ParseCondition(doc.Rows[0].Condition)
	require.NoError(t, err)
	require.Len(t, expr.Terms, 1)
	assert.Equal(t, Membership{Values: []string{`say "hi"`}}, expr.Terms[0])
}

func TestCompiledDocumentsAlwaysValidate(t *testing.T) {
	descs := []RuleDescription{
		{RuleID: "t", Type: RuleTypeThreshold, Field: "age", Comparator: ">=", ThresholdValue: floatPtr(18)},
		{RuleID: "a", Type: RuleTypeAllowList, Field: "tier", AllowedValues: []string{"GOLD", "SILVER", "BRONZE"}},
		{RuleID: "c", Type: RuleTypeComposite, Field: "member", Comparator: "<=", ThresholdValue: floatPtr(64.5), AllowedValues: []string{"A", "B"}},
	}
	for _, desc := range descs {
		doc, err := Compile(desc, "rule")
		require.NoError(t, err)
		result := Validate(doc)
		assert.True(t, result.Valid, "errors: %v", result.Errors)
	}
}
