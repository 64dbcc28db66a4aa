package decision

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pesio-ai/be-plan-approvals/internal/errors"
)

// validComparators are the operators a threshold rule may use.
var validComparators = map[string]bool{
	"<": true, "<=": true, ">": true, ">=": true, "=": true, "!=": true,
}

// Compile turns a rule description into a decision-table document.
//
// Row order is significant: the specific row(s) come first and the trailing
// default row (empty condition, outcome "false") guarantees every input
// produces exactly one outcome under the FIRST hit policy.
func Compile(desc RuleDescription, name string) (*Document, error) {
	if desc.RuleID == "" {
		return nil, errors.New(errors.ErrCodeInvalidRule, "rule id is required")
	}
	if desc.Field == "" {
		return nil, errors.New(errors.ErrCodeInvalidRule, "target field is required")
	}

	var condition string
	switch desc.Type {
	case RuleTypeThreshold:
		threshold, err := thresholdCondition(desc)
		if err != nil {
			return nil, err
		}
		condition = threshold

	case RuleTypeAllowList:
		membership, err := membershipCondition(desc)
		if err != nil {
			return nil, err
		}
		condition = membership

	case RuleTypeComposite:
		threshold, err := thresholdCondition(desc)
		if err != nil {
			return nil, err
		}
		membership, err := membershipCondition(desc)
		if err != nil {
			return nil, err
		}
		condition = threshold + " and " + membership

	default:
		return nil, errors.New(errors.ErrCodeInvalidRule,
			fmt.Sprintf("unknown rule type %q", desc.Type))
	}

	return &Document{
		DecisionID:      decisionID(desc.RuleID),
		Name:            name,
		InputExpression: desc.Field,
		HitPolicy:       HitPolicyFirst,
		Rows: []Row{
			{Condition: condition, Outcome: "true"},
			{Condition: "", Outcome: "false"},
		},
	}, nil
}

func thresholdCondition(desc RuleDescription) (string, error) {
	if desc.ThresholdValue == nil {
		return "", errors.New(errors.ErrCodeInvalidRule, "threshold value is required")
	}
	if *desc.ThresholdValue < 0 {
		return "", errors.New(errors.ErrCodeInvalidRule, "threshold value must not be negative")
	}
	if !validComparators[desc.Comparator] {
		return "", errors.New(errors.ErrCodeInvalidRule,
			fmt.Sprintf("unknown comparator %q", desc.Comparator))
	}
	return desc.Comparator + " " + formatNumber(*desc.ThresholdValue), nil
}

func membershipCondition(desc RuleDescription) (string, error) {
	if len(desc.AllowedValues) == 0 {
		return "", errors.New(errors.ErrCodeInvalidRule, "allow-list must not be empty")
	}
	quoted := make([]string, 0, len(desc.AllowedValues))
	for _, value := range desc.AllowedValues {
		if value == "" {
			return "", errors.New(errors.ErrCodeInvalidRule, "allow-list values must not be empty")
		}
		quoted = append(quoted, quoteLiteral(value))
	}
	return "in(" + strings.Join(quoted, ", ") + ")", nil
}

// decisionID derives a stable identifier from the rule id. Characters
// outside [A-Za-z0-9_-] are folded to underscores so the id is safe for
// the deployment boundary.
func decisionID(ruleID string) string {
	var b strings.Builder
	b.WriteString("decision_")
	for _, r := range ruleID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func quoteLiteral(v string) string {
	escaped := strings.ReplaceAll(v, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
