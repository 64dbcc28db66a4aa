package decision

import (
	"fmt"
	"strings"

	"github.com/pesio-ai/be-plan-approvals/internal/errors"
)

var knownHitPolicies = map[HitPolicy]bool{
	HitPolicyFirst:    true,
	HitPolicyUnique:   true,
	HitPolicyPriority: true,
}

// Validate statically checks a compiled document: structure first, then
// per-row condition syntax, then duplicate rows under the UNIQUE policy.
// Every violation is an error, never a warning; a document with
// Valid=false must not reach the deployment boundary.
func Validate(doc *Document) ValidationResult {
	var errs []string

	if doc == nil {
		return ValidationResult{Valid: false, Errors: []string{"document is nil"}}
	}
	if doc.DecisionID == "" {
		errs = append(errs, "decisionId is required")
	}
	if !isIdentifier(doc.InputExpression) {
		errs = append(errs, fmt.Sprintf("inputExpression %q is not a valid identifier", doc.InputExpression))
	}
	if !knownHitPolicies[doc.HitPolicy] {
		errs = append(errs, fmt.Sprintf("unknown hit policy %q", doc.HitPolicy))
	}

	errs = append(errs, checkRows(doc)...)

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// Err folds the result into an error carrying VALIDATION_FAILED, for
// callers that must refuse an invalid document rather than report on it.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return errors.New(errors.ErrCodeValidationFailed, strings.Join(r.Errors, "; "))
}

func checkRows(doc *Document) []string {
	var errs []string

	if len(doc.Rows) == 0 {
		return []string{"document has no rows"}
	}

	defaults := 0
	for i, row := range doc.Rows {
		if row.Outcome == "" {
			errs = append(errs, fmt.Sprintf("row %d: outcome is required", i))
		}
		if row.IsDefault() {
			defaults++
			if i != len(doc.Rows)-1 {
				errs = append(errs, fmt.Sprintf("row %d: default row must be the last row", i))
			}
			continue
		}
		if _, err := ParseCondition(row.Condition); err != nil {
			errs = append(errs, fmt.Sprintf("row %d: invalid condition %q: %v", i, row.Condition, err))
		}
	}

	switch defaults {
	case 0:
		errs = append(errs, "document must have exactly one default row (none found)")
	case 1:
	default:
		errs = append(errs, fmt.Sprintf("document must have exactly one default row (found %d)", defaults))
	}

	if doc.HitPolicy == HitPolicyUnique {
		errs = append(errs, checkDuplicates(doc)...)
	}
	return errs
}

// checkDuplicates flags literal-equal conditions under the UNIQUE policy.
// Comparison is by canonical form; semantic overlap is out of scope.
func checkDuplicates(doc *Document) []string {
	var errs []string
	seen := make(map[string]int)
	for i, row := range doc.Rows {
		if row.IsDefault() {
			continue
		}
		expr, err := ParseCondition(row.Condition)
		if err != nil {
			continue // already reported by checkRows
		}
		canonical := expr.Canonical()
		if first, ok := seen[canonical]; ok {
			errs = append(errs, fmt.Sprintf("row %d: duplicates row %d under UNIQUE hit policy", i, first))
			continue
		}
		seen[canonical] = i
	}
	return errs
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isIdentChar(c) && !(i == 0 && isDigit(c)) {
			continue
		}
		return false
	}
	return true
}
