// Package decision compiles business-authored eligibility rules into
// decision-table documents and validates those documents statically. It is
// pure: nothing in this package performs I/O.
package decision

// RuleType selects the generation strategy used by the compiler.
type RuleType string

const (
	// RuleTypeThreshold compares the input against a numeric bound.
	RuleTypeThreshold RuleType = "threshold"
	// RuleTypeAllowList tests membership in a fixed value set.
	RuleTypeAllowList RuleType = "allow-list"
	// RuleTypeComposite conjoins a threshold and an allow-list test.
	RuleTypeComposite RuleType = "composite"
)

// HitPolicy declares how row matches are resolved at evaluation time.
type HitPolicy string

const (
	// HitPolicyFirst selects the first matching row in order.
	HitPolicyFirst HitPolicy = "FIRST"
	// HitPolicyUnique requires at most one matching row.
	HitPolicyUnique HitPolicy = "UNIQUE"
	// HitPolicyPriority selects the highest-priority matching row.
	HitPolicyPriority HitPolicy = "PRIORITY"
)

// RuleDescription is the author's intent, produced by the authoring layer.
// It is immutable once handed to the compiler.
type RuleDescription struct {
	RuleID         string   `json:"ruleId"`
	Type           RuleType `json:"type"`
	Field          string   `json:"field"`
	Comparator     string   `json:"comparator,omitempty"`
	ThresholdValue *float64 `json:"thresholdValue,omitempty"`
	AllowedValues  []string `json:"allowedValues,omitempty"`
}

// Row is one (condition, outcome) pair. An empty condition is the
// catch-all default row.
type Row struct {
	Condition string `json:"condition"`
	Outcome   string `json:"outcome"`
}

// IsDefault reports whether the row is the catch-all default.
func (r Row) IsDefault() bool { return r.Condition == "" }

// Document is a compiled decision table. It is never mutated after
// validation; a rule change produces a new Document with a new identity.
type Document struct {
	DecisionID      string    `json:"decisionId"`
	Name            string    `json:"name"`
	InputExpression string    `json:"inputExpression"`
	HitPolicy       HitPolicy `json:"hitPolicy"`
	Rows            []Row     `json:"rows"`
}

// ValidationResult reports the outcome of static validation. Callers must
// not deploy a document when Valid is false.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
