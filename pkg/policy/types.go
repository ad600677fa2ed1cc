package policy

import "time"

// Severity represents the severity level of a policy violation.
type Severity string

const (
	// SeverityWarning is for findings that should be reviewed.
	SeverityWarning Severity = "warning"

	// SeverityError is for findings that fail the check.
	SeverityError Severity = "error"
)

// Policy represents one hardening policy with its Rego code.
type Policy struct {
	// Name is the unique name of the policy.
	Name string `json:"name"`

	// Description provides a human-readable description.
	Description string `json:"description"`

	// Rego contains the Rego policy code.
	Rego string `json:"rego"`

	// Severity is the default severity for violations the policy raises
	// without an explicit one.
	Severity Severity `json:"severity"`

	// Enabled indicates if the policy is active.
	Enabled bool `json:"enabled"`

	// Tags are labels for organizing policies.
	Tags []string `json:"tags,omitempty"`
}

// Violation represents a single policy violation.
type Violation struct {
	// Policy is the name of the policy that raised the violation.
	Policy string `json:"policy"`

	// Symbol is the offending symbol, when the policy names one.
	Symbol string `json:"symbol,omitempty"`

	// Message is a human-readable violation message.
	Message string `json:"message"`

	// Severity is the violation severity level.
	Severity Severity `json:"severity"`

	// DetectedAt is when the violation was detected.
	DetectedAt time.Time `json:"detected_at"`
}

// Result represents the outcome of one policy evaluation.
type Result struct {
	// Passed is false when any error-severity violation was raised.
	Passed bool `json:"passed"`

	// Violations lists all raised violations, warnings included.
	Violations []Violation `json:"violations,omitempty"`

	// Warnings lists evaluation problems (a policy that failed to run),
	// which never fail the check.
	Warnings []string `json:"warnings,omitempty"`

	// EvaluatedPolicies lists the names of the policies that ran.
	EvaluatedPolicies []string `json:"evaluated_policies"`

	// EvaluatedAt is when the evaluation finished.
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Input is the document handed to every policy.
type Input struct {
	// Symbols maps symbol names to their resolved values.
	Symbols map[string]string `json:"symbols"`
}
