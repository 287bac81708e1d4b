package models

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Expected workflow outcomes. Controllers map these to HTTP statuses,
// callers branch on them with errors.Is; anything else is a server fault.
var (
	ErrSessionNotFound            = errors.New("onboarding session not found")
	ErrInvalidPhase               = errors.New("operation is not allowed in the current phase")
	ErrDuplicateActiveSession     = errors.New("employee already has an active onboarding session")
	ErrIncompleteRequiredSteps    = errors.New("required steps are not completed")
	ErrConflictingActiveUpdate    = errors.New("an active update already exists for this form")
	ErrTokenNotFound              = errors.New("update token not found")
	ErrTokenExpired               = errors.New("update token expired")
	ErrMissingSignature           = errors.New("required signature is missing")
	ErrDeadlineExceeded           = errors.New("manager verification deadline exceeded")
	ErrExternalServiceUnavailable = errors.New("external service unavailable")
)

// RuleViolation is one failed compliance rule with enough detail
// to render an actionable message.
type RuleViolation struct {
	Rule     string       `json:"rule"`
	Field    string       `json:"field,omitempty"`
	Message  string       `json:"message"`
	Severity RuleSeverity `json:"severity"`
}

// ComplianceError carries the full list of blocking violations that
// stopped a submission. Warnings never appear here.
type ComplianceError struct {
	FormType   FormType
	Violations []RuleViolation
}

func (e *ComplianceError) Error() string {
	names := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		names = append(names, v.Rule)
	}
	return fmt.Sprintf("compliance check failed for %s: %s", e.FormType, strings.Join(names, ", "))
}

func NewComplianceError(formType FormType, violations []RuleViolation) *ComplianceError {
	return &ComplianceError{FormType: formType, Violations: violations}
}

func AsComplianceError(err error) (*ComplianceError, bool) {
	var ce *ComplianceError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
