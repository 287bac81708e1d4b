package compliance

import (
	"fmt"

	"onboarding-backend/models"
)

// Check is the outcome of validating one payload. It is computed on every
// submission attempt and never stored; a failed check blocks the state
// transition entirely.
type Check struct {
	FormType       models.FormType
	RequiredFields []string
	Passed         bool
	Violations     []models.RuleViolation
	Warnings       []models.RuleViolation
}

// AsError returns a ComplianceError carrying the blocking violations,
// or nil when the check passed.
func (c Check) AsError() error {
	if c.Passed {
		return nil
	}
	return models.NewComplianceError(c.FormType, c.Violations)
}

// Validate runs the employee-side rule set for the form type.
// The engine is pure: no I/O, no clock beyond time.Now inside date rules,
// identical payloads always produce identical results.
func Validate(formType models.FormType, payload map[string]string) Check {
	return runRules(formType, payload, requiredFields[formType], formRules[formType])
}

// ValidateEmployer runs the employer-side rule set used for manager
// verification. It is a distinct rule set from the employee forms.
func ValidateEmployer(formType models.FormType, payload map[string]string) Check {
	return runRules(formType, payload, employerRequiredFields[formType], employerRules[formType])
}

func runRules(formType models.FormType, payload map[string]string, required []string, rules []Rule) Check {
	check := Check{
		FormType:       formType,
		RequiredFields: required,
		Violations:     []models.RuleViolation{},
		Warnings:       []models.RuleViolation{},
	}
	for _, field := range required {
		if payload[field] == "" {
			check.Violations = append(check.Violations, models.RuleViolation{
				Rule:     "required-field",
				Field:    field,
				Message:  fmt.Sprintf("field %q is required", field),
				Severity: models.SeverityBlocking,
			})
		}
	}
	for _, rule := range rules {
		ok, message := rule.Check(payload)
		if ok {
			continue
		}
		violation := models.RuleViolation{
			Rule:     rule.Name,
			Field:    rule.Field,
			Message:  message,
			Severity: rule.Severity,
		}
		if rule.Severity == models.SeverityBlocking {
			check.Violations = append(check.Violations, violation)
		} else {
			check.Warnings = append(check.Warnings, violation)
		}
	}
	check.Passed = len(check.Violations) == 0
	return check
}
