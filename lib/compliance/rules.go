package compliance

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"onboarding-backend/models"
)

const minWorkingAge = 14

const dateLayout = "2006-01-02"

// Rule is a named, severity-tagged predicate over a form payload.
// A rule only fires on present values; missing required fields are
// reported by the required-field check.
type Rule struct {
	Name     string
	Field    string
	Severity models.RuleSeverity
	Check    func(payload map[string]string) (ok bool, message string)
}

var (
	ssnRegex     = regexp.MustCompile(`^\d{3}-?\d{2}-?\d{4}$`)
	routingRegex = regexp.MustCompile(`^\d{9}$`)
	emailRegex   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

var requiredFields = map[models.FormType][]string{
	models.FormTypePersonalData: {"first_name", "last_name", "date_of_birth", "ssn", "address", "email"},
	models.FormTypeW4:           {"first_name", "last_name", "ssn", "filing_status"},
	models.FormTypeStateWithholding: {"first_name", "last_name", "ssn", "state", "filing_status"},
	models.FormTypeI9:            {"first_name", "last_name", "date_of_birth", "citizenship_status", "attestation_date"},
	models.FormTypeDirectDeposit: {"bank_name", "routing_number", "account_number", "account_type"},
	models.FormTypePolicyAck:     {"acknowledged", "ack_date"},
}

var formRules = map[models.FormType][]Rule{
	models.FormTypePersonalData: {
		ruleValidDate("valid-date-of-birth", "date_of_birth"),
		ruleMinimumAge(),
		ruleSSNFormat(),
		ruleEmailFormat(),
		rulePhonePresent(),
	},
	models.FormTypeW4: {
		ruleSSNFormat(),
		ruleFilingStatus(),
		ruleExemptConflict(),
		ruleNumericIfPresent("numeric-dependents-amount", "dependents_amount"),
		ruleNumericIfPresent("numeric-extra-withholding", "extra_withholding"),
	},
	models.FormTypeStateWithholding: {
		ruleSSNFormat(),
		ruleFilingStatus(),
		ruleExemptConflict(),
		ruleNumericIfPresent("numeric-extra-withholding", "extra_withholding"),
	},
	models.FormTypeI9: {
		ruleValidDate("valid-date-of-birth", "date_of_birth"),
		ruleMinimumAge(),
		ruleCitizenshipStatus(),
		ruleIdentityDocumentLists(),
		ruleWorkAuthNotExpired(),
	},
	models.FormTypeDirectDeposit: {
		ruleRoutingNumber(),
		ruleNumericIfPresent("numeric-account-number", "account_number"),
		ruleAccountType(),
	},
	models.FormTypePolicyAck: {
		ruleAcknowledged(),
		ruleValidDate("valid-ack-date", "ack_date"),
		ruleDateNotInFuture("ack-date-not-in-future", "ack_date"),
	},
}

// employer-side rules gate manager verification; this is a distinct
// rule set from the employee forms (section 2 of the I-9, in essence)
var employerRequiredFields = map[models.FormType][]string{
	models.FormTypeI9: {"document_title", "document_number", "issuing_authority", "verification_date", "manager_name"},
}

var employerRules = map[models.FormType][]Rule{
	models.FormTypeI9: {
		ruleValidDate("valid-verification-date", "verification_date"),
		ruleDateNotInFuture("verification-date-not-in-future", "verification_date"),
		{
			Name:     "document-not-expired",
			Field:    "document_expiry",
			Severity: models.SeverityBlocking,
			Check: func(payload map[string]string) (bool, string) {
				raw := payload["document_expiry"]
				if raw == "" {
					return true, ""
				}
				expiry, err := time.Parse(dateLayout, raw)
				if err != nil {
					return false, "document expiry date is not a valid date"
				}
				if expiry.Before(startOfDay(time.Now())) {
					return false, "identity document is expired"
				}
				return true, ""
			},
		},
	},
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func ruleValidDate(name, field string) Rule {
	return Rule{
		Name:     name,
		Field:    field,
		Severity: models.SeverityBlocking,
		Check: func(payload map[string]string) (bool, string) {
			raw := payload[field]
			if raw == "" {
				return true, ""
			}
			if _, err := time.Parse(dateLayout, raw); err != nil {
				return false, fmt.Sprintf("field %q must be a date in YYYY-MM-DD format", field)
			}
			return true, ""
		},
	}
}

func ruleDateNotInFuture(name, field string) Rule {
	return Rule{
		Name:     name,
		Field:    field,
		Severity: models.SeverityBlocking,
		Check: func(payload map[string]string) (bool, string) {
			raw := payload[field]
			date, err := time.Parse(dateLayout, raw)
			if raw == "" || err != nil {
				return true, ""
			}
			if date.After(time.Now()) {
				return false, fmt.Sprintf("field %q cannot be in the future", field)
			}
			return true, ""
		},
	}
}

func ruleMinimumAge() Rule {
	return Rule{
		Name:     "legal-minimum-age",
		Field:    "date_of_birth",
		Severity: models.SeverityBlocking,
		Check: func(payload map[string]string) (bool, string) {
			raw := payload["date_of_birth"]
			dob, err := time.Parse(dateLayout, raw)
			if raw == "" || err != nil {
				return true, ""
			}
			if dob.AddDate(minWorkingAge, 0, 0).After(time.Now()) {
				return false, fmt.Sprintf("employee must be at least %d years old", minWorkingAge)
			}
			return true, ""
		},
	}
}

func ruleSSNFormat() Rule {
	return Rule{
		Name:     "valid-ssn-format",
		Field:    "ssn",
		Severity: models.SeverityBlocking,
		Check: func(payload map[string]string) (bool, string) {
			raw := payload["ssn"]
			if raw == "" {
				return true, ""
			}
			if !ssnRegex.MatchString(raw) {
				return false, "ssn must look like NNN-NN-NNNN"
			}
			return true, ""
		},
	}
}

func ruleEmailFormat() Rule {
	return Rule{
		Name:     "valid-email-format",
		Field:    "email",
		Severity: models.SeverityBlocking,
		Check: func(payload map[string]string) (bool, string) {
			raw := payload["email"]
			if raw == "" {
				return true, ""
			}
			if !emailRegex.MatchString(raw) {
				return false, "email address is not valid"
			}
			return true, ""
		},
	}
}

func rulePhonePresent() Rule {
	return Rule{
		Name:     "phone-recommended",
		Field:    "phone",
		Severity: models.SeverityWarning,
		Check: func(payload map[string]string) (bool, string) {
			if payload["phone"] == "" {
				return false, "a contact phone number is recommended"
			}
			return true, ""
		},
	}
}

func ruleFilingStatus() Rule {
	allowed := map[string]bool{
		"single":                    true,
		"married_filing_jointly":    true,
		"married_filing_separately": true,
		"head_of_household":         true,
	}
	return Rule{
		Name:     "valid-filing-status",
		Field:    "filing_status",
		Severity: models.SeverityBlocking,
		Check: func(payload map[string]string) (bool, string) {
			raw := payload["filing_status"]
			if raw == "" {
				return true, ""
			}
			if !allowed[raw] {
				return false, "filing status is not one of the allowed values"
			}
			return true, ""
		},
	}
}

// a withholding form cannot both claim exemption and request extra withholding
func ruleExemptConflict() Rule {
	return Rule{
		Name:     "exempt-withholding-conflict",
		Field:    "exempt",
		Severity: models.SeverityBlocking,
		Check: func(payload map[string]string) (bool, string) {
			if payload["exempt"] != "true" {
				return true, ""
			}
			extra := payload["extra_withholding"]
			if extra != "" && extra != "0" {
				return false, "cannot claim exempt status and extra withholding at the same time"
			}
			return true, ""
		},
	}
}

func ruleNumericIfPresent(name, field string) Rule {
	return Rule{
		Name:     name,
		Field:    field,
		Severity: models.SeverityBlocking,
		Check: func(payload map[string]string) (bool, string) {
			raw := payload[field]
			if raw == "" {
				return true, ""
			}
			if _, err := strconv.ParseFloat(raw, 64); err != nil {
				return false, fmt.Sprintf("field %q must be numeric", field)
			}
			return true, ""
		},
	}
}

func ruleCitizenshipStatus() Rule {
	allowed := map[string]bool{
		"citizen":             true,
		"noncitizen_national": true,
		"permanent_resident":  true,
		"alien_authorized":    true,
	}
	return Rule{
		Name:     "valid-citizenship-status",
		Field:    "citizenship_status",
		Severity: models.SeverityBlocking,
		Check: func(payload map[string]string) (bool, string) {
			raw := payload["citizenship_status"]
			if raw == "" {
				return true, ""
			}
			if !allowed[raw] {
				return false, "citizenship status is not one of the allowed values"
			}
			return true, ""
		},
	}
}

// federal rules accept either one List A document, or one List B plus
// one List C document; mixing both sets is an error
func ruleIdentityDocumentLists() Rule {
	return Rule{
		Name:     "identity-document-lists",
		Field:    "list_a_document",
		Severity: models.SeverityBlocking,
		Check: func(payload map[string]string) (bool, string) {
			listA := payload["list_a_document"] != ""
			listB := payload["list_b_document"] != ""
			listC := payload["list_c_document"] != ""
			if listA && (listB || listC) {
				return false, "provide either a List A document or List B and C documents, not both"
			}
			if !listA && !(listB && listC) {
				return false, "provide a List A document, or both a List B and a List C document"
			}
			return true, ""
		},
	}
}

func ruleWorkAuthNotExpired() Rule {
	return Rule{
		Name:     "work-authorization-not-expired",
		Field:    "work_auth_expiry",
		Severity: models.SeverityBlocking,
		Check: func(payload map[string]string) (bool, string) {
			if payload["citizenship_status"] != "alien_authorized" {
				return true, ""
			}
			raw := payload["work_auth_expiry"]
			if raw == "" {
				return false, "work authorization expiry date is required for authorized aliens"
			}
			expiry, err := time.Parse(dateLayout, raw)
			if err != nil {
				return false, "work authorization expiry date is not a valid date"
			}
			if expiry.Before(startOfDay(time.Now())) {
				return false, "work authorization is expired"
			}
			return true, ""
		},
	}
}

func ruleRoutingNumber() Rule {
	return Rule{
		Name:     "valid-routing-number",
		Field:    "routing_number",
		Severity: models.SeverityBlocking,
		Check: func(payload map[string]string) (bool, string) {
			raw := payload["routing_number"]
			if raw == "" {
				return true, ""
			}
			if !routingRegex.MatchString(raw) {
				return false, "routing number must be 9 digits"
			}
			// ABA checksum
			sum := 0
			for i := 0; i < 9; i += 3 {
				sum += 3 * int(raw[i]-'0')
				sum += 7 * int(raw[i+1]-'0')
				sum += int(raw[i+2] - '0')
			}
			if sum%10 != 0 {
				return false, "routing number checksum is invalid"
			}
			return true, ""
		},
	}
}

func ruleAccountType() Rule {
	return Rule{
		Name:     "valid-account-type",
		Field:    "account_type",
		Severity: models.SeverityBlocking,
		Check: func(payload map[string]string) (bool, string) {
			raw := payload["account_type"]
			if raw == "" {
				return true, ""
			}
			if raw != "checking" && raw != "savings" {
				return false, "account type must be checking or savings"
			}
			return true, ""
		},
	}
}

func ruleAcknowledged() Rule {
	return Rule{
		Name:     "policy-acknowledged",
		Field:    "acknowledged",
		Severity: models.SeverityBlocking,
		Check: func(payload map[string]string) (bool, string) {
			raw := payload["acknowledged"]
			if raw == "" {
				return true, ""
			}
			if raw != "true" {
				return false, "the policy must be explicitly acknowledged"
			}
			return true, ""
		},
	}
}
