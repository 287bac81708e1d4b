package compliance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"onboarding-backend/models"
)

func dob(yearsAgo int) string {
	return time.Now().AddDate(-yearsAgo, 0, -1).Format(dateLayout)
}

func validPersonalData() map[string]string {
	return map[string]string{
		"first_name":    "Jordan",
		"last_name":     "Reyes",
		"date_of_birth": dob(30),
		"ssn":           "123-45-6789",
		"address":       "12 Main St",
		"email":         "jordan.reyes@example.com",
		"phone":         "555-0100",
	}
}

func hasViolation(violations []models.RuleViolation, rule string) bool {
	for _, v := range violations {
		if v.Rule == rule {
			return true
		}
	}
	return false
}

func TestValidate(t *testing.T) {
	t.Run(`valid personal data passes`, func(t *testing.T) {
		check := Validate(models.FormTypePersonalData, validPersonalData())
		require.True(t, check.Passed)
		require.Empty(t, check.Violations)
		require.Nil(t, check.AsError())
	})

	t.Run(`missing required field blocks`, func(t *testing.T) {
		payload := validPersonalData()
		delete(payload, "ssn")
		check := Validate(models.FormTypePersonalData, payload)
		require.False(t, check.Passed)
		require.True(t, hasViolation(check.Violations, "required-field"))
		err := check.AsError()
		require.NotNil(t, err)
		ruleErr, ok := models.AsComplianceError(err)
		require.True(t, ok)
		require.Equal(t, models.FormTypePersonalData, ruleErr.FormType)
	})

	t.Run(`13 year old blocked, 16 year old allowed`, func(t *testing.T) {
		payload := validPersonalData()
		payload["date_of_birth"] = dob(13)
		check := Validate(models.FormTypePersonalData, payload)
		require.False(t, check.Passed)
		require.True(t, hasViolation(check.Violations, "legal-minimum-age"))

		payload["date_of_birth"] = dob(16)
		check = Validate(models.FormTypePersonalData, payload)
		require.True(t, check.Passed)
	})

	t.Run(`malformed ssn blocked`, func(t *testing.T) {
		payload := validPersonalData()
		payload["ssn"] = "123456789"
		check := Validate(models.FormTypePersonalData, payload)
		require.False(t, check.Passed)
		require.True(t, hasViolation(check.Violations, "valid-ssn-format"))
	})

	t.Run(`missing phone warns but does not block`, func(t *testing.T) {
		payload := validPersonalData()
		delete(payload, "phone")
		check := Validate(models.FormTypePersonalData, payload)
		require.True(t, check.Passed)
		require.Nil(t, check.AsError())
		require.True(t, hasViolation(check.Warnings, "phone-recommended"))
	})

	t.Run(`exempt plus extra withholding conflict`, func(t *testing.T) {
		payload := map[string]string{
			"first_name":        "Jordan",
			"last_name":         "Reyes",
			"ssn":               "123-45-6789",
			"filing_status":     "single",
			"exempt":            "true",
			"extra_withholding": "50",
		}
		check := Validate(models.FormTypeW4, payload)
		require.False(t, check.Passed)
		require.True(t, hasViolation(check.Violations, "exempt-withholding-conflict"))

		payload["extra_withholding"] = "0"
		check = Validate(models.FormTypeW4, payload)
		require.True(t, check.Passed)
	})

	t.Run(`unknown filing status blocked`, func(t *testing.T) {
		payload := map[string]string{
			"first_name":    "Jordan",
			"last_name":     "Reyes",
			"ssn":           "123-45-6789",
			"filing_status": "widowed",
		}
		check := Validate(models.FormTypeW4, payload)
		require.False(t, check.Passed)
		require.True(t, hasViolation(check.Violations, "valid-filing-status"))
	})

	t.Run(`i9 document lists`, func(t *testing.T) {
		base := map[string]string{
			"first_name":         "Jordan",
			"last_name":          "Reyes",
			"date_of_birth":      dob(30),
			"citizenship_status": "citizen",
			"attestation_date":   time.Now().Format(dateLayout),
		}
		payload := map[string]string{}
		for k, v := range base {
			payload[k] = v
		}
		payload["list_a_document"] = "US Passport"
		check := Validate(models.FormTypeI9, payload)
		require.True(t, check.Passed)

		// list A plus list B is a conflict
		payload["list_b_document"] = "Driver License"
		check = Validate(models.FormTypeI9, payload)
		require.False(t, check.Passed)
		require.True(t, hasViolation(check.Violations, "identity-document-lists"))

		// list B alone is incomplete, B plus C is fine
		payload = map[string]string{}
		for k, v := range base {
			payload[k] = v
		}
		payload["list_b_document"] = "Driver License"
		check = Validate(models.FormTypeI9, payload)
		require.False(t, check.Passed)

		payload["list_c_document"] = "Social Security Card"
		check = Validate(models.FormTypeI9, payload)
		require.True(t, check.Passed)
	})

	t.Run(`expired work authorization blocked`, func(t *testing.T) {
		payload := map[string]string{
			"first_name":         "Jordan",
			"last_name":          "Reyes",
			"date_of_birth":      dob(30),
			"citizenship_status": "alien_authorized",
			"attestation_date":   time.Now().Format(dateLayout),
			"list_a_document":    "Employment Authorization Document",
			"work_auth_expiry":   time.Now().AddDate(0, -1, 0).Format(dateLayout),
		}
		check := Validate(models.FormTypeI9, payload)
		require.False(t, check.Passed)
		require.True(t, hasViolation(check.Violations, "work-authorization-not-expired"))
	})

	t.Run(`routing number checksum`, func(t *testing.T) {
		payload := map[string]string{
			"bank_name":      "First Example Bank",
			"routing_number": "021000021",
			"account_number": "123456",
			"account_type":   "checking",
		}
		check := Validate(models.FormTypeDirectDeposit, payload)
		require.True(t, check.Passed)

		payload["routing_number"] = "021000022"
		check = Validate(models.FormTypeDirectDeposit, payload)
		require.False(t, check.Passed)
		require.True(t, hasViolation(check.Violations, "valid-routing-number"))
	})

	t.Run(`policy ack must be true and not future dated`, func(t *testing.T) {
		payload := map[string]string{
			"acknowledged": "false",
			"ack_date":     time.Now().Format(dateLayout),
		}
		check := Validate(models.FormTypePolicyAck, payload)
		require.False(t, check.Passed)
		require.True(t, hasViolation(check.Violations, "policy-acknowledged"))

		payload["acknowledged"] = "true"
		payload["ack_date"] = time.Now().AddDate(0, 0, 2).Format(dateLayout)
		check = Validate(models.FormTypePolicyAck, payload)
		require.False(t, check.Passed)
		require.True(t, hasViolation(check.Violations, "ack-date-not-in-future"))
	})

	t.Run(`identical payload gives identical result`, func(t *testing.T) {
		payload := validPersonalData()
		first := Validate(models.FormTypePersonalData, payload)
		second := Validate(models.FormTypePersonalData, payload)
		require.Equal(t, first, second)
	})
}

func TestValidateEmployer(t *testing.T) {
	t.Run(`valid verification passes`, func(t *testing.T) {
		payload := map[string]string{
			"document_title":    "US Passport",
			"document_number":   "900123456",
			"issuing_authority": "US Department of State",
			"verification_date": time.Now().Format(dateLayout),
			"manager_name":      "Casey Lin",
		}
		check := ValidateEmployer(models.FormTypeI9, payload)
		require.True(t, check.Passed)
	})

	t.Run(`expired identity document blocked`, func(t *testing.T) {
		payload := map[string]string{
			"document_title":    "US Passport",
			"document_number":   "900123456",
			"issuing_authority": "US Department of State",
			"verification_date": time.Now().Format(dateLayout),
			"manager_name":      "Casey Lin",
			"document_expiry":   time.Now().AddDate(-1, 0, 0).Format(dateLayout),
		}
		check := ValidateEmployer(models.FormTypeI9, payload)
		require.False(t, check.Passed)
		require.True(t, hasViolation(check.Violations, "document-not-expired"))
	})

	t.Run(`future verification date blocked`, func(t *testing.T) {
		payload := map[string]string{
			"document_title":    "US Passport",
			"document_number":   "900123456",
			"issuing_authority": "US Department of State",
			"verification_date": time.Now().AddDate(0, 0, 3).Format(dateLayout),
			"manager_name":      "Casey Lin",
		}
		check := ValidateEmployer(models.FormTypeI9, payload)
		require.False(t, check.Passed)
		require.True(t, hasViolation(check.Violations, "verification-date-not-in-future"))
	})
}
