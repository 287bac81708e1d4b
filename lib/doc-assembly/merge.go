package docassembly

import (
	"sort"

	"onboarding-backend/models"
	dbmodels "onboarding-backend/models/db"
)

// form-level defaults, the lowest rung of the merge precedence
var formDefaults = map[models.FormType]map[string]string{
	models.FormTypeW4: {
		"extra_withholding": "0",
		"exempt":            "false",
	},
	models.FormTypeStateWithholding: {
		"extra_withholding": "0",
		"exempt":            "false",
	},
	models.FormTypeDirectDeposit: {
		"account_type": "checking",
	},
}

// mergeFields combines the three value sources with the fixed precedence:
// human-entered values win, OCR output only fills fields no human has
// touched, defaults fill the rest. Every resulting field carries its
// provenance. The merge is deterministic: output order is field order.
func mergeFields(formType models.FormType, payload, ocrFields map[string]string) (map[string]string, dbmodels.ProvenanceList) {
	merged := make(map[string]string, len(payload)+len(ocrFields))
	source := make(map[string]models.FieldSource, len(payload)+len(ocrFields))

	for field, value := range formDefaults[formType] {
		merged[field] = value
		source[field] = models.SourceDefault
	}
	for field, value := range ocrFields {
		if value == "" {
			continue
		}
		merged[field] = value
		source[field] = models.SourceOCR
	}
	// human values last: OCR must never override what a person entered
	for field, value := range payload {
		if value == "" {
			continue
		}
		merged[field] = value
		source[field] = models.SourceHuman
	}

	fields := make([]string, 0, len(merged))
	for field := range merged {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	provenance := make(dbmodels.ProvenanceList, 0, len(fields))
	for _, field := range fields {
		provenance = append(provenance, dbmodels.FieldProvenance{
			Field:  field,
			Value:  merged[field],
			Source: source[field],
		})
	}
	return merged, provenance
}
