package dbmodels

import (
	"database/sql/driver"
	"encoding/json"

	"onboarding-backend/models"
)

// FormPayload is one form's field values as submitted. Stored as jsonb.
type FormPayload map[string]string

func (j FormPayload) Value() (driver.Value, error) {
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *FormPayload) Scan(value any) error {
	if err := json.Unmarshal(value.([]byte), &j); err != nil {
		return err
	}
	return nil
}

// StepPayloads keeps every completed step's payload on the session row.
type StepPayloads map[string]FormPayload

func (j StepPayloads) Value() (driver.Value, error) {
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *StepPayloads) Scan(value any) error {
	if err := json.Unmarshal(value.([]byte), &j); err != nil {
		return err
	}
	return nil
}

// StepHashes keeps the sha256 of each step's payload, the idempotency key
// for repeated complete-step calls.
type StepHashes map[string]string

func (j StepHashes) Value() (driver.Value, error) {
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *StepHashes) Scan(value any) error {
	if err := json.Unmarshal(value.([]byte), &j); err != nil {
		return err
	}
	return nil
}

type EntityChanges struct {
	Description string         `json:"description"`
	Data        []FieldChanges `json:"data"`
}

type FieldChanges struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
}

func (j EntityChanges) Value() (driver.Value, error) {
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *EntityChanges) Scan(value any) error {
	if err := json.Unmarshal(value.([]byte), &j); err != nil {
		return err
	}
	return nil
}

// FieldProvenance records which source produced a field's final value
// in an assembled document.
type FieldProvenance struct {
	Field  string             `json:"field"`
	Value  string             `json:"value"`
	Source models.FieldSource `json:"source"`
}

type ProvenanceList []FieldProvenance

func (j ProvenanceList) Value() (driver.Value, error) {
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *ProvenanceList) Scan(value any) error {
	if err := json.Unmarshal(value.([]byte), &j); err != nil {
		return err
	}
	return nil
}
