package docassembly

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"onboarding-backend/models"
	dbmodels "onboarding-backend/models/db"
)

func TestMergeFields(t *testing.T) {
	t.Run(`human value always wins over ocr`, func(t *testing.T) {
		payload := map[string]string{"first_name": "Jordan"}
		ocrFields := map[string]string{"first_name": "J0rdan", "last_name": "Reyes"}
		merged, provenance := mergeFields(models.FormTypePersonalData, payload, ocrFields)
		require.Equal(t, "Jordan", merged["first_name"])
		require.Equal(t, "Reyes", merged["last_name"])

		sources := map[string]models.FieldSource{}
		for _, p := range provenance {
			sources[p.Field] = p.Source
		}
		require.Equal(t, models.SourceHuman, sources["first_name"])
		require.Equal(t, models.SourceOCR, sources["last_name"])
	})

	t.Run(`defaults only fill untouched fields`, func(t *testing.T) {
		payload := map[string]string{"extra_withholding": "25"}
		merged, provenance := mergeFields(models.FormTypeW4, payload, nil)
		require.Equal(t, "25", merged["extra_withholding"])
		require.Equal(t, "false", merged["exempt"])

		sources := map[string]models.FieldSource{}
		for _, p := range provenance {
			sources[p.Field] = p.Source
		}
		require.Equal(t, models.SourceHuman, sources["extra_withholding"])
		require.Equal(t, models.SourceDefault, sources["exempt"])
	})

	t.Run(`empty ocr values never land`, func(t *testing.T) {
		merged, _ := mergeFields(models.FormTypePersonalData, nil, map[string]string{"ssn": ""})
		_, exist := merged["ssn"]
		require.False(t, exist)
	})

	t.Run(`merge is deterministic`, func(t *testing.T) {
		payload := map[string]string{"b": "2", "a": "1", "c": "3"}
		_, first := mergeFields(models.FormTypePersonalData, payload, nil)
		_, second := mergeFields(models.FormTypePersonalData, payload, nil)
		require.Equal(t, first, second)
		require.Equal(t, "a", first[0].Field)
	})
}

func TestSignatureCoordinates(t *testing.T) {
	t.Run(`both roles resolve through the same table`, func(t *testing.T) {
		employee, exist := PlacementFor(models.FormTypeI9, models.SignerEmployee)
		require.True(t, exist)
		manager, exist := PlacementFor(models.FormTypeI9, models.SignerManager)
		require.True(t, exist)
		// same page, manager slot below the employee slot
		require.Equal(t, employee.Page, manager.Page)
		require.Greater(t, manager.Y, employee.Y)
	})

	t.Run(`employee embeds before manager`, func(t *testing.T) {
		roles := RequiredSigners(models.FormTypeI9)
		require.Equal(t, []models.SignerRole{models.SignerEmployee, models.SignerManager}, roles)
	})

	t.Run(`only the i9 needs a manager signature`, func(t *testing.T) {
		for _, formType := range []models.FormType{
			models.FormTypeW4,
			models.FormTypeStateWithholding,
			models.FormTypeDirectDeposit,
			models.FormTypePolicyAck,
		} {
			require.Equal(t, []models.SignerRole{models.SignerEmployee}, RequiredSigners(formType))
		}
		require.Empty(t, RequiredSigners(models.FormTypePersonalData))
	})
}

func signatureRec(id string, role models.SignerRole, capturedAt time.Time, supersededBy *string) dbmodels.DigitalSignature {
	rec := dbmodels.DigitalSignature{
		FormType:       models.FormTypeW4,
		SignerRole:     role,
		Image:          []byte{0x89, 0x50, 0x4e, 0x47},
		CapturedAt:     capturedAt,
		SupersededByID: supersededBy,
	}
	rec.ID = id
	return rec
}

func TestActiveSignatures(t *testing.T) {
	now := time.Now()

	t.Run(`missing required signature fails closed`, func(t *testing.T) {
		_, _, err := activeSignatures(models.FormTypeW4, nil)
		require.ErrorIs(t, err, models.ErrMissingSignature)
	})

	t.Run(`superseded signature does not count`, func(t *testing.T) {
		successor := "sig-2"
		_, _, err := activeSignatures(models.FormTypeW4, []dbmodels.DigitalSignature{
			signatureRec("sig-1", models.SignerEmployee, now, &successor),
		})
		require.ErrorIs(t, err, models.ErrMissingSignature)
	})

	t.Run(`re-sign resolves to the latest active record`, func(t *testing.T) {
		successor := "sig-2"
		byRole, ids, err := activeSignatures(models.FormTypeW4, []dbmodels.DigitalSignature{
			signatureRec("sig-1", models.SignerEmployee, now.Add(-time.Hour), &successor),
			signatureRec("sig-2", models.SignerEmployee, now, nil),
		})
		require.Nil(t, err)
		require.Equal(t, []string{"sig-2"}, ids)
		require.NotEmpty(t, byRole[models.SignerEmployee])
	})
}
