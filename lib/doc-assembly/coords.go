package docassembly

import (
	"onboarding-backend/models"
)

// SignaturePlacement is a position in the document's coordinate space:
// fpdf convention, origin at the top-left of the page, millimeters.
type SignaturePlacement struct {
	Page   int
	X      float64
	Y      float64
	Width  float64
}

// signatureCoordinates is THE coordinate table. Every embedding call,
// whichever party's signature is being placed, resolves through this one
// table with the one origin convention above. Do not introduce a second
// table or a second origin anywhere.
var signatureCoordinates = map[models.FormType]map[models.SignerRole]SignaturePlacement{
	models.FormTypeW4: {
		models.SignerEmployee: {Page: 1, X: 25, Y: 240, Width: 60},
	},
	models.FormTypeStateWithholding: {
		models.SignerEmployee: {Page: 1, X: 25, Y: 240, Width: 60},
	},
	models.FormTypeI9: {
		models.SignerEmployee: {Page: 1, X: 25, Y: 215, Width: 60},
		models.SignerManager:  {Page: 1, X: 25, Y: 255, Width: 60},
	},
	models.FormTypeDirectDeposit: {
		models.SignerEmployee: {Page: 1, X: 25, Y: 200, Width: 60},
	},
	models.FormTypePolicyAck: {
		models.SignerEmployee: {Page: 1, X: 25, Y: 180, Width: 60},
	},
	models.FormTypePersonalData: {},
}

// RequiredSigners lists the roles whose signatures must be present
// before a document of this form type may be assembled.
func RequiredSigners(formType models.FormType) []models.SignerRole {
	roles := make([]models.SignerRole, 0, 2)
	// employee always before manager, fixed embed order
	if _, exist := signatureCoordinates[formType][models.SignerEmployee]; exist {
		roles = append(roles, models.SignerEmployee)
	}
	if _, exist := signatureCoordinates[formType][models.SignerManager]; exist {
		roles = append(roles, models.SignerManager)
	}
	return roles
}

// PlacementFor resolves the single coordinate table for any signer role.
func PlacementFor(formType models.FormType, role models.SignerRole) (SignaturePlacement, bool) {
	placement, exist := signatureCoordinates[formType][role]
	return placement, exist
}
