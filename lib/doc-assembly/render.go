package docassembly

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"onboarding-backend/models"
)

// renderPDF draws the merged field values and embeds every signature
// image at its place from the shared coordinate table.
// Signatures are passed per role and are expected to be PNG bytes.
func renderPDF(formType models.FormType, fields map[string]string, signatures map[models.SignerRole][]byte) (pdfFile []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("renderPDF panic recover: %v", r)
		}
	}()
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, formType.ToHuman(), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	pdf.SetFont("Helvetica", "", 11)
	for _, name := range names {
		label := strings.ReplaceAll(name, "_", " ")
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(60, 7, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(0, 7, fields[name], "", 1, "L", false, 0, "")
	}
	if pdf.Error() != nil {
		return nil, pdf.Error()
	}

	for _, role := range RequiredSigners(formType) {
		image, exist := signatures[role]
		if !exist {
			return nil, models.ErrMissingSignature
		}
		placement, _ := PlacementFor(formType, role)
		for pdf.PageCount() < placement.Page {
			pdf.AddPage()
		}
		pdf.SetPage(placement.Page)
		imageName := fmt.Sprintf("signature-%s", role)
		options := fpdf.ImageOptions{ImageType: "png"}
		pdf.RegisterImageOptionsReader(imageName, options, bytes.NewReader(image))
		if pdf.Error() != nil {
			return nil, pdf.Error()
		}
		pdf.ImageOptions(imageName, placement.X, placement.Y, placement.Width, 0, false, options, 0, "")
		pdf.SetXY(placement.X, placement.Y+22)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(placement.Width, 5, fmt.Sprintf("%s signature", role), "T", 1, "C", false, 0, "")
	}

	buf := new(bytes.Buffer)
	err = pdf.Output(buf)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
