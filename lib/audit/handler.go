package audit

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"onboarding-backend/db"
	auditstore "onboarding-backend/lib/audit/store"
	dbmodels "onboarding-backend/models/db"
)

// Provider is the read side of the audit trail. Appends happen inside
// the mutating transactions through auditstore directly; there is no
// write path here.
type Provider interface {
	List(sessionID string) ([]dbmodels.AuditEntry, error)
	ExportXLSX(sessionID string) ([]byte, error)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		store: auditstore.NewInstance(db.DB),
	}
}

type impl struct {
	store auditstore.Provider
}

func (i impl) List(sessionID string) ([]dbmodels.AuditEntry, error) {
	list, err := i.store.List(sessionID)
	if err != nil {
		log.WithField("session_id", sessionID).
			WithError(err).
			Error("audit trail read failed")
		return nil, err
	}
	return list, nil
}

var exportHeader = []string{"#", "Timestamp", "Actor", "Role", "Action", "Phase before", "Phase after", "Details"}

// ExportXLSX renders the full ordered history as a spreadsheet for
// compliance review.
func (i impl) ExportXLSX(sessionID string) ([]byte, error) {
	list, err := i.List(sessionID)
	if err != nil {
		return nil, err
	}
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for col, name := range exportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err = f.SetCellValue(sheet, cell, name); err != nil {
			return nil, errors.Wrap(err, "xlsx header write failed")
		}
	}
	for row, entry := range list {
		values := []any{
			entry.Seq,
			entry.CreatedAt.Format("2006-01-02 15:04:05"),
			entry.Actor,
			string(entry.ActorRole),
			string(entry.Action),
			entry.Before.ToHuman(),
			entry.After.ToHuman(),
			changesText(entry.Changes),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			if err = f.SetCellValue(sheet, cell, value); err != nil {
				return nil, errors.Wrap(err, "xlsx row write failed")
			}
		}
	}
	buf := new(bytes.Buffer)
	if err = f.Write(buf); err != nil {
		return nil, errors.Wrap(err, "xlsx output failed")
	}
	return buf.Bytes(), nil
}

func changesText(changes dbmodels.EntityChanges) string {
	text := changes.Description
	for _, change := range changes.Data {
		text += fmt.Sprintf(" [%s: %v -> %v]", change.Field, change.OldValue, change.NewValue)
	}
	return text
}
