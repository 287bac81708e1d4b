package notification

import (
	log "github.com/sirupsen/logrus"

	"onboarding-backend/config"
	"onboarding-backend/lib/smtp"
)

type EventType string

const (
	EventSessionInitiated   EventType = "session_initiated"
	EventReadyForManager    EventType = "ready_for_manager_review"
	EventReadyForHR         EventType = "ready_for_hr_review"
	EventSessionApproved    EventType = "session_approved"
	EventSessionRejected    EventType = "session_rejected"
	EventFormUpdateLink     EventType = "form_update_link"
	EventFormUpdateSaved    EventType = "form_update_saved"
	EventManagerDeadlineHit EventType = "manager_deadline_missed"
)

var eventSubject = map[EventType]string{
	EventSessionInitiated:   "Your onboarding has started",
	EventReadyForManager:    "Onboarding forms are ready for your review",
	EventReadyForHR:         "Onboarding packet is ready for HR approval",
	EventSessionApproved:    "Onboarding approved",
	EventSessionRejected:    "Onboarding rejected",
	EventFormUpdateLink:     "Form update link",
	EventFormUpdateSaved:    "Form update submitted",
	EventManagerDeadlineHit: "Manager verification deadline missed",
}

// Provider is the fire-and-forget notification collaborator.
// Delivery failures are logged and never propagated to callers.
type Provider interface {
	Notify(event EventType, recipient, message string)
}

var Instance Provider

func NewHandler() {
	Instance = impl{
		smtpProvider: smtp.Instance,
		emailFrom:    config.Conf.Smtp.EmailFrom,
	}
}

type impl struct {
	smtpProvider smtp.Provider
	emailFrom    string
}

func (i impl) Notify(event EventType, recipient, message string) {
	logger := log.
		WithField("event", event).
		WithField("recipient", recipient)
	if recipient == "" {
		logger.Warn("notification skipped, recipient is empty")
		return
	}
	subject, exist := eventSubject[event]
	if !exist {
		subject = string(event)
	}
	err := i.smtpProvider.SendEMail(i.emailFrom, recipient, message, subject)
	if err != nil {
		logger.WithError(err).Error("notification delivery failed")
		return
	}
	logger.Info("notification sent")
}
