package services

import (
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"safety-compliance-api/config"
	"safety-compliance-api/models"
)

type notificationTemplate struct {
	Title   string
	Message string // {subject} and {detail} are substituted per event
	Type    string
}

var notificationTemplates = map[string]notificationTemplate{
	EventDocumentSubmitted: {
		Title:   "New document awaiting approval",
		Message: "Document \"{subject}\" was submitted and requires your approval.",
		Type:    "info",
	},
	EventDocumentSubmitConfirmed: {
		Title:   "Document submitted",
		Message: "Your document \"{subject}\" was submitted and is awaiting super admin approval.",
		Type:    "info",
	},
	EventDocumentStageAdvanced: {
		Title:   "Document advanced to manager review",
		Message: "Document \"{subject}\" passed super admin review.",
		Type:    "info",
	},
	EventDocumentApproved: {
		Title:   "Document approved",
		Message: "Document \"{subject}\" has been fully approved.",
		Type:    "success",
	},
	EventDocumentRejected: {
		Title:   "Document rejected",
		Message: "Document \"{subject}\" was rejected: {detail}",
		Type:    "error",
	},
	EventDocumentUpdateRequest: {
		Title:   "Update requested on your document",
		Message: "A manager requested changes on \"{subject}\": {detail}",
		Type:    "warning",
	},
	EventDocumentDeleted: {
		Title:   "Document deleted",
		Message: "Document \"{subject}\" was deleted.",
		Type:    "warning",
	},
	EventPatrolSubmitted: {
		Title:   "New safety patrol report",
		Message: "A safety patrol finding at {subject} requires your approval.",
		Type:    "info",
	},
	EventPatrolSubmitConfirmed: {
		Title:   "Safety patrol report submitted",
		Message: "Your safety patrol report for {subject} was submitted and is awaiting super admin approval.",
		Type:    "info",
	},
	EventPatrolStageAdvanced: {
		Title:   "Safety patrol advanced to manager review",
		Message: "The safety patrol finding at {subject} passed super admin review.",
		Type:    "info",
	},
	EventPatrolApproved: {
		Title:   "Safety patrol approved",
		Message: "The safety patrol finding at {subject} was approved and a remediation action has been assigned.",
		Type:    "success",
	},
	EventPatrolActionAssigned: {
		Title:   "Remediation action assigned",
		Message: "You must remediate the finding at {subject} by {detail}.",
		Type:    "warning",
	},
	EventPatrolRejected: {
		Title:   "Safety patrol rejected",
		Message: "The safety patrol finding at {subject} was rejected: {detail}",
		Type:    "error",
	},
	EventPatrolFeedbackSubmitted: {
		Title:   "Remediation feedback submitted",
		Message: "Remediation evidence was submitted for the finding at {subject}.",
		Type:    "info",
	},
	EventPatrolFeedbackPending: {
		Title:   "Remediation feedback awaiting approval",
		Message: "Remediation evidence for the finding at {subject} requires your approval.",
		Type:    "info",
	},
	EventPatrolFeedbackRework: {
		Title:   "Remediation feedback rejected",
		Message: "Your remediation evidence for {subject} was rejected and must be resubmitted: {detail}",
		Type:    "error",
	},
	EventPatrolFeedbackRejected: {
		Title:   "Remediation feedback rejected",
		Message: "The remediation evidence for {subject} was rejected; remediation continues: {detail}",
		Type:    "warning",
	},
	EventPatrolDone: {
		Title:   "Safety patrol completed",
		Message: "The safety patrol finding at {subject} is fully remediated and closed.",
		Type:    "success",
	},
	EventPatrolDeleted: {
		Title:   "Safety patrol deleted",
		Message: "The safety patrol finding at {subject} was deleted by an administrator.",
		Type:    "warning",
	},
}

// NotificationService turns committed workflow events into in-app
// notification rows plus a best-effort email per recipient. It is invoked
// outside the workflow transaction; any failure here is logged and
// swallowed, never propagated into the transition result.
type NotificationService struct {
	db        *gorm.DB
	sendMail  func(to []string, subject, html string) error
	emailSend bool
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	if db == nil {
		db = config.DB
	}
	return &NotificationService{
		db:        db,
		sendMail:  config.SendMail,
		emailSend: config.MailConfigured(),
	}
}

func (s *NotificationService) Dispatch(events []Event) {
	for _, ev := range events {
		tmpl, ok := notificationTemplates[ev.Kind]
		if !ok {
			log.Printf("notification: no template for event %q, skipping", ev.Kind)
			continue
		}

		message := strings.ReplaceAll(tmpl.Message, "{subject}", ev.Subject)
		message = strings.ReplaceAll(message, "{detail}", ev.Detail)

		refType := ev.RefType
		refID := uint(ev.RefID)
		row := models.Notification{
			UserID:        uint(ev.Recipient),
			Title:         tmpl.Title,
			Message:       message,
			Type:          tmpl.Type,
			ReferenceType: &refType,
			ReferenceID:   &refID,
			IsRead:        false,
			CreateAt:      time.Now(),
		}
		if err := s.db.Create(&row).Error; err != nil {
			log.Printf("notification: failed to store %s for user %d: %v", ev.Kind, ev.Recipient, err)
			continue
		}

		if s.emailSend {
			s.pushEmail(ev.Recipient, tmpl.Title, message)
		}
	}
}

func (s *NotificationService) pushEmail(userID int, subject, body string) {
	var user models.User
	if err := s.db.Select("email").Where("user_id = ? AND delete_at IS NULL", userID).
		First(&user).Error; err != nil {
		log.Printf("notification: no recipient email for user %d: %v", userID, err)
		return
	}
	if user.Email == "" {
		return
	}

	html := "<p>" + body + "</p>"
	if err := s.sendMail([]string{user.Email}, subject, html); err != nil {
		log.Printf("notification: mail to user %d failed: %v", userID, err)
	}
}
