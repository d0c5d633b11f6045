package services

// Event kinds emitted by workflow transitions. Each kind maps to a
// notification template in the dispatcher.
const (
	EventDocumentSubmitted       = "document.submitted"
	EventDocumentSubmitConfirmed = "document.submit_confirmed"
	EventDocumentStageAdvanced   = "document.stage_advanced"
	EventDocumentApproved        = "document.approved"
	EventDocumentRejected        = "document.rejected"
	EventDocumentUpdateRequest   = "document.update_requested"
	EventDocumentDeleted         = "document.deleted"

	EventPatrolSubmitted         = "patrol.submitted"
	EventPatrolSubmitConfirmed   = "patrol.submit_confirmed"
	EventPatrolStageAdvanced     = "patrol.stage_advanced"
	EventPatrolApproved          = "patrol.approved"
	EventPatrolActionAssigned    = "patrol.action_assigned"
	EventPatrolRejected          = "patrol.rejected"
	EventPatrolFeedbackSubmitted = "patrol.feedback_submitted"
	EventPatrolFeedbackPending   = "patrol.feedback_pending"
	EventPatrolFeedbackRework    = "patrol.feedback_rework"
	EventPatrolFeedbackRejected  = "patrol.feedback_rejected"
	EventPatrolDone              = "patrol.done"
	EventPatrolDeleted           = "patrol.deleted"
)

// Reference types stored on notification rows.
const (
	RefTypeDocument = "document"
	RefTypePatrol   = "safety_patrol"
)

// Event is a single recipient-scoped workflow event. Transitions collect
// events while their transaction is open; the dispatcher consumes them
// only after the transaction commits, so a recipient is never notified of
// a state change that rolled back.
type Event struct {
	Kind      string
	Recipient int
	RefType   string
	RefID     int
	Subject   string // entity title or short description
	Detail    string // comments, deadline or other per-kind detail
}

// Notifier consumes committed workflow events. Delivery is best effort:
// implementations log failures and never return them into the workflow.
type Notifier interface {
	Dispatch(events []Event)
}

type eventList struct {
	events []Event
}

func (l *eventList) add(kind string, recipient int, refType string, refID int, subject, detail string) {
	l.events = append(l.events, Event{
		Kind:      kind,
		Recipient: recipient,
		RefType:   refType,
		RefID:     refID,
		Subject:   subject,
		Detail:    detail,
	})
}
