package models

import (
	"time"
)

// Safety patrol statuses
const (
	PatrolStatusPendingSuperAdmin       = "pending_super_admin"
	PatrolStatusPendingManager          = "pending_manager"
	PatrolStatusPendingAction           = "pending_action"
	PatrolStatusActionInProgress        = "action_in_progress"
	PatrolStatusPendingFeedbackApproval = "pending_feedback_approval"
	PatrolStatusDone                    = "done"
	PatrolStatusRejected                = "rejected"
)

// Safety patrol finding types
const (
	PatrolTypeUnsafeCondition = "unsafe_condition"
	PatrolTypeUnsafeAction    = "unsafe_action"
)

type SafetyPatrol struct {
	PatrolID    int        `gorm:"primaryKey;column:patrol_id" json:"patrol_id"`
	ReporterID  int        `gorm:"column:reporter_id" json:"reporter_id"`
	ManagerID   int        `gorm:"column:manager_id" json:"manager_id"`
	ReportDate  time.Time  `gorm:"column:report_date" json:"report_date"`
	ImageID     int        `gorm:"column:image_id" json:"image_id"`
	PatrolType  string     `gorm:"column:patrol_type" json:"patrol_type"`
	Description string     `gorm:"column:description" json:"description"`
	Location    string     `gorm:"column:location" json:"location"`
	Status      string     `gorm:"column:status" json:"status"`
	Version     int        `gorm:"column:version" json:"version"`
	CreateAt    *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt    *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt    *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Reporter  *User                  `gorm:"foreignKey:ReporterID" json:"reporter,omitempty"`
	Manager   *User                  `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Image     *FileUpload            `gorm:"foreignKey:ImageID" json:"image,omitempty"`
	Approvals []SafetyPatrolApproval `gorm:"foreignKey:PatrolID" json:"approvals,omitempty"`
	Action    *SafetyPatrolAction    `gorm:"foreignKey:PatrolID" json:"action,omitempty"`
	Feedbacks []SafetyPatrolFeedback `gorm:"foreignKey:PatrolID" json:"feedbacks,omitempty"`
}

type SafetyPatrolApproval struct {
	ApprovalID int        `gorm:"primaryKey;column:approval_id" json:"approval_id"`
	PatrolID   int        `gorm:"column:patrol_id" json:"patrol_id"`
	ApproverID int        `gorm:"column:approver_id" json:"approver_id"`
	Stage      string     `gorm:"column:stage" json:"stage"`
	Status     string     `gorm:"column:status" json:"status"`
	Comments   *string    `gorm:"column:comments" json:"comments,omitempty"`
	ApprovedAt *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`
	CreateAt   *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt   *time.Time `gorm:"column:update_at" json:"update_at"`

	Approver *User `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
}

// SafetyPatrolAction assigns remediation of a finding: who must fix it, by
// when. At most one per patrol, created when the manager approves.
type SafetyPatrolAction struct {
	ActionID  int        `gorm:"primaryKey;column:action_id" json:"action_id"`
	PatrolID  int        `gorm:"column:patrol_id;unique" json:"patrol_id"`
	ActorID   int        `gorm:"column:actor_id" json:"actor_id"`
	Deadline  time.Time  `gorm:"column:deadline" json:"deadline"`
	StartedAt *time.Time `gorm:"column:started_at" json:"started_at,omitempty"`
	CreateAt  *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt  *time.Time `gorm:"column:update_at" json:"update_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

// SafetyPatrolFeedback is remediation evidence from the assigned actor.
// Rejection and resubmission create new rows; old ones stay as history.
type SafetyPatrolFeedback struct {
	FeedbackID   int        `gorm:"primaryKey;column:feedback_id" json:"feedback_id"`
	PatrolID     int        `gorm:"column:patrol_id" json:"patrol_id"`
	ActorID      int        `gorm:"column:actor_id" json:"actor_id"`
	FeedbackDate time.Time  `gorm:"column:feedback_date" json:"feedback_date"`
	ImageID      int        `gorm:"column:image_id" json:"image_id"`
	Description  string     `gorm:"column:description" json:"description"`
	Status       string     `gorm:"column:status" json:"status"`
	CreateAt     *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at"`

	Actor     *User                          `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Image     *FileUpload                    `gorm:"foreignKey:ImageID" json:"image,omitempty"`
	Approvals []SafetyPatrolFeedbackApproval `gorm:"foreignKey:FeedbackID" json:"approvals,omitempty"`
}

// SafetyPatrolFeedbackApproval gates patrol completion. One row per
// approver; the approver set is all super admins plus the patrol's
// manager, snapshotted when the feedback is submitted.
type SafetyPatrolFeedbackApproval struct {
	ApprovalID int        `gorm:"primaryKey;column:approval_id" json:"approval_id"`
	FeedbackID int        `gorm:"column:feedback_id" json:"feedback_id"`
	ApproverID int        `gorm:"column:approver_id" json:"approver_id"`
	Status     string     `gorm:"column:status" json:"status"`
	Comments   *string    `gorm:"column:comments" json:"comments,omitempty"`
	ApprovedAt *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`
	CreateAt   *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt   *time.Time `gorm:"column:update_at" json:"update_at"`

	Approver *User `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
}

// TableName overrides
func (SafetyPatrol) TableName() string {
	return "safety_patrols"
}

func (SafetyPatrolApproval) TableName() string {
	return "safety_patrol_approvals"
}

func (SafetyPatrolAction) TableName() string {
	return "safety_patrol_actions"
}

func (SafetyPatrolFeedback) TableName() string {
	return "safety_patrol_feedbacks"
}

func (SafetyPatrolFeedbackApproval) TableName() string {
	return "safety_patrol_feedback_approvals"
}
