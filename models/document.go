package models

import (
	"time"
)

// Document statuses
const (
	DocStatusPendingSuperAdmin = "pending_super_admin"
	DocStatusPendingManager    = "pending_manager"
	DocStatusApproved          = "approved"
	DocStatusRejected          = "rejected"
	DocStatusDeleted           = "deleted"
)

// Approval row statuses (shared with safety patrol approvals)
const (
	ApprovalStatusPending  = "pending"
	ApprovalStatusApproved = "approved"
	ApprovalStatusRejected = "rejected"
	ApprovalStatusDeleted  = "deleted"
)

// Approval stages
const (
	StageSuperAdmin = "super_admin"
	StageManager    = "manager"
)

type Document struct {
	DocumentID  int        `gorm:"primaryKey;column:document_id" json:"document_id"`
	OwnerID     int        `gorm:"column:owner_id" json:"owner_id"`
	ManagerID   int        `gorm:"column:manager_id" json:"manager_id"`
	CategoryID  int        `gorm:"column:category_id" json:"category_id"`
	FileID      int        `gorm:"column:file_id" json:"file_id"`
	Title       string     `gorm:"column:title" json:"title"`
	Description string     `gorm:"column:description" json:"description"`
	Status      string     `gorm:"column:status" json:"status"`
	Version     int        `gorm:"column:version" json:"version"`
	CreateAt    *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt    *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt    *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Owner     *User              `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Manager   *User              `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
	Category  *DocumentCategory  `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	File      *FileUpload        `gorm:"foreignKey:FileID" json:"file,omitempty"`
	Approvals []DocumentApproval `gorm:"foreignKey:DocumentID" json:"approvals,omitempty"`
}

// DocumentApproval is one approver's pending/decided vote on a document.
// One row is seeded per super admin at submission; a single manager row is
// seeded once the super admin stage is satisfied. Rows from completed
// stages are kept as history.
type DocumentApproval struct {
	ApprovalID int        `gorm:"primaryKey;column:approval_id" json:"approval_id"`
	DocumentID int        `gorm:"column:document_id" json:"document_id"`
	ApproverID int        `gorm:"column:approver_id" json:"approver_id"`
	Stage      string     `gorm:"column:stage" json:"stage"`
	Status     string     `gorm:"column:status" json:"status"`
	Comments   *string    `gorm:"column:comments" json:"comments,omitempty"`
	ApprovedAt *time.Time `gorm:"column:approved_at" json:"approved_at,omitempty"`
	CreateAt   *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt   *time.Time `gorm:"column:update_at" json:"update_at"`

	Approver *User `gorm:"foreignKey:ApproverID" json:"approver,omitempty"`
}

// DocumentUpdateRequest is a manager's side-channel request for changes.
// It does not move the document's status; approvals proceed untouched.
type DocumentUpdateRequest struct {
	RequestID  int        `gorm:"primaryKey;column:request_id" json:"request_id"`
	DocumentID int        `gorm:"column:document_id" json:"document_id"`
	ManagerID  int        `gorm:"column:manager_id" json:"manager_id"`
	Comments   string     `gorm:"column:comments" json:"comments"`
	CreateAt   *time.Time `gorm:"column:create_at" json:"create_at"`

	Manager *User `gorm:"foreignKey:ManagerID" json:"manager,omitempty"`
}

type DocumentCategory struct {
	CategoryID   int        `gorm:"primaryKey;column:category_id" json:"category_id"`
	CategoryName string     `gorm:"column:category_name" json:"category_name"`
	CreateAt     *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName overrides
func (Document) TableName() string {
	return "documents"
}

func (DocumentApproval) TableName() string {
	return "document_approvals"
}

func (DocumentUpdateRequest) TableName() string {
	return "document_update_requests"
}

func (DocumentCategory) TableName() string {
	return "document_categories"
}
