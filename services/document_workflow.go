package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"safety-compliance-api/config"
	"safety-compliance-api/models"
)

// DocumentWorkflowService drives the document approval chain:
// pending_super_admin -> pending_manager -> approved, with rejected
// reachable from either pending stage and deleted as a tombstone.
//
// Every transition runs in one transaction holding a row lock on the
// document, so concurrent approvers cannot double-advance a stage or
// double-seed the manager approval row. Notification events are
// dispatched only after the transaction commits.
type DocumentWorkflowService struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time
}

func NewDocumentWorkflowService(db *gorm.DB, notifier Notifier) *DocumentWorkflowService {
	if db == nil {
		db = config.DB
	}
	if notifier == nil {
		notifier = NewNotificationService(db)
	}
	return &DocumentWorkflowService{db: db, notifier: notifier, now: time.Now}
}

type SubmitDocumentInput struct {
	OwnerID     int
	CategoryID  int
	ManagerID   int
	FileID      int
	Title       string
	Description string
}

// Submit creates a document in pending_super_admin and seeds one pending
// approval row per super admin currently on the roster.
func (s *DocumentWorkflowService) Submit(in SubmitDocumentInput) (*models.Document, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, validationFailed("title is required")
	}
	if in.FileID <= 0 {
		return nil, validationFailed("file is required")
	}

	if err := s.checkManager(in.ManagerID); err != nil {
		return nil, err
	}
	if err := checkFile(s.db, in.FileID); err != nil {
		return nil, err
	}
	var category models.DocumentCategory
	if err := s.db.Where("category_id = ? AND delete_at IS NULL", in.CategoryID).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("document category", in.CategoryID)
		}
		return nil, err
	}

	admins, err := superAdminRoster(s.db, false)
	if err != nil {
		return nil, err
	}
	if len(admins) == 0 {
		return nil, fmt.Errorf("no super admins configured, cannot open approval stage")
	}

	now := s.now()
	doc := models.Document{
		OwnerID:     in.OwnerID,
		ManagerID:   in.ManagerID,
		CategoryID:  in.CategoryID,
		FileID:      in.FileID,
		Title:       in.Title,
		Description: strings.TrimSpace(in.Description),
		Status:      models.DocStatusPendingSuperAdmin,
		Version:     1,
		CreateAt:    timePtr(now),
		UpdateAt:    timePtr(now),
	}

	var events eventList
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&doc).Error; err != nil {
			return err
		}
		for _, adminID := range admins {
			approval := models.DocumentApproval{
				DocumentID: doc.DocumentID,
				ApproverID: adminID,
				Stage:      models.StageSuperAdmin,
				Status:     models.ApprovalStatusPending,
				CreateAt:   timePtr(now),
				UpdateAt:   timePtr(now),
			}
			if err := tx.Create(&approval).Error; err != nil {
				return err
			}
			events.add(EventDocumentSubmitted, adminID, RefTypeDocument, doc.DocumentID, doc.Title, "")
		}
		events.add(EventDocumentSubmitConfirmed, doc.OwnerID, RefTypeDocument, doc.DocumentID, doc.Title, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(events.events)
	return s.reload(doc.DocumentID)
}

// Approve records the approver's vote. A super admin vote re-evaluates
// the super admin quorum and, once every super admin has approved,
// advances the document to pending_manager and seeds the manager's
// approval row. A manager vote closes the chain: the manager stage has a
// single approver, so no quorum is involved.
func (s *DocumentWorkflowService) Approve(approverID, documentID int) (*models.Document, error) {
	approver, err := s.loadUser(approverID)
	if err != nil {
		return nil, err
	}

	var events eventList
	err = s.db.Transaction(func(tx *gorm.DB) error {
		doc, err := s.loadDocumentLocked(tx, documentID)
		if err != nil {
			return err
		}

		approval, err := s.checkDecisionAllowed(tx, approver, doc)
		if err != nil {
			return err
		}

		now := s.now()
		if err := tx.Model(&models.DocumentApproval{}).
			Where("approval_id = ?", approval.ApprovalID).
			Updates(map[string]interface{}{
				"status":      models.ApprovalStatusApproved,
				"approved_at": now,
				"update_at":   now,
			}).Error; err != nil {
			return err
		}

		if approval.Stage == models.StageManager {
			if err := s.setStatus(tx, doc, models.DocStatusApproved); err != nil {
				return err
			}
			events.add(EventDocumentApproved, doc.OwnerID, RefTypeDocument, doc.DocumentID, doc.Title, "")
			return nil
		}

		var stageRows []models.DocumentApproval
		if err := tx.Where("document_id = ? AND stage = ?", doc.DocumentID, models.StageSuperAdmin).
			Find(&stageRows).Error; err != nil {
			return err
		}
		if !documentQuorumSatisfied(stageRows) {
			return nil
		}

		if err := s.setStatus(tx, doc, models.DocStatusPendingManager); err != nil {
			return err
		}
		managerApproval := models.DocumentApproval{
			DocumentID: doc.DocumentID,
			ApproverID: doc.ManagerID,
			Stage:      models.StageManager,
			Status:     models.ApprovalStatusPending,
			CreateAt:   timePtr(now),
			UpdateAt:   timePtr(now),
		}
		if err := tx.Create(&managerApproval).Error; err != nil {
			return err
		}
		events.add(EventDocumentSubmitted, doc.ManagerID, RefTypeDocument, doc.DocumentID, doc.Title, "")
		events.add(EventDocumentStageAdvanced, doc.OwnerID, RefTypeDocument, doc.DocumentID, doc.Title, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(events.events)
	return s.reload(documentID)
}

// Reject fails the document outright: the first rejection by any
// current-stage approver wins, no quorum is consulted.
func (s *DocumentWorkflowService) Reject(approverID, documentID int, comments string) (*models.Document, error) {
	comments = strings.TrimSpace(comments)
	if comments == "" {
		return nil, validationFailed("rejection comments are required")
	}

	approver, err := s.loadUser(approverID)
	if err != nil {
		return nil, err
	}

	var events eventList
	err = s.db.Transaction(func(tx *gorm.DB) error {
		doc, err := s.loadDocumentLocked(tx, documentID)
		if err != nil {
			return err
		}

		approval, err := s.checkDecisionAllowed(tx, approver, doc)
		if err != nil {
			return err
		}

		now := s.now()
		if err := tx.Model(&models.DocumentApproval{}).
			Where("approval_id = ?", approval.ApprovalID).
			Updates(map[string]interface{}{
				"status":    models.ApprovalStatusRejected,
				"comments":  comments,
				"update_at": now,
			}).Error; err != nil {
			return err
		}

		if err := s.setStatus(tx, doc, models.DocStatusRejected); err != nil {
			return err
		}
		events.add(EventDocumentRejected, doc.OwnerID, RefTypeDocument, doc.DocumentID, doc.Title, comments)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(events.events)
	return s.reload(documentID)
}

// RequestUpdate is a side channel: the assigned manager asks the owner
// for changes without moving the document's status or blocking approvals.
func (s *DocumentWorkflowService) RequestUpdate(managerID, documentID int, comments string) (*models.DocumentUpdateRequest, error) {
	comments = strings.TrimSpace(comments)
	if comments == "" {
		return nil, validationFailed("update request comments are required")
	}

	manager, err := s.loadUser(managerID)
	if err != nil {
		return nil, err
	}

	var request models.DocumentUpdateRequest
	var events eventList
	err = s.db.Transaction(func(tx *gorm.DB) error {
		doc, err := s.loadDocumentLocked(tx, documentID)
		if err != nil {
			return err
		}
		if !manager.IsManager() || doc.ManagerID != manager.UserID {
			return unauthorized("only the assigned manager can request an update")
		}

		request = models.DocumentUpdateRequest{
			DocumentID: doc.DocumentID,
			ManagerID:  manager.UserID,
			Comments:   comments,
			CreateAt:   timePtr(s.now()),
		}
		if err := tx.Create(&request).Error; err != nil {
			return err
		}
		events.add(EventDocumentUpdateRequest, doc.OwnerID, RefTypeDocument, doc.DocumentID, doc.Title, comments)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(events.events)
	return &request, nil
}

// Delete tombstones a document. Allowed for the owner and super admins.
// Pending approval rows are closed out; decided rows stay as history.
func (s *DocumentWorkflowService) Delete(actorID, documentID int) error {
	actor, err := s.loadUser(actorID)
	if err != nil {
		return err
	}

	var events eventList
	err = s.db.Transaction(func(tx *gorm.DB) error {
		doc, err := s.loadDocumentLocked(tx, documentID)
		if err != nil {
			return err
		}
		if !actor.IsSuperAdmin() && doc.OwnerID != actor.UserID {
			return unauthorized("only the owner or a super admin can delete a document")
		}

		now := s.now()
		if err := s.setStatus(tx, doc, models.DocStatusDeleted); err != nil {
			return err
		}
		if err := tx.Model(&models.Document{}).
			Where("document_id = ?", doc.DocumentID).
			Update("delete_at", now).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.DocumentApproval{}).
			Where("document_id = ? AND status = ?", doc.DocumentID, models.ApprovalStatusPending).
			Updates(map[string]interface{}{
				"status":    models.ApprovalStatusDeleted,
				"update_at": now,
			}).Error; err != nil {
			return err
		}
		if actor.UserID != doc.OwnerID {
			events.add(EventDocumentDeleted, doc.OwnerID, RefTypeDocument, doc.DocumentID, doc.Title, "")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Dispatch(events.events)
	return nil
}

// checkDecisionAllowed is the access policy for approve/reject: it
// distinguishes wrong role or relationship (Unauthorized) from right
// role at the wrong point in the chain (InvalidState), and returns the
// actor's pending approval row for the current stage.
func (s *DocumentWorkflowService) checkDecisionAllowed(tx *gorm.DB, approver *models.User, doc *models.Document) (*models.DocumentApproval, error) {
	var stage string
	switch {
	case approver.IsSuperAdmin():
		if doc.Status != models.DocStatusPendingSuperAdmin {
			return nil, invalidState("document is not awaiting super admin review (status %s)", doc.Status)
		}
		stage = models.StageSuperAdmin
	case approver.IsManager():
		if doc.ManagerID != approver.UserID {
			return nil, unauthorized("document is assigned to a different manager")
		}
		if doc.Status != models.DocStatusPendingManager {
			return nil, invalidState("document is not awaiting manager review (status %s)", doc.Status)
		}
		stage = models.StageManager
	default:
		return nil, unauthorized("role cannot decide document approvals")
	}

	var approval models.DocumentApproval
	err := tx.Where("document_id = ? AND approver_id = ? AND stage = ?",
		doc.DocumentID, approver.UserID, stage).
		First(&approval).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, unauthorized("no approval is assigned to you for this document")
	}
	if err != nil {
		return nil, err
	}
	if approval.Status != models.ApprovalStatusPending {
		return nil, invalidState("your approval is already decided (%s)", approval.Status)
	}
	return &approval, nil
}

// setStatus advances the document with an optimistic version check; a
// concurrent writer makes the update match zero rows and the transition
// fails with ConflictError instead of silently clobbering.
func (s *DocumentWorkflowService) setStatus(tx *gorm.DB, doc *models.Document, status string) error {
	res := tx.Model(&models.Document{}).
		Where("document_id = ? AND version = ?", doc.DocumentID, doc.Version).
		Updates(map[string]interface{}{
			"status":    status,
			"version":   doc.Version + 1,
			"update_at": s.now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &ConflictError{Entity: "document", ID: doc.DocumentID}
	}
	doc.Status = status
	doc.Version++
	return nil
}

func (s *DocumentWorkflowService) loadDocumentLocked(tx *gorm.DB, documentID int) (*models.Document, error) {
	var doc models.Document
	err := lockForUpdate(tx).
		Where("document_id = ? AND delete_at IS NULL", documentID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("document", documentID)
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *DocumentWorkflowService) loadUser(userID int) (*models.User, error) {
	var user models.User
	err := s.db.Where("user_id = ? AND delete_at IS NULL", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user", userID)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *DocumentWorkflowService) checkManager(managerID int) error {
	var manager models.User
	err := s.db.Where("user_id = ? AND delete_at IS NULL", managerID).First(&manager).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("user", managerID)
	}
	if err != nil {
		return err
	}
	if !manager.IsManager() {
		return validationFailed("assigned manager must hold the manager role")
	}
	return nil
}

func (s *DocumentWorkflowService) reload(documentID int) (*models.Document, error) {
	var doc models.Document
	err := s.db.Preload("Owner").Preload("Manager").Preload("Category").
		Preload("Approvals").Preload("Approvals.Approver").
		Where("document_id = ?", documentID).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}
