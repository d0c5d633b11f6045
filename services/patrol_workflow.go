package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"safety-compliance-api/config"
	"safety-compliance-api/models"
)

// PatrolWorkflowService drives the safety patrol lifecycle:
//
//	pending_super_admin -> pending_manager -> pending_action
//	  -> action_in_progress -> pending_feedback_approval -> done
//
// rejected is reachable from both pending review stages; a rejected
// feedback loops the patrol back to pending_action (the only intentional
// backward transition). Destroy tombstones the patrol and cascades blob
// cleanup over its images.
type PatrolWorkflowService struct {
	db       *gorm.DB
	notifier Notifier
	blobs    BlobStore
	now      func() time.Time
}

func NewPatrolWorkflowService(db *gorm.DB, notifier Notifier, blobs BlobStore) *PatrolWorkflowService {
	if db == nil {
		db = config.DB
	}
	if notifier == nil {
		notifier = NewNotificationService(db)
	}
	if blobs == nil {
		blobs = NewLocalBlobStore("")
	}
	return &PatrolWorkflowService{db: db, notifier: notifier, blobs: blobs, now: time.Now}
}

type SubmitPatrolInput struct {
	ReporterID  int
	ManagerID   int
	ReportDate  time.Time
	ImageID     int
	PatrolType  string
	Description string
	Location    string
}

// Submit creates a patrol in pending_super_admin and seeds one pending
// approval row per super admin currently on the roster.
func (s *PatrolWorkflowService) Submit(in SubmitPatrolInput) (*models.SafetyPatrol, error) {
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	if in.PatrolType != models.PatrolTypeUnsafeCondition && in.PatrolType != models.PatrolTypeUnsafeAction {
		return nil, validationFailed("patrol type must be unsafe_condition or unsafe_action")
	}
	if in.Description == "" {
		return nil, validationFailed("description is required")
	}
	if in.Location == "" {
		return nil, validationFailed("location is required")
	}
	if in.ImageID <= 0 {
		return nil, validationFailed("image is required")
	}

	if err := s.checkManager(in.ManagerID); err != nil {
		return nil, err
	}
	if err := checkFile(s.db, in.ImageID); err != nil {
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
	if in.ReportDate.IsZero() {
		in.ReportDate = now
	}
	patrol := models.SafetyPatrol{
		ReporterID:  in.ReporterID,
		ManagerID:   in.ManagerID,
		ReportDate:  in.ReportDate,
		ImageID:     in.ImageID,
		PatrolType:  in.PatrolType,
		Description: in.Description,
		Location:    in.Location,
		Status:      models.PatrolStatusPendingSuperAdmin,
		Version:     1,
		CreateAt:    timePtr(now),
		UpdateAt:    timePtr(now),
	}

	var events eventList
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&patrol).Error; err != nil {
			return err
		}
		for _, adminID := range admins {
			approval := models.SafetyPatrolApproval{
				PatrolID:   patrol.PatrolID,
				ApproverID: adminID,
				Stage:      models.StageSuperAdmin,
				Status:     models.ApprovalStatusPending,
				CreateAt:   timePtr(now),
				UpdateAt:   timePtr(now),
			}
			if err := tx.Create(&approval).Error; err != nil {
				return err
			}
			events.add(EventPatrolSubmitted, adminID, RefTypePatrol, patrol.PatrolID, patrol.Location, "")
		}
		events.add(EventPatrolSubmitConfirmed, patrol.ReporterID, RefTypePatrol, patrol.PatrolID, patrol.Location, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(events.events)
	return s.reload(patrol.PatrolID)
}

type ApprovePatrolInput struct {
	ApproverID int
	PatrolID   int
	// Manager approval only: who remediates the finding and by when.
	ActorID  int
	Deadline *time.Time
}

// Approve records the approver's vote. Super admin votes mirror the
// document flow (quorum, then advance to pending_manager). The manager's
// approval must carry a remediation assignee and a future deadline; it
// advances the patrol to pending_action and creates the single
// SafetyPatrolAction row.
func (s *PatrolWorkflowService) Approve(in ApprovePatrolInput) (*models.SafetyPatrol, error) {
	approver, err := s.loadUser(in.ApproverID)
	if err != nil {
		return nil, err
	}

	if approver.IsManager() {
		if in.ActorID <= 0 {
			return nil, validationFailed("remediation actor is required for manager approval")
		}
		if in.Deadline == nil {
			return nil, validationFailed("remediation deadline is required for manager approval")
		}
		if !s.afterToday(*in.Deadline) {
			return nil, validationFailed("remediation deadline must be after today")
		}
		if _, err := s.loadUser(in.ActorID); err != nil {
			return nil, err
		}
	}

	var events eventList
	err = s.db.Transaction(func(tx *gorm.DB) error {
		patrol, err := s.loadPatrolLocked(tx, in.PatrolID)
		if err != nil {
			return err
		}

		approval, err := s.checkDecisionAllowed(tx, approver, patrol)
		if err != nil {
			return err
		}

		now := s.now()
		if err := tx.Model(&models.SafetyPatrolApproval{}).
			Where("approval_id = ?", approval.ApprovalID).
			Updates(map[string]interface{}{
				"status":      models.ApprovalStatusApproved,
				"approved_at": now,
				"update_at":   now,
			}).Error; err != nil {
			return err
		}

		if approval.Stage == models.StageManager {
			if err := s.setStatus(tx, patrol, models.PatrolStatusPendingAction); err != nil {
				return err
			}
			action := models.SafetyPatrolAction{
				PatrolID: patrol.PatrolID,
				ActorID:  in.ActorID,
				Deadline: *in.Deadline,
				CreateAt: timePtr(now),
				UpdateAt: timePtr(now),
			}
			if err := tx.Create(&action).Error; err != nil {
				return err
			}
			deadline := in.Deadline.Format("2006-01-02")
			events.add(EventPatrolActionAssigned, in.ActorID, RefTypePatrol, patrol.PatrolID, patrol.Location, deadline)
			events.add(EventPatrolApproved, patrol.ReporterID, RefTypePatrol, patrol.PatrolID, patrol.Location, "")
			return nil
		}

		var stageRows []models.SafetyPatrolApproval
		if err := tx.Where("patrol_id = ? AND stage = ?", patrol.PatrolID, models.StageSuperAdmin).
			Find(&stageRows).Error; err != nil {
			return err
		}
		if !patrolQuorumSatisfied(stageRows) {
			return nil
		}

		if err := s.setStatus(tx, patrol, models.PatrolStatusPendingManager); err != nil {
			return err
		}
		managerApproval := models.SafetyPatrolApproval{
			PatrolID:   patrol.PatrolID,
			ApproverID: patrol.ManagerID,
			Stage:      models.StageManager,
			Status:     models.ApprovalStatusPending,
			CreateAt:   timePtr(now),
			UpdateAt:   timePtr(now),
		}
		if err := tx.Create(&managerApproval).Error; err != nil {
			return err
		}
		events.add(EventPatrolSubmitted, patrol.ManagerID, RefTypePatrol, patrol.PatrolID, patrol.Location, "")
		events.add(EventPatrolStageAdvanced, patrol.ReporterID, RefTypePatrol, patrol.PatrolID, patrol.Location, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(events.events)
	return s.reload(in.PatrolID)
}

// Reject fails the patrol outright; the first rejection by any
// current-stage approver wins.
func (s *PatrolWorkflowService) Reject(approverID, patrolID int, comments string) (*models.SafetyPatrol, error) {
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
		patrol, err := s.loadPatrolLocked(tx, patrolID)
		if err != nil {
			return err
		}

		approval, err := s.checkDecisionAllowed(tx, approver, patrol)
		if err != nil {
			return err
		}

		now := s.now()
		if err := tx.Model(&models.SafetyPatrolApproval{}).
			Where("approval_id = ?", approval.ApprovalID).
			Updates(map[string]interface{}{
				"status":    models.ApprovalStatusRejected,
				"comments":  comments,
				"update_at": now,
			}).Error; err != nil {
			return err
		}

		if err := s.setStatus(tx, patrol, models.PatrolStatusRejected); err != nil {
			return err
		}
		events.add(EventPatrolRejected, patrol.ReporterID, RefTypePatrol, patrol.PatrolID, patrol.Location, comments)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(events.events)
	return s.reload(patrolID)
}

// StartAction lets the assigned actor acknowledge the remediation work,
// moving the patrol from pending_action to action_in_progress.
func (s *PatrolWorkflowService) StartAction(actorID, patrolID int) (*models.SafetyPatrol, error) {
	if _, err := s.loadUser(actorID); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		patrol, err := s.loadPatrolLocked(tx, patrolID)
		if err != nil {
			return err
		}

		action, err := s.loadAction(tx, patrol.PatrolID)
		if err != nil {
			return err
		}
		if action.ActorID != actorID {
			return unauthorized("remediation is assigned to a different user")
		}
		if patrol.Status != models.PatrolStatusPendingAction {
			return invalidState("patrol is not awaiting remediation start (status %s)", patrol.Status)
		}

		now := s.now()
		if err := tx.Model(&models.SafetyPatrolAction{}).
			Where("action_id = ?", action.ActionID).
			Updates(map[string]interface{}{
				"started_at": now,
				"update_at":  now,
			}).Error; err != nil {
			return err
		}
		return s.setStatus(tx, patrol, models.PatrolStatusActionInProgress)
	})
	if err != nil {
		return nil, err
	}
	return s.reload(patrolID)
}

type SubmitFeedbackInput struct {
	ActorID      int
	PatrolID     int
	FeedbackDate time.Time
	ImageID      int
	Description  string
}

// SubmitFeedback records remediation evidence, moves the patrol to
// pending_feedback_approval, and seeds one feedback approval row per
// member of the feedback quorum: every super admin plus the patrol's
// manager, snapshotted now.
func (s *PatrolWorkflowService) SubmitFeedback(in SubmitFeedbackInput) (*models.SafetyPatrolFeedback, error) {
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return nil, validationFailed("feedback description is required")
	}
	if in.ImageID <= 0 {
		return nil, validationFailed("feedback image is required")
	}

	if _, err := s.loadUser(in.ActorID); err != nil {
		return nil, err
	}
	if err := checkFile(s.db, in.ImageID); err != nil {
		return nil, err
	}

	admins, err := superAdminRoster(s.db, false)
	if err != nil {
		return nil, err
	}

	var feedback models.SafetyPatrolFeedback
	var events eventList
	err = s.db.Transaction(func(tx *gorm.DB) error {
		patrol, err := s.loadPatrolLocked(tx, in.PatrolID)
		if err != nil {
			return err
		}

		action, err := s.loadAction(tx, patrol.PatrolID)
		if err != nil {
			return err
		}
		if action.ActorID != in.ActorID {
			return unauthorized("remediation is assigned to a different user")
		}
		if patrol.Status != models.PatrolStatusPendingAction &&
			patrol.Status != models.PatrolStatusActionInProgress {
			return invalidState("patrol is not awaiting remediation (status %s)", patrol.Status)
		}

		now := s.now()
		if in.FeedbackDate.IsZero() {
			in.FeedbackDate = now
		}
		feedback = models.SafetyPatrolFeedback{
			PatrolID:     patrol.PatrolID,
			ActorID:      in.ActorID,
			FeedbackDate: in.FeedbackDate,
			ImageID:      in.ImageID,
			Description:  in.Description,
			Status:       models.ApprovalStatusPending,
			CreateAt:     timePtr(now),
			UpdateAt:     timePtr(now),
		}
		if err := tx.Create(&feedback).Error; err != nil {
			return err
		}

		// Feedback quorum: super admins plus the manager. The manager may
		// also hold the super admin role in small installations; dedupe so
		// they only vote once.
		approvers := make([]int, 0, len(admins)+1)
		seen := make(map[int]bool, len(admins)+1)
		for _, id := range append(append([]int{}, admins...), patrol.ManagerID) {
			if !seen[id] {
				seen[id] = true
				approvers = append(approvers, id)
			}
		}
		for _, approverID := range approvers {
			row := models.SafetyPatrolFeedbackApproval{
				FeedbackID: feedback.FeedbackID,
				ApproverID: approverID,
				Status:     models.ApprovalStatusPending,
				CreateAt:   timePtr(now),
				UpdateAt:   timePtr(now),
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
			events.add(EventPatrolFeedbackPending, approverID, RefTypePatrol, patrol.PatrolID, patrol.Location, "")
		}

		if err := s.setStatus(tx, patrol, models.PatrolStatusPendingFeedbackApproval); err != nil {
			return err
		}
		events.add(EventPatrolFeedbackSubmitted, patrol.ReporterID, RefTypePatrol, patrol.PatrolID, patrol.Location, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(events.events)

	var out models.SafetyPatrolFeedback
	if err := s.db.Preload("Approvals").Preload("Actor").
		First(&out, feedback.FeedbackID).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// ApproveFeedback records one quorum member's approval of the pending
// feedback. Once every member (super admins plus manager) has approved,
// the feedback is approved and the patrol is done.
func (s *PatrolWorkflowService) ApproveFeedback(approverID, patrolID int) (*models.SafetyPatrol, error) {
	approver, err := s.loadUser(approverID)
	if err != nil {
		return nil, err
	}

	var events eventList
	err = s.db.Transaction(func(tx *gorm.DB) error {
		patrol, err := s.loadPatrolLocked(tx, patrolID)
		if err != nil {
			return err
		}

		feedback, approval, err := s.checkFeedbackDecisionAllowed(tx, approver, patrol)
		if err != nil {
			return err
		}

		now := s.now()
		if err := tx.Model(&models.SafetyPatrolFeedbackApproval{}).
			Where("approval_id = ?", approval.ApprovalID).
			Updates(map[string]interface{}{
				"status":      models.ApprovalStatusApproved,
				"approved_at": now,
				"update_at":   now,
			}).Error; err != nil {
			return err
		}

		var rows []models.SafetyPatrolFeedbackApproval
		if err := tx.Where("feedback_id = ?", feedback.FeedbackID).Find(&rows).Error; err != nil {
			return err
		}
		if !feedbackQuorumSatisfied(rows) {
			return nil
		}

		if err := tx.Model(&models.SafetyPatrolFeedback{}).
			Where("feedback_id = ?", feedback.FeedbackID).
			Updates(map[string]interface{}{
				"status":    models.ApprovalStatusApproved,
				"update_at": now,
			}).Error; err != nil {
			return err
		}
		if err := s.setStatus(tx, patrol, models.PatrolStatusDone); err != nil {
			return err
		}
		events.add(EventPatrolDone, patrol.ReporterID, RefTypePatrol, patrol.PatrolID, patrol.Location, "")
		if feedback.ActorID != patrol.ReporterID {
			events.add(EventPatrolDone, feedback.ActorID, RefTypePatrol, patrol.PatrolID, patrol.Location, "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(events.events)
	return s.reload(patrolID)
}

// RejectFeedback sends the patrol back to pending_action for rework. The
// rejected feedback and its approval rows stay untouched as history; the
// actor must submit fresh evidence.
func (s *PatrolWorkflowService) RejectFeedback(approverID, patrolID int, comments string) (*models.SafetyPatrol, error) {
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
		patrol, err := s.loadPatrolLocked(tx, patrolID)
		if err != nil {
			return err
		}

		feedback, approval, err := s.checkFeedbackDecisionAllowed(tx, approver, patrol)
		if err != nil {
			return err
		}

		now := s.now()
		if err := tx.Model(&models.SafetyPatrolFeedbackApproval{}).
			Where("approval_id = ?", approval.ApprovalID).
			Updates(map[string]interface{}{
				"status":    models.ApprovalStatusRejected,
				"comments":  comments,
				"update_at": now,
			}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.SafetyPatrolFeedback{}).
			Where("feedback_id = ?", feedback.FeedbackID).
			Updates(map[string]interface{}{
				"status":    models.ApprovalStatusRejected,
				"update_at": now,
			}).Error; err != nil {
			return err
		}

		if err := s.setStatus(tx, patrol, models.PatrolStatusPendingAction); err != nil {
			return err
		}
		events.add(EventPatrolFeedbackRework, feedback.ActorID, RefTypePatrol, patrol.PatrolID, patrol.Location, comments)
		events.add(EventPatrolFeedbackRejected, patrol.ReporterID, RefTypePatrol, patrol.PatrolID, patrol.Location, comments)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Dispatch(events.events)
	return s.reload(patrolID)
}

// Destroy tombstones a patrol: status forced to rejected, the row
// soft-deleted, the deleting admin's own approval row rejected, and the
// patrol image plus every feedback image removed from blob storage.
// Super admin only.
func (s *PatrolWorkflowService) Destroy(actorID, patrolID int) error {
	actor, err := s.loadUser(actorID)
	if err != nil {
		return err
	}
	if !actor.IsSuperAdmin() {
		return unauthorized("only a super admin can delete a safety patrol")
	}

	var events eventList
	var blobPaths []string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		patrol, err := s.loadPatrolLocked(tx, patrolID)
		if err != nil {
			return err
		}

		now := s.now()
		if err := s.setStatus(tx, patrol, models.PatrolStatusRejected); err != nil {
			return err
		}
		if err := tx.Model(&models.SafetyPatrol{}).
			Where("patrol_id = ?", patrol.PatrolID).
			Update("delete_at", now).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.SafetyPatrolApproval{}).
			Where("patrol_id = ? AND approver_id = ?", patrol.PatrolID, actor.UserID).
			Updates(map[string]interface{}{
				"status":    models.ApprovalStatusRejected,
				"update_at": now,
			}).Error; err != nil {
			return err
		}

		fileIDs := []int{patrol.ImageID}
		var feedbacks []models.SafetyPatrolFeedback
		if err := tx.Where("patrol_id = ?", patrol.PatrolID).Find(&feedbacks).Error; err != nil {
			return err
		}
		for _, fb := range feedbacks {
			fileIDs = append(fileIDs, fb.ImageID)
		}

		var files []models.FileUpload
		if err := tx.Where("file_id IN ?", fileIDs).Find(&files).Error; err != nil {
			return err
		}
		for _, f := range files {
			blobPaths = append(blobPaths, f.StoredPath)
		}
		if err := tx.Model(&models.FileUpload{}).
			Where("file_id IN ?", fileIDs).
			Update("delete_at", now).Error; err != nil {
			return err
		}

		events.add(EventPatrolDeleted, patrol.ReporterID, RefTypePatrol, patrol.PatrolID, patrol.Location, "")
		return nil
	})
	if err != nil {
		return err
	}

	// Blob removal happens after commit; a failed unlink leaves an orphan
	// file, never an inconsistent patrol.
	for _, path := range blobPaths {
		if err := s.blobs.Delete(path); err != nil {
			log.Printf("patrol destroy: failed to delete blob %s: %v", path, err)
		}
	}

	s.notifier.Dispatch(events.events)
	return nil
}

// checkDecisionAllowed is the access policy for patrol approve/reject,
// distinguishing Unauthorized from InvalidState exactly like the
// document flow.
func (s *PatrolWorkflowService) checkDecisionAllowed(tx *gorm.DB, approver *models.User, patrol *models.SafetyPatrol) (*models.SafetyPatrolApproval, error) {
	var stage string
	switch {
	case approver.IsSuperAdmin():
		if patrol.Status != models.PatrolStatusPendingSuperAdmin {
			return nil, invalidState("patrol is not awaiting super admin review (status %s)", patrol.Status)
		}
		stage = models.StageSuperAdmin
	case approver.IsManager():
		if patrol.ManagerID != approver.UserID {
			return nil, unauthorized("patrol is assigned to a different manager")
		}
		if patrol.Status != models.PatrolStatusPendingManager {
			return nil, invalidState("patrol is not awaiting manager review (status %s)", patrol.Status)
		}
		stage = models.StageManager
	default:
		return nil, unauthorized("role cannot decide patrol approvals")
	}

	var approval models.SafetyPatrolApproval
	err := tx.Where("patrol_id = ? AND approver_id = ? AND stage = ?",
		patrol.PatrolID, approver.UserID, stage).
		First(&approval).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, unauthorized("no approval is assigned to you for this patrol")
	}
	if err != nil {
		return nil, err
	}
	if approval.Status != models.ApprovalStatusPending {
		return nil, invalidState("your approval is already decided (%s)", approval.Status)
	}
	return &approval, nil
}

// checkFeedbackDecisionAllowed gates feedback approval: super admins or
// the patrol's manager, while the patrol awaits feedback approval, each
// holding a pending row on the patrol's pending feedback.
func (s *PatrolWorkflowService) checkFeedbackDecisionAllowed(tx *gorm.DB, approver *models.User, patrol *models.SafetyPatrol) (*models.SafetyPatrolFeedback, *models.SafetyPatrolFeedbackApproval, error) {
	if !approver.IsSuperAdmin() && !(approver.IsManager() && patrol.ManagerID == approver.UserID) {
		return nil, nil, unauthorized("role cannot decide remediation feedback")
	}
	if patrol.Status != models.PatrolStatusPendingFeedbackApproval {
		return nil, nil, invalidState("patrol has no feedback awaiting approval (status %s)", patrol.Status)
	}

	var feedback models.SafetyPatrolFeedback
	err := tx.Where("patrol_id = ? AND status = ?", patrol.PatrolID, models.ApprovalStatusPending).
		Order("feedback_id DESC").
		First(&feedback).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, notFound("pending feedback for patrol", patrol.PatrolID)
	}
	if err != nil {
		return nil, nil, err
	}

	var approval models.SafetyPatrolFeedbackApproval
	err = tx.Where("feedback_id = ? AND approver_id = ?", feedback.FeedbackID, approver.UserID).
		First(&approval).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, unauthorized("no feedback approval is assigned to you for this patrol")
	}
	if err != nil {
		return nil, nil, err
	}
	if approval.Status != models.ApprovalStatusPending {
		return nil, nil, invalidState("your feedback approval is already decided (%s)", approval.Status)
	}
	return &feedback, &approval, nil
}

func (s *PatrolWorkflowService) setStatus(tx *gorm.DB, patrol *models.SafetyPatrol, status string) error {
	res := tx.Model(&models.SafetyPatrol{}).
		Where("patrol_id = ? AND version = ?", patrol.PatrolID, patrol.Version).
		Updates(map[string]interface{}{
			"status":    status,
			"version":   patrol.Version + 1,
			"update_at": s.now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &ConflictError{Entity: "safety patrol", ID: patrol.PatrolID}
	}
	patrol.Status = status
	patrol.Version++
	return nil
}

func (s *PatrolWorkflowService) loadPatrolLocked(tx *gorm.DB, patrolID int) (*models.SafetyPatrol, error) {
	var patrol models.SafetyPatrol
	err := lockForUpdate(tx).
		Where("patrol_id = ? AND delete_at IS NULL", patrolID).
		First(&patrol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("safety patrol", patrolID)
	}
	if err != nil {
		return nil, err
	}
	return &patrol, nil
}

func (s *PatrolWorkflowService) loadAction(tx *gorm.DB, patrolID int) (*models.SafetyPatrolAction, error) {
	var action models.SafetyPatrolAction
	err := tx.Where("patrol_id = ?", patrolID).First(&action).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("remediation action for patrol", patrolID)
	}
	if err != nil {
		return nil, err
	}
	return &action, nil
}

func (s *PatrolWorkflowService) loadUser(userID int) (*models.User, error) {
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

func (s *PatrolWorkflowService) checkManager(managerID int) error {
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

// afterToday reports whether the deadline falls on a later calendar day
// than the current one.
func (s *PatrolWorkflowService) afterToday(deadline time.Time) bool {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	d := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, deadline.Location())
	return d.After(today)
}

func (s *PatrolWorkflowService) reload(patrolID int) (*models.SafetyPatrol, error) {
	var patrol models.SafetyPatrol
	err := s.db.Preload("Reporter").Preload("Manager").
		Preload("Approvals").Preload("Approvals.Approver").
		Preload("Action").Preload("Action.Actor").
		Preload("Feedbacks").Preload("Feedbacks.Approvals").
		Where("patrol_id = ?", patrolID).
		First(&patrol).Error
	if err != nil {
		return nil, err
	}
	return &patrol, nil
}
