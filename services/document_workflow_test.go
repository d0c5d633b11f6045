package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"safety-compliance-api/models"
)

const (
	adminA   = 1
	adminB   = 2
	managerM = 10
	ownerO   = 20
)

func documentFixture(t *testing.T) (*gorm.DB, *DocumentWorkflowService) {
	t.Helper()
	db := newTestDB(t)
	seedUser(t, db, adminA, models.RoleSuperAdmin)
	seedUser(t, db, adminB, models.RoleSuperAdmin)
	seedUser(t, db, managerM, models.RoleManager)
	seedUser(t, db, ownerO, models.RoleEmployee)
	seedCategory(t, db, 1)
	seedFile(t, db, ownerO, "uploads/plan.pdf")
	return db, newDocumentService(db)
}

func submitDocument(t *testing.T, svc *DocumentWorkflowService) *models.Document {
	t.Helper()
	doc, err := svc.Submit(SubmitDocumentInput{
		OwnerID:     ownerO,
		CategoryID:  1,
		ManagerID:   managerM,
		FileID:      1,
		Title:       "Evacuation plan",
		Description: "Updated evacuation plan for building 3",
	})
	require.NoError(t, err)
	return doc
}

func TestDocumentSubmitSeedsSuperAdminApprovals(t *testing.T) {
	db, svc := documentFixture(t)

	doc := submitDocument(t, svc)
	assert.Equal(t, models.DocStatusPendingSuperAdmin, doc.Status)

	var approvals []models.DocumentApproval
	require.NoError(t, db.Where("document_id = ?", doc.DocumentID).Find(&approvals).Error)
	require.Len(t, approvals, 2)
	for _, a := range approvals {
		assert.Equal(t, models.StageSuperAdmin, a.Stage)
		assert.Equal(t, models.ApprovalStatusPending, a.Status)
	}

	// Both super admins plus a confirmation to the owner.
	assert.Len(t, notificationsFor(t, db, adminA), 1)
	assert.Len(t, notificationsFor(t, db, adminB), 1)
	assert.Len(t, notificationsFor(t, db, ownerO), 1)
}

func TestDocumentSubmitValidation(t *testing.T) {
	_, svc := documentFixture(t)

	_, err := svc.Submit(SubmitDocumentInput{
		OwnerID: ownerO, CategoryID: 1, ManagerID: managerM, FileID: 1,
	})
	assert.ErrorAs(t, err, new(*ValidationError))

	// Assigned manager must hold the manager role.
	_, err = svc.Submit(SubmitDocumentInput{
		OwnerID: ownerO, CategoryID: 1, ManagerID: ownerO, FileID: 1, Title: "x",
	})
	assert.ErrorAs(t, err, new(*ValidationError))

	// Unknown category.
	_, err = svc.Submit(SubmitDocumentInput{
		OwnerID: ownerO, CategoryID: 99, ManagerID: managerM, FileID: 1, Title: "x",
	})
	assert.ErrorAs(t, err, new(*NotFoundError))
}

func TestDocumentQuorumAdvancesToManager(t *testing.T) {
	db, svc := documentFixture(t)
	doc := submitDocument(t, svc)

	// First of two super admins: stage must not advance.
	updated, err := svc.Approve(adminA, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusPendingSuperAdmin, updated.Status)

	var managerRows int64
	require.NoError(t, db.Model(&models.DocumentApproval{}).
		Where("document_id = ? AND stage = ?", doc.DocumentID, models.StageManager).
		Count(&managerRows).Error)
	assert.Zero(t, managerRows)

	// Second super admin completes the quorum.
	updated, err = svc.Approve(adminB, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusPendingManager, updated.Status)

	var managerApproval models.DocumentApproval
	require.NoError(t, db.Where("document_id = ? AND stage = ?", doc.DocumentID, models.StageManager).
		First(&managerApproval).Error)
	assert.Equal(t, managerM, managerApproval.ApproverID)
	assert.Equal(t, models.ApprovalStatusPending, managerApproval.Status)

	// Manager was told a document awaits them; owner saw the advance.
	assert.Len(t, notificationsFor(t, db, managerM), 1)
	assert.Len(t, notificationsFor(t, db, ownerO), 2)
}

func TestDocumentManagerApprovalCompletesChain(t *testing.T) {
	db, svc := documentFixture(t)
	doc := submitDocument(t, svc)

	_, err := svc.Approve(adminA, doc.DocumentID)
	require.NoError(t, err)
	_, err = svc.Approve(adminB, doc.DocumentID)
	require.NoError(t, err)

	updated, err := svc.Approve(managerM, doc.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusApproved, updated.Status)

	// Fully approved implies every approval row is approved.
	var rows []models.DocumentApproval
	require.NoError(t, db.Where("document_id = ?", doc.DocumentID).Find(&rows).Error)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, models.ApprovalStatusApproved, row.Status)
		assert.NotNil(t, row.ApprovedAt)
	}
}

func TestDocumentFirstRejectionWins(t *testing.T) {
	db, svc := documentFixture(t)
	doc := submitDocument(t, svc)

	updated, err := svc.Reject(adminB, doc.DocumentID, "missing signatures")
	require.NoError(t, err)
	assert.Equal(t, models.DocStatusRejected, updated.Status)

	var rejected models.DocumentApproval
	require.NoError(t, db.Where("document_id = ? AND approver_id = ?", doc.DocumentID, adminB).
		First(&rejected).Error)
	assert.Equal(t, models.ApprovalStatusRejected, rejected.Status)
	require.NotNil(t, rejected.Comments)
	assert.Equal(t, "missing signatures", *rejected.Comments)

	// The other admin's turn is over.
	_, err = svc.Approve(adminA, doc.DocumentID)
	assert.ErrorAs(t, err, new(*InvalidStateError))

	// Owner got the rejection with the comment text.
	owner := notificationsFor(t, db, ownerO)
	require.Len(t, owner, 2) // submit confirmation + rejection
	assert.Contains(t, owner[1].Message, "missing signatures")
}

func TestDocumentRejectRequiresComments(t *testing.T) {
	_, svc := documentFixture(t)
	doc := submitDocument(t, svc)

	_, err := svc.Reject(adminA, doc.DocumentID, "   ")
	assert.ErrorAs(t, err, new(*ValidationError))
}

func TestDocumentDoubleApproveFailsWithoutRenotify(t *testing.T) {
	db, svc := documentFixture(t)
	doc := submitDocument(t, svc)

	_, err := svc.Approve(adminA, doc.DocumentID)
	require.NoError(t, err)
	before := notificationCount(t, db)

	_, err = svc.Approve(adminA, doc.DocumentID)
	assert.ErrorAs(t, err, new(*InvalidStateError))
	assert.Equal(t, before, notificationCount(t, db))
}

func TestDocumentApproveAccessPolicy(t *testing.T) {
	db, svc := documentFixture(t)
	doc := submitDocument(t, svc)

	// Plain employee has no say at all.
	_, err := svc.Approve(ownerO, doc.DocumentID)
	assert.ErrorAs(t, err, new(*UnauthorizedError))

	// The manager is authorized in general but it is not their turn yet.
	_, err = svc.Approve(managerM, doc.DocumentID)
	assert.ErrorAs(t, err, new(*InvalidStateError))

	// A different manager never gets a turn on this document.
	seedUser(t, db, 11, models.RoleManager)
	_, errEarly := svc.Approve(11, doc.DocumentID)
	assert.ErrorAs(t, errEarly, new(*UnauthorizedError))

	// After the quorum, the assigned manager may decide but the other
	// manager still may not.
	_, err = svc.Approve(adminA, doc.DocumentID)
	require.NoError(t, err)
	_, err = svc.Approve(adminB, doc.DocumentID)
	require.NoError(t, err)

	_, err = svc.Approve(11, doc.DocumentID)
	assert.ErrorAs(t, err, new(*UnauthorizedError))
}

func TestDocumentNotFound(t *testing.T) {
	_, svc := documentFixture(t)
	_, err := svc.Approve(adminA, 999)
	assert.ErrorAs(t, err, new(*NotFoundError))

	_, err = svc.Submit(SubmitDocumentInput{
		OwnerID: ownerO, CategoryID: 1, ManagerID: 999, FileID: 1, Title: "x",
	})
	assert.ErrorAs(t, err, new(*NotFoundError))

	// Dangling file reference is rejected at submit, not discovered at
	// deletion time.
	_, err = svc.Submit(SubmitDocumentInput{
		OwnerID: ownerO, CategoryID: 1, ManagerID: managerM, FileID: 99, Title: "x",
	})
	assert.ErrorAs(t, err, new(*NotFoundError))
}

func TestRequestUpdateDoesNotBlockApprovals(t *testing.T) {
	db, svc := documentFixture(t)
	doc := submitDocument(t, svc)

	request, err := svc.RequestUpdate(managerM, doc.DocumentID, "please attach appendix B")
	require.NoError(t, err)
	assert.Equal(t, doc.DocumentID, request.DocumentID)

	var reloaded models.Document
	require.NoError(t, db.First(&reloaded, doc.DocumentID).Error)
	assert.Equal(t, models.DocStatusPendingSuperAdmin, reloaded.Status)

	// Owner is notified with the comment but approvals proceed untouched.
	owner := notificationsFor(t, db, ownerO)
	require.Len(t, owner, 2)
	assert.Contains(t, owner[1].Message, "appendix B")

	_, err = svc.Approve(adminA, doc.DocumentID)
	require.NoError(t, err)

	// Only the assigned manager can use the side channel.
	_, err = svc.RequestUpdate(ownerO, doc.DocumentID, "nope")
	assert.ErrorAs(t, err, new(*UnauthorizedError))
}

func TestDocumentDeleteTombstone(t *testing.T) {
	db, svc := documentFixture(t)
	doc := submitDocument(t, svc)

	// A random employee cannot delete someone else's document.
	seedUser(t, db, 21, models.RoleEmployee)
	err := svc.Delete(21, doc.DocumentID)
	assert.ErrorAs(t, err, new(*UnauthorizedError))

	require.NoError(t, svc.Delete(ownerO, doc.DocumentID))

	var reloaded models.Document
	require.NoError(t, db.First(&reloaded, doc.DocumentID).Error)
	assert.Equal(t, models.DocStatusDeleted, reloaded.Status)
	assert.NotNil(t, reloaded.DeleteAt)

	var rows []models.DocumentApproval
	require.NoError(t, db.Where("document_id = ?", doc.DocumentID).Find(&rows).Error)
	for _, row := range rows {
		assert.Equal(t, models.ApprovalStatusDeleted, row.Status)
	}

	// Tombstoned documents are gone from the workflow's point of view.
	_, err = svc.Approve(adminA, doc.DocumentID)
	assert.ErrorAs(t, err, new(*NotFoundError))
}

func TestDocumentStaleVersionConflicts(t *testing.T) {
	db, svc := documentFixture(t)
	doc := submitDocument(t, svc)

	stale := models.Document{DocumentID: doc.DocumentID, Version: doc.Version + 5}
	err := svc.setStatus(db, &stale, models.DocStatusRejected)
	assert.ErrorAs(t, err, new(*ConflictError))
}
