package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"safety-compliance-api/models"
)

// Fixed wall clock for deterministic deadlines and timestamps.
var testNow = time.Date(2025, 5, 15, 10, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// One shared in-memory database per test; the name keeps parallel
	// tests from seeing each other's tables.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Role{},
		&models.Document{},
		&models.DocumentApproval{},
		&models.DocumentUpdateRequest{},
		&models.DocumentCategory{},
		&models.SafetyPatrol{},
		&models.SafetyPatrolApproval{},
		&models.SafetyPatrolAction{},
		&models.SafetyPatrolFeedback{},
		&models.SafetyPatrolFeedbackApproval{},
		&models.Notification{},
		&models.FileUpload{},
	))

	for id, name := range map[int]string{
		models.RoleSuperAdmin: "super_admin",
		models.RoleManager:    "manager",
		models.RoleEmployee:   "employee",
	} {
		require.NoError(t, db.Create(&models.Role{RoleID: id, Role: name}).Error)
	}

	// The roster cache is process-global; tests run against throwaway
	// databases so it must never leak between them.
	ClearRosterCache()
	t.Cleanup(ClearRosterCache)

	return db
}

func seedUser(t *testing.T, db *gorm.DB, id, roleID int) models.User {
	t.Helper()
	user := models.User{
		UserID:    id,
		UserFname: fmt.Sprintf("User%d", id),
		UserLname: "Test",
		Email:     fmt.Sprintf("user%d@example.com", id),
		Password:  "hashed",
		RoleID:    roleID,
		CreateAt:  timePtr(testNow),
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func seedCategory(t *testing.T, db *gorm.DB, id int) models.DocumentCategory {
	t.Helper()
	category := models.DocumentCategory{
		CategoryID:   id,
		CategoryName: fmt.Sprintf("Category %d", id),
		CreateAt:     timePtr(testNow),
	}
	require.NoError(t, db.Create(&category).Error)
	return category
}

func seedFile(t *testing.T, db *gorm.DB, uploadedBy int, path string) models.FileUpload {
	t.Helper()
	file := models.FileUpload{
		OriginalName: "photo.jpg",
		StoredPath:   path,
		FileSize:     1024,
		MimeType:     "image/jpeg",
		UploadedBy:   uploadedBy,
		UploadedAt:   testNow,
		CreateAt:     testNow,
		UpdateAt:     testNow,
	}
	require.NoError(t, db.Create(&file).Error)
	return file
}

// testNotifier writes real notification rows (so fan-out is asserted
// from the notifications table) but never attempts mail.
func testNotifier(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db, emailSend: false}
}

func notificationCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&count).Error)
	return count
}

func notificationsFor(t *testing.T, db *gorm.DB, userID int) []models.Notification {
	t.Helper()
	var rows []models.Notification
	require.NoError(t, db.Where("user_id = ?", userID).
		Order("notification_id").Find(&rows).Error)
	return rows
}

// recordingBlobStore captures delete calls for destroy-cascade asserts.
type recordingBlobStore struct {
	deleted []string
}

func (s *recordingBlobStore) Delete(path string) error {
	s.deleted = append(s.deleted, path)
	return nil
}

func newDocumentService(db *gorm.DB) *DocumentWorkflowService {
	return &DocumentWorkflowService{db: db, notifier: testNotifier(db), now: fixedNow}
}

func newPatrolService(db *gorm.DB, blobs BlobStore) *PatrolWorkflowService {
	if blobs == nil {
		blobs = &recordingBlobStore{}
	}
	return &PatrolWorkflowService{db: db, notifier: testNotifier(db), blobs: blobs, now: fixedNow}
}
