package services

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"safety-compliance-api/models"
)

// lockForUpdate takes a row lock on the entity being transitioned so that
// concurrent approvals on the same entity serialize their
// load-evaluate-advance sequence. SQLite (used in tests) has no FOR
// UPDATE syntax and serializes writers itself, so the clause is only
// added on MySQL.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "mysql" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// checkFile verifies a referenced upload exists and is not soft-deleted.
// A dangling file id would otherwise survive until deletion, where the
// blob cascade silently skips it.
func checkFile(db *gorm.DB, fileID int) error {
	var file models.FileUpload
	err := db.Select("file_id").
		Where("file_id = ? AND delete_at IS NULL", fileID).
		First(&file).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("file", fileID)
	}
	return err
}

func timePtr(t time.Time) *time.Time {
	return &t
}
