package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"safety-compliance-api/config"
	"safety-compliance-api/models"
	"safety-compliance-api/services"
)

type SubmitDocumentRequest struct {
	CategoryID  int    `json:"category_id" binding:"required"`
	ManagerID   int    `json:"manager_id" binding:"required"`
	FileID      int    `json:"file_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type DecisionRequest struct {
	Comments string `json:"comments"`
}

// SubmitDocument opens the approval chain for a new document.
func SubmitDocument(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req SubmitDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	svc := services.NewDocumentWorkflowService(nil, nil)
	doc, err := svc.Submit(services.SubmitDocumentInput{
		OwnerID:     userID,
		CategoryID:  req.CategoryID,
		ManagerID:   req.ManagerID,
		FileID:      req.FileID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"document": doc,
	})
}

// GetDocuments lists documents the caller may see: admins and managers
// see all, everyone else sees their own plus fully approved ones.
func GetDocuments(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	query := config.DB.Preload("Owner").Preload("Manager").Preload("Category").
		Where("delete_at IS NULL")

	if roleID != models.RoleSuperAdmin && roleID != models.RoleManager {
		query = query.Where("owner_id = ? OR status = ?", userID, models.DocStatusApproved)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var documents []models.Document
	if err := query.Order("document_id DESC").Find(&documents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"documents": documents,
		"total":     len(documents),
	})
}

// GetDocument returns one document with its approval state.
func GetDocument(c *gin.Context) {
	documentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || documentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}

	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	var doc models.Document
	if err := config.DB.Preload("Owner").Preload("Manager").Preload("Category").
		Preload("Approvals").Preload("Approvals.Approver").
		Where("document_id = ? AND delete_at IS NULL", documentID).
		First(&doc).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
		return
	}

	if roleID != models.RoleSuperAdmin && roleID != models.RoleManager &&
		doc.OwnerID != userID && doc.Status != models.DocStatusApproved {
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot view this document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"document": doc,
	})
}

// ApproveDocument records the caller's approval vote.
func ApproveDocument(c *gin.Context) {
	documentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || documentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	svc := services.NewDocumentWorkflowService(nil, nil)
	doc, err := svc.Approve(userID, documentID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"document": doc,
	})
}

// RejectDocument rejects the document with mandatory comments.
func RejectDocument(c *gin.Context) {
	documentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || documentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	svc := services.NewDocumentWorkflowService(nil, nil)
	doc, err := svc.Reject(userID, documentID, req.Comments)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"document": doc,
	})
}

// RequestDocumentUpdate records a manager's change request without
// moving the document's status.
func RequestDocumentUpdate(c *gin.Context) {
	documentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || documentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	svc := services.NewDocumentWorkflowService(nil, nil)
	request, err := svc.RequestUpdate(userID, documentID, req.Comments)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":        true,
		"update_request": request,
	})
}

// DeleteDocument tombstones a document.
func DeleteDocument(c *gin.Context) {
	documentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || documentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document ID"})
		return
	}
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	svc := services.NewDocumentWorkflowService(nil, nil)
	if err := svc.Delete(userID, documentID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Document deleted",
	})
}

// GetDocumentCategories lists active document categories.
func GetDocumentCategories(c *gin.Context) {
	var categories []models.DocumentCategory
	if err := config.DB.Where("delete_at IS NULL").
		Order("category_name").Find(&categories).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"categories": categories,
	})
}
