package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"safety-compliance-api/config"
	"safety-compliance-api/models"
	"safety-compliance-api/services"
)

type SubmitPatrolRequest struct {
	ManagerID   int    `json:"manager_id" binding:"required"`
	ReportDate  string `json:"report_date"`
	ImageID     int    `json:"image_id" binding:"required"`
	PatrolType  string `json:"patrol_type" binding:"required"`
	Description string `json:"description" binding:"required"`
	Location    string `json:"location" binding:"required"`
}

type ApprovePatrolRequest struct {
	ActorID  int    `json:"actor_id"`
	Deadline string `json:"deadline"` // YYYY-MM-DD, manager approval only
}

type SubmitFeedbackRequest struct {
	FeedbackDate string `json:"feedback_date"`
	ImageID      int    `json:"image_id" binding:"required"`
	Description  string `json:"description" binding:"required"`
}

func patrolService() *services.PatrolWorkflowService {
	return services.NewPatrolWorkflowService(nil, nil, nil)
}

// SubmitPatrol reports a new safety patrol finding.
func SubmitPatrol(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req SubmitPatrolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var reportDate time.Time
	if req.ReportDate != "" {
		parsed, err := time.Parse("2006-01-02", req.ReportDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "report_date must be YYYY-MM-DD"})
			return
		}
		reportDate = parsed
	}

	patrol, err := patrolService().Submit(services.SubmitPatrolInput{
		ReporterID:  userID,
		ManagerID:   req.ManagerID,
		ReportDate:  reportDate,
		ImageID:     req.ImageID,
		PatrolType:  req.PatrolType,
		Description: req.Description,
		Location:    req.Location,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"patrol":  patrol,
	})
}

// GetPatrols lists patrols the caller may see: admins and managers see
// all, the reporter sees their own, an assigned actor sees their action
// items, everyone else only completed ones.
func GetPatrols(c *gin.Context) {
	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	query := config.DB.Preload("Reporter").Preload("Manager").Preload("Action").
		Where("safety_patrols.delete_at IS NULL")

	if roleID != models.RoleSuperAdmin && roleID != models.RoleManager {
		query = query.
			Joins("LEFT JOIN safety_patrol_actions ON safety_patrol_actions.patrol_id = safety_patrols.patrol_id").
			Where("safety_patrols.reporter_id = ? OR safety_patrol_actions.actor_id = ? OR safety_patrols.status = ?",
				userID, userID, models.PatrolStatusDone)
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("safety_patrols.status = ?", status)
	}

	var patrols []models.SafetyPatrol
	if err := query.Order("safety_patrols.patrol_id DESC").Find(&patrols).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch patrols"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"patrols": patrols,
		"total":   len(patrols),
	})
}

// GetPatrol returns one patrol with its approvals, action and feedback.
func GetPatrol(c *gin.Context) {
	patrolID, err := strconv.Atoi(c.Param("id"))
	if err != nil || patrolID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patrol ID"})
		return
	}

	userID, _ := getCurrentUserID(c)
	roleID, _ := getCurrentRoleID(c)

	var patrol models.SafetyPatrol
	if err := config.DB.Preload("Reporter").Preload("Manager").
		Preload("Approvals").Preload("Approvals.Approver").
		Preload("Action").Preload("Action.Actor").
		Preload("Feedbacks").Preload("Feedbacks.Approvals").
		Where("patrol_id = ? AND delete_at IS NULL", patrolID).
		First(&patrol).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Patrol not found"})
		return
	}

	canView := roleID == models.RoleSuperAdmin || roleID == models.RoleManager ||
		patrol.ReporterID == userID || patrol.Status == models.PatrolStatusDone
	if !canView && patrol.Action != nil && patrol.Action.ActorID == userID {
		canView = true
	}
	if !canView {
		c.JSON(http.StatusForbidden, gin.H{"error": "You cannot view this patrol"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"patrol":  patrol,
	})
}

// ApprovePatrol records the caller's approval vote. Manager approval
// must carry actor_id and a future deadline.
func ApprovePatrol(c *gin.Context) {
	patrolID, err := strconv.Atoi(c.Param("id"))
	if err != nil || patrolID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patrol ID"})
		return
	}
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	// Body is optional: super admin approvals carry no payload.
	var req ApprovePatrolRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	in := services.ApprovePatrolInput{
		ApproverID: userID,
		PatrolID:   patrolID,
		ActorID:    req.ActorID,
	}
	if req.Deadline != "" {
		deadline, err := time.Parse("2006-01-02", req.Deadline)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "deadline must be YYYY-MM-DD"})
			return
		}
		in.Deadline = &deadline
	}

	patrol, err := patrolService().Approve(in)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"patrol":  patrol,
	})
}

// RejectPatrol rejects the patrol with mandatory comments.
func RejectPatrol(c *gin.Context) {
	patrolID, err := strconv.Atoi(c.Param("id"))
	if err != nil || patrolID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patrol ID"})
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

	patrol, err := patrolService().Reject(userID, patrolID, req.Comments)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"patrol":  patrol,
	})
}

// StartPatrolAction lets the assigned actor mark remediation as started.
func StartPatrolAction(c *gin.Context) {
	patrolID, err := strconv.Atoi(c.Param("id"))
	if err != nil || patrolID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patrol ID"})
		return
	}
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	patrol, err := patrolService().StartAction(userID, patrolID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"patrol":  patrol,
	})
}

// SubmitPatrolFeedback records remediation evidence from the assigned actor.
func SubmitPatrolFeedback(c *gin.Context) {
	patrolID, err := strconv.Atoi(c.Param("id"))
	if err != nil || patrolID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patrol ID"})
		return
	}
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	var req SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var feedbackDate time.Time
	if req.FeedbackDate != "" {
		parsed, err := time.Parse("2006-01-02", req.FeedbackDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "feedback_date must be YYYY-MM-DD"})
			return
		}
		feedbackDate = parsed
	}

	feedback, err := patrolService().SubmitFeedback(services.SubmitFeedbackInput{
		ActorID:      userID,
		PatrolID:     patrolID,
		FeedbackDate: feedbackDate,
		ImageID:      req.ImageID,
		Description:  req.Description,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"feedback": feedback,
	})
}

// ApprovePatrolFeedback records one quorum member's feedback approval.
func ApprovePatrolFeedback(c *gin.Context) {
	patrolID, err := strconv.Atoi(c.Param("id"))
	if err != nil || patrolID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patrol ID"})
		return
	}
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	patrol, err := patrolService().ApproveFeedback(userID, patrolID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"patrol":  patrol,
	})
}

// RejectPatrolFeedback sends the patrol back to remediation with comments.
func RejectPatrolFeedback(c *gin.Context) {
	patrolID, err := strconv.Atoi(c.Param("id"))
	if err != nil || patrolID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patrol ID"})
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

	patrol, err := patrolService().RejectFeedback(userID, patrolID, req.Comments)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"patrol":  patrol,
	})
}

// DeletePatrol tombstones a patrol and removes its images. Super admin only.
func DeletePatrol(c *gin.Context) {
	patrolID, err := strconv.Atoi(c.Param("id"))
	if err != nil || patrolID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid patrol ID"})
		return
	}
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "User context missing"})
		return
	}

	if err := patrolService().Destroy(userID, patrolID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Patrol deleted",
	})
}
