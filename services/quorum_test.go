package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"safety-compliance-api/models"
)

func TestQuorumSatisfied(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     bool
	}{
		{"empty set is never satisfied", nil, false},
		{"single approved", []string{models.ApprovalStatusApproved}, true},
		{"all approved", []string{models.ApprovalStatusApproved, models.ApprovalStatusApproved}, true},
		{"one still pending", []string{models.ApprovalStatusApproved, models.ApprovalStatusPending}, false},
		{"one rejected", []string{models.ApprovalStatusApproved, models.ApprovalStatusRejected}, false},
		{"all pending", []string{models.ApprovalStatusPending, models.ApprovalStatusPending}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quorumSatisfied(tt.statuses))
		})
	}
}

func TestDocumentQuorumSatisfied(t *testing.T) {
	rows := []models.DocumentApproval{
		{Status: models.ApprovalStatusApproved},
		{Status: models.ApprovalStatusApproved},
	}
	assert.True(t, documentQuorumSatisfied(rows))

	rows[1].Status = models.ApprovalStatusPending
	assert.False(t, documentQuorumSatisfied(rows))
	assert.False(t, documentQuorumSatisfied(nil))
}

func TestFeedbackQuorumSatisfied(t *testing.T) {
	rows := []models.SafetyPatrolFeedbackApproval{
		{Status: models.ApprovalStatusApproved},
		{Status: models.ApprovalStatusApproved},
		{Status: models.ApprovalStatusApproved},
	}
	assert.True(t, feedbackQuorumSatisfied(rows))

	rows[2].Status = models.ApprovalStatusPending
	assert.False(t, feedbackQuorumSatisfied(rows))
}
