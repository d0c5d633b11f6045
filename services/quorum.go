package services

import "safety-compliance-api/models"

// quorumSatisfied reports whether an approval stage is satisfied: every
// row approved. An empty set is never satisfied; a stage must have at
// least one seeded approver. Rejections are not aggregated here — the
// workflows fail a stage on the first rejection without consulting the
// quorum.
func quorumSatisfied(statuses []string) bool {
	if len(statuses) == 0 {
		return false
	}
	for _, status := range statuses {
		if status != models.ApprovalStatusApproved {
			return false
		}
	}
	return true
}

func documentQuorumSatisfied(rows []models.DocumentApproval) bool {
	statuses := make([]string, 0, len(rows))
	for _, row := range rows {
		statuses = append(statuses, row.Status)
	}
	return quorumSatisfied(statuses)
}

func patrolQuorumSatisfied(rows []models.SafetyPatrolApproval) bool {
	statuses := make([]string, 0, len(rows))
	for _, row := range rows {
		statuses = append(statuses, row.Status)
	}
	return quorumSatisfied(statuses)
}

func feedbackQuorumSatisfied(rows []models.SafetyPatrolFeedbackApproval) bool {
	statuses := make([]string, 0, len(rows))
	for _, row := range rows {
		statuses = append(statuses, row.Status)
	}
	return quorumSatisfied(statuses)
}
