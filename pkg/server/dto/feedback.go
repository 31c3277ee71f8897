package dto

// FeedbackRequest records one reader feedback signal for a rule.
type FeedbackRequest struct {
	RuleID string  `json:"rule_id" binding:"required"`
	Weight float64 `json:"weight" binding:"required"`
}

// FeedbackResponse acknowledges the recorded weight.
type FeedbackResponse struct {
	Status string  `json:"status"`
	RuleID string  `json:"rule_id"`
	Weight float64 `json:"weight"`
}
