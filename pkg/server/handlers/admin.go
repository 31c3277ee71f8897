package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirae-labs/go-mirae"
	"github.com/mirae-labs/go-mirae/pkg/server/dto"
)

// AdminHandler handles stats and feedback requests
type AdminHandler struct {
	client *mirae.Client
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(client *mirae.Client) *AdminHandler {
	return &AdminHandler{client: client}
}

// Stats handles GET /v1/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	c.JSON(http.StatusOK, h.client.Stats(c.Request.Context()))
}

// Feedback handles POST /v1/feedback
func (h *AdminHandler) Feedback(c *gin.Context) {
	var req dto.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}
	if err := h.client.Rules().Feedback(req.RuleID, req.Weight); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, dto.FeedbackResponse{
		Status: "recorded",
		RuleID: req.RuleID,
		Weight: req.Weight,
	})
}
