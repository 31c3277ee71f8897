package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mirae-labs/go-mirae"
	"github.com/mirae-labs/go-mirae/pkg/server/dto"
)

// AskHandler handles reading requests
type AskHandler struct {
	client *mirae.Client
}

// NewAskHandler creates a new ask handler
func NewAskHandler(client *mirae.Client) *AskHandler {
	return &AskHandler{client: client}
}

// Ask handles POST /v1/ask
func (h *AskHandler) Ask(c *gin.Context) {
	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	result, err := h.client.Ask(c.Request.Context(), toInput(req))
	if err != nil {
		if errors.Is(err, mirae.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error:   "invalid_request",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	state := result.State
	status := "error"
	if state.Completed && state.Error == "" {
		status = "success"
	}
	c.JSON(http.StatusOK, dto.AskResponse{
		Status:         status,
		RequestID:      state.RequestID,
		Answer:         result.Answer,
		Context:        state.Context,
		Entities:       state.Entities,
		TraversalPaths: state.TraversalPaths,
		GraphResults:   state.GraphResults,
		ReasoningSteps: state.ReasoningSteps,
		Confidence:     state.Confidence,
		Variant:        string(result.Variant),
		Error:          state.Error,
		Stats: dto.AskStats{
			EntitiesCount:       len(state.Entities),
			PathsCount:          len(state.TraversalPaths),
			GraphResultsCount:   len(state.GraphResults),
			ReasoningStepsCount: len(state.ReasoningSteps),
			HasGraphRAG:         len(state.GraphResults) > 0 || len(state.TraversalPaths) > 0,
		},
	})
}

// AskStream handles POST /v1/ask/stream
func (h *AskHandler) AskStream(c *gin.Context) {
	var req dto.AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return
	}

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: "streaming not supported",
		})
		return
	}

	frames := h.client.AskStream(c.Request.Context(), toInput(req))
	for frame := range frames {
		if _, err := c.Writer.WriteString(frame); err != nil {
			return
		}
		flusher.Flush()
	}
}

func toInput(req dto.AskRequest) mirae.AskInput {
	return mirae.AskInput{
		Query:            req.Query,
		Dream:            req.Dream,
		Name:             req.Name,
		Facts:            req.Facts,
		Locale:           req.Locale,
		Theme:            req.Theme,
		SessionID:        req.SessionID,
		UseDeepTraversal: req.UseDeepTraversal,
		Model:            req.Model,
	}
}
