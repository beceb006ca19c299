package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/copyforge/copyforge-backend/internal/http/response"
	"github.com/copyforge/copyforge-backend/internal/services"
)

type FeedbackHandler struct {
	feedback services.FeedbackService
}

func NewFeedbackHandler(feedback services.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// POST /api/feedback
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	var input services.FeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	outcome, err := h.feedback.RecordFeedback(c.Request.Context(), input)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "record_feedback_failed", err)
		return
	}
	response.RespondOK(c, outcome)
}

// GET /api/feedback/:gen_id
func (h *FeedbackHandler) FeedbackHistory(c *gin.Context) {
	genID, err := uuid.Parse(c.Param("gen_id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_gen_id", err)
		return
	}
	history, err := h.feedback.History(c.Request.Context(), genID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "feedback_history_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"history": history})
}
