package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stepwise/stepwise-backend/internal/engine"
	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/requestdata"
	"github.com/stepwise/stepwise-backend/internal/services"
)

type AttemptHandler struct {
	log        *logger.Logger
	attemptSvc services.AttemptService
}

func NewAttemptHandler(log *logger.Logger, attemptSvc services.AttemptService) *AttemptHandler {
	return &AttemptHandler{
		log:        log.With("handler", "AttemptHandler"),
		attemptSvc: attemptSvc,
	}
}

// POST /api/attempts
// Submit an answer: records the event, updates topic accuracy, and advances
// the review card. The response carries correctness and the new schedule.
func (h *AttemptHandler) SubmitAttempt(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("not authenticated"))
		return
	}
	var req struct {
		QuestionID       string `json:"question_id"`
		ChosenChoice     *int   `json:"chosen_choice"`
		TimeSpentSeconds int    `json:"time_spent_seconds"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", fmt.Errorf("invalid request body"))
		return
	}
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_question_id", fmt.Errorf("invalid question id"))
		return
	}
	if req.ChosenChoice == nil || *req.ChosenChoice < 0 {
		RespondError(c, http.StatusBadRequest, "invalid_choice", fmt.Errorf("chosen_choice is required"))
		return
	}

	result, err := h.attemptSvc.SubmitAttempt(c.Request.Context(), services.SubmitAttemptInput{
		UserID:           rd.UserID,
		QuestionID:       questionID,
		ChosenChoice:     *req.ChosenChoice,
		TimeSpentSeconds: req.TimeSpentSeconds,
	})
	if err != nil {
		if errors.Is(err, engine.ErrConcurrentMutation) {
			RespondError(c, http.StatusConflict, "concurrent_mutation", err)
			return
		}
		RespondError(c, http.StatusBadRequest, "submit_failed", err)
		return
	}
	RespondOK(c, result)
}

// GET /api/attempts/recent
func (h *AttemptHandler) ListRecent(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("not authenticated"))
		return
	}
	attempts, err := h.attemptSvc.ListRecent(c.Request.Context(), rd.UserID, 50)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"attempts": attempts})
}
