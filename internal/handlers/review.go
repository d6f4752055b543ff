package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/requestdata"
	"github.com/stepwise/stepwise-backend/internal/services"
)

type ReviewHandler struct {
	log         *logger.Logger
	scheduleSvc services.ReviewScheduleService
}

func NewReviewHandler(log *logger.Logger, scheduleSvc services.ReviewScheduleService) *ReviewHandler {
	return &ReviewHandler{
		log:         log.With("handler", "ReviewHandler"),
		scheduleSvc: scheduleSvc,
	}
}

// GET /api/review/due?limit=
// Cards due now, oldest-due first.
func (h *ReviewHandler) GetDueQueue(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("not authenticated"))
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			RespondError(c, http.StatusBadRequest, "invalid_limit", fmt.Errorf("invalid limit"))
			return
		}
		limit = n
	}
	cards, err := h.scheduleSvc.DueCards(c.Request.Context(), rd.UserID, time.Now().UTC(), limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"cards": cards})
}
