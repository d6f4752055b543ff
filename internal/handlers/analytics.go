package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/requestdata"
	"github.com/stepwise/stepwise-backend/internal/services"
)

type AnalyticsHandler struct {
	log            *logger.Logger
	performanceSvc services.PerformanceService
}

func NewAnalyticsHandler(log *logger.Logger, performanceSvc services.PerformanceService) *AnalyticsHandler {
	return &AnalyticsHandler{
		log:            log.With("handler", "AnalyticsHandler"),
		performanceSvc: performanceSvc,
	}
}

// GET /api/analytics/topics
// Per-topic accuracy plus the weakness ranking driving adaptive selection.
func (h *AnalyticsHandler) GetTopicBreakdown(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("not authenticated"))
		return
	}
	topics, err := h.performanceSvc.ListTopicAccuracy(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	ranked, err := h.performanceSvc.RankTopics(c.Request.Context(), rd.UserID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "rank_failed", err)
		return
	}
	RespondOK(c, gin.H{"topics": topics, "weakness_ranking": ranked})
}
