package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/stepwise/stepwise-backend/internal/engine"
	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/repos"
	"github.com/stepwise/stepwise-backend/internal/requestdata"
	"github.com/stepwise/stepwise-backend/internal/services"
	"github.com/stepwise/stepwise-backend/internal/types"
)

type QuestionHandler struct {
	log          *logger.Logger
	selectionSvc services.SelectionService
	questionRepo repos.QuestionRepo
}

func NewQuestionHandler(log *logger.Logger, selectionSvc services.SelectionService, questionRepo repos.QuestionRepo) *QuestionHandler {
	return &QuestionHandler{
		log:          log.With("handler", "QuestionHandler"),
		selectionSvc: selectionSvc,
		questionRepo: questionRepo,
	}
}

// questionView is the question as served to the learner. Grading happens
// server side, so the correct choice and explanation never leave the API
// before an attempt is submitted.
type questionView struct {
	ID         uuid.UUID      `json:"id"`
	Topic      string         `json:"topic"`
	Source     string         `json:"source"`
	Difficulty string         `json:"difficulty"`
	Vignette   string         `json:"vignette"`
	Choices    datatypes.JSON `json:"choices"`
	Generated  bool           `json:"generated"`
}

func newQuestionView(q *types.Question) *questionView {
	if q == nil {
		return nil
	}
	return &questionView{
		ID:         q.ID,
		Topic:      q.Topic,
		Source:     q.Source,
		Difficulty: q.Difficulty,
		Vignette:   q.Vignette,
		Choices:    q.Choices,
		Generated:  q.Generated,
	}
}

// GET /api/questions/next?topic=&difficulty=
// Pick the next question for the learner. Without a topic the selection is
// fully adaptive; with one, study is pinned to that topic.
func (h *QuestionHandler) GetNext(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", fmt.Errorf("not authenticated"))
		return
	}
	mode := services.SelectionMode{
		Topic:      c.Query("topic"),
		Difficulty: c.Query("difficulty"),
	}
	if mode.Difficulty != "" && !types.ValidDifficulty(mode.Difficulty) {
		RespondError(c, http.StatusBadRequest, "invalid_difficulty", fmt.Errorf("unknown difficulty %q", mode.Difficulty))
		return
	}

	result, err := h.selectionSvc.NextQuestion(c.Request.Context(), rd.UserID, mode)
	if err != nil {
		if errors.Is(err, engine.ErrNoQuestion) {
			RespondError(c, http.StatusNotFound, "no_question", err)
			return
		}
		if errors.Is(err, engine.ErrEmptyPool) {
			RespondError(c, http.StatusNotFound, "empty_pool", err)
			return
		}
		RespondError(c, http.StatusInternalServerError, "selection_failed", err)
		return
	}
	RespondOK(c, gin.H{
		"question":  newQuestionView(result.Question),
		"reason":    result.Reason,
		"directive": result.Directive,
	})
}

// GET /api/questions/:id
func (h *QuestionHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_question_id", fmt.Errorf("invalid question id"))
		return
	}
	question, err := h.questionRepo.GetByID(c.Request.Context(), nil, id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "load_failed", err)
		return
	}
	if question == nil {
		RespondError(c, http.StatusNotFound, "question_not_found", fmt.Errorf("question %s not found", id))
		return
	}
	RespondOK(c, gin.H{"question": newQuestionView(question)})
}
