package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stepwise/stepwise-backend/internal/locks"
	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/repos"
	"github.com/stepwise/stepwise-backend/internal/types"
)

type SubmitAttemptInput struct {
	UserID           uuid.UUID
	QuestionID       uuid.UUID
	ChosenChoice     int
	TimeSpentSeconds int
	// At defaults to now. Exposed so replayed events keep their original
	// timestamps.
	At time.Time
}

type SubmitAttemptResult struct {
	Attempt *types.AttemptEvent `json:"attempt"`
	Correct bool                `json:"correct"`
	// FirstAttempt is true when the learner had never answered this
	// question before this submission.
	FirstAttempt bool              `json:"first_attempt"`
	Card         *types.ReviewCard `json:"card"`
	// Explanation is the tagged payload for the UI, when the question
	// carries one.
	Explanation *types.Explanation `json:"explanation,omitempty"`
}

// AttemptService records an answer as one logical unit: append the attempt
// event, bump the topic aggregate, and advance the review card — all inside
// one transaction under the per-(learner, question) lock.
type AttemptService interface {
	SubmitAttempt(ctx context.Context, input SubmitAttemptInput) (*SubmitAttemptResult, error)
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*types.AttemptEvent, error)
}

type attemptService struct {
	db          *gorm.DB
	log         *logger.Logger
	locker      locks.Locker
	questions   repos.QuestionRepo
	attempts    repos.AttemptRepo
	performance PerformanceService
	schedule    ReviewScheduleService
}

func NewAttemptService(
	db *gorm.DB,
	log *logger.Logger,
	locker locks.Locker,
	questions repos.QuestionRepo,
	attempts repos.AttemptRepo,
	performance PerformanceService,
	schedule ReviewScheduleService,
) AttemptService {
	return &attemptService{
		db:          db,
		log:         log.With("service", "AttemptService"),
		locker:      locker,
		questions:   questions,
		attempts:    attempts,
		performance: performance,
		schedule:    schedule,
	}
}

func (s *attemptService) SubmitAttempt(ctx context.Context, input SubmitAttemptInput) (*SubmitAttemptResult, error) {
	if input.UserID == uuid.Nil || input.QuestionID == uuid.Nil {
		return nil, fmt.Errorf("submit attempt: missing learner or question id")
	}
	question, err := s.questions.GetByID(ctx, nil, input.QuestionID)
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	if question == nil {
		return nil, fmt.Errorf("question %s not found", input.QuestionID)
	}

	at := input.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	correct := input.ChosenChoice == question.CorrectChoice

	// Serialize per (learner, question): a rapid double-submission must
	// not have both attempts read the pre-mutation interval.
	lockKey := fmt.Sprintf("attempt:%s:%s", input.UserID, input.QuestionID)
	release, err := s.locker.Acquire(ctx, lockKey)
	if err != nil {
		return nil, fmt.Errorf("acquire attempt lock: %w", err)
	}
	defer release()

	result := &SubmitAttemptResult{Correct: correct}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seen, err := s.attempts.HasAttempted(ctx, tx, input.UserID, input.QuestionID)
		if err != nil {
			return fmt.Errorf("check prior attempts: %w", err)
		}
		result.FirstAttempt = !seen

		attempt := &types.AttemptEvent{
			ID:               uuid.New(),
			UserID:           input.UserID,
			QuestionID:       input.QuestionID,
			ChosenChoice:     input.ChosenChoice,
			Correct:          correct,
			TimeSpentSeconds: input.TimeSpentSeconds,
			CreatedAt:        at,
		}
		if _, err := s.attempts.Create(ctx, tx, attempt); err != nil {
			return fmt.Errorf("append attempt event: %w", err)
		}
		if err := s.performance.Record(ctx, tx, input.UserID, question.Topic, correct, at); err != nil {
			return fmt.Errorf("record topic accuracy: %w", err)
		}
		card, err := s.schedule.ApplyAttempt(ctx, tx, input.UserID, input.QuestionID, correct, at)
		if err != nil {
			return err
		}
		result.Attempt = attempt
		result.Card = card
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(question.Explanation) > 0 {
		explanation, err := types.ParseExplanation(question.Explanation)
		if err != nil {
			// A bad stored payload must not fail the attempt.
			s.log.Warn("Could not parse stored explanation", "question_id", question.ID, "error", err)
		} else {
			result.Explanation = explanation
		}
	}
	return result, nil
}

func (s *attemptService) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]*types.AttemptEvent, error) {
	return s.attempts.ListByUser(ctx, nil, userID, limit)
}
