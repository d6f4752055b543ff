package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stepwise/stepwise-backend/internal/engine"
	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/repos"
	"github.com/stepwise/stepwise-backend/internal/types"
)

// ReviewScheduleService owns the review state machine for every
// (learner, question) pair the learner has encountered.
type ReviewScheduleService interface {
	// ApplyAttempt advances or resets the pair's review card for one
	// attempt, creating the card at stage New first if the learner has
	// never answered this question. Callers hold the per-pair lock.
	ApplyAttempt(ctx context.Context, tx *gorm.DB, userID, questionID uuid.UUID, correct bool, at time.Time) (*types.ReviewCard, error)
	// DueCards returns cards due at asOf, oldest-due first, less-familiar
	// stages first on ties.
	DueCards(ctx context.Context, userID uuid.UUID, asOf time.Time, limit int) ([]*types.ReviewCard, error)
}

type reviewScheduleService struct {
	db    *gorm.DB
	log   *logger.Logger
	cards repos.ReviewCardRepo
	cfg   engine.Config
}

func NewReviewScheduleService(db *gorm.DB, log *logger.Logger, cards repos.ReviewCardRepo, cfg engine.Config) ReviewScheduleService {
	return &reviewScheduleService{
		db:    db,
		log:   log.With("service", "ReviewScheduleService"),
		cards: cards,
		cfg:   cfg,
	}
}

func (s *reviewScheduleService) ApplyAttempt(ctx context.Context, tx *gorm.DB, userID, questionID uuid.UUID, correct bool, at time.Time) (*types.ReviewCard, error) {
	card, err := s.cards.Get(ctx, tx, userID, questionID)
	if err != nil {
		return nil, fmt.Errorf("load review card: %w", err)
	}
	if card == nil {
		// First encounter: not an error, the card starts at New and the
		// transition below applies immediately.
		card = &types.ReviewCard{
			ID:         uuid.New(),
			UserID:     userID,
			QuestionID: questionID,
			Stage:      types.StageNew,
			NextDueAt:  at,
		}
		if _, err := s.cards.Create(ctx, tx, card); err != nil {
			return nil, fmt.Errorf("create review card: %w", err)
		}
	}

	out := engine.NextReview(card.Stage, card.IntervalDays, correct, at, s.cfg)
	if err := s.cards.UpdateScheduling(ctx, tx, card, out, at); err != nil {
		return nil, fmt.Errorf("update review card: %w", err)
	}
	return card, nil
}

func (s *reviewScheduleService) DueCards(ctx context.Context, userID uuid.UUID, asOf time.Time, limit int) ([]*types.ReviewCard, error) {
	return s.cards.ListDue(ctx, nil, userID, asOf, limit)
}
