package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stepwise/stepwise-backend/internal/engine"
	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/types"
)

type ReviewCardRepo interface {
	Get(ctx context.Context, tx *gorm.DB, userID, questionID uuid.UUID) (*types.ReviewCard, error)
	Create(ctx context.Context, tx *gorm.DB, card *types.ReviewCard) (*types.ReviewCard, error)
	// UpdateScheduling writes the card's next scheduling state guarded by
	// its version stamp. A stale stamp returns engine.ErrConcurrentMutation.
	UpdateScheduling(ctx context.Context, tx *gorm.DB, card *types.ReviewCard, out engine.ReviewOutcome, attemptAt time.Time) error
	// ListDue returns cards with next_due_at <= asOf, oldest-due first,
	// stage ascending on ties.
	ListDue(ctx context.Context, tx *gorm.DB, userID uuid.UUID, asOf time.Time, limit int) ([]*types.ReviewCard, error)
}

type reviewCardRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewCardRepo(db *gorm.DB, baseLog *logger.Logger) ReviewCardRepo {
	return &reviewCardRepo{db: db, log: baseLog.With("repo", "ReviewCardRepo")}
}

func (r *reviewCardRepo) Get(ctx context.Context, tx *gorm.DB, userID, questionID uuid.UUID) (*types.ReviewCard, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || questionID == uuid.Nil {
		return nil, nil
	}
	var row types.ReviewCard
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

func (r *reviewCardRepo) Create(ctx context.Context, tx *gorm.DB, card *types.ReviewCard) (*types.ReviewCard, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if card == nil {
		return nil, nil
	}
	if err := transaction.WithContext(ctx).Create(card).Error; err != nil {
		return nil, err
	}
	return card, nil
}

func (r *reviewCardRepo) UpdateScheduling(ctx context.Context, tx *gorm.DB, card *types.ReviewCard, out engine.ReviewOutcome, attemptAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if card == nil {
		return nil
	}

	res := transaction.WithContext(ctx).
		Model(&types.ReviewCard{}).
		Where("id = ? AND version = ?", card.ID, card.Version).
		Updates(map[string]interface{}{
			"stage":           out.Stage,
			"interval_days":   out.IntervalDays,
			"next_due_at":     out.NextDueAt,
			"last_attempt_at": attemptAt,
			"version":         card.Version + 1,
			"updated_at":      time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		r.log.Error("Review card version stamp was stale",
			"card_id", card.ID, "version", card.Version)
		return engine.ErrConcurrentMutation
	}
	card.Stage = out.Stage
	card.IntervalDays = out.IntervalDays
	card.NextDueAt = out.NextDueAt
	card.LastAttemptAt = attemptAt
	card.Version++
	return nil
}

func (r *reviewCardRepo) ListDue(ctx context.Context, tx *gorm.DB, userID uuid.UUID, asOf time.Time, limit int) ([]*types.ReviewCard, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ReviewCard
	if userID == uuid.Nil {
		return results, nil
	}
	q := transaction.WithContext(ctx).
		Where("user_id = ? AND next_due_at <= ?", userID, asOf).
		Order("next_due_at ASC, stage ASC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
