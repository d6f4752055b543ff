package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/types"
)

type TopicAccuracyRepo interface {
	// IncrementCounts applies one attempt to the (learner, topic)
	// aggregate, creating the row on first attempt. Counters only grow.
	IncrementCounts(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string, correct bool, at time.Time) error
	Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string) (*types.TopicAccuracy, error)
	ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.TopicAccuracy, error)
}

type topicAccuracyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTopicAccuracyRepo(db *gorm.DB, baseLog *logger.Logger) TopicAccuracyRepo {
	return &topicAccuracyRepo{db: db, log: baseLog.With("repo", "TopicAccuracyRepo")}
}

func (r *topicAccuracyRepo) IncrementCounts(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string, correct bool, at time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || topic == "" {
		return nil
	}

	correctInc := 0
	if correct {
		correctInc = 1
	}
	now := time.Now().UTC()
	row := &types.TopicAccuracy{
		ID:            uuid.New(),
		UserID:        userID,
		Topic:         topic,
		CorrectCount:  correctInc,
		TotalCount:    1,
		LastAttemptAt: at,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "topic"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_count":     gorm.Expr("total_count + 1"),
				"correct_count":   gorm.Expr("correct_count + ?", correctInc),
				"last_attempt_at": at,
				"updated_at":      now,
			}),
		}).
		Create(row).Error
}

func (r *topicAccuracyRepo) Get(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string) (*types.TopicAccuracy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil || topic == "" {
		return nil, nil
	}
	var row types.TopicAccuracy
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND topic = ?", userID, topic).
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

func (r *topicAccuracyRepo) ListByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.TopicAccuracy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.TopicAccuracy
	if userID == uuid.Nil {
		return results, nil
	}
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("topic ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
