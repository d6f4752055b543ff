package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/types"
)

// UnseenFilter narrows the unseen-question pool. Zero values mean "no
// restriction" on that axis.
type UnseenFilter struct {
	Topics     []string
	Difficulty string
}

type QuestionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, questions []*types.Question) ([]*types.Question, error)
	GetByID(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) (*types.Question, error)
	// ListUnseen returns questions the learner has never attempted,
	// oldest-created first so candidate order is stable across calls.
	ListUnseen(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter UnseenFilter, limit int) ([]*types.Question, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *questionRepo) Create(ctx context.Context, tx *gorm.DB, questions []*types.Question) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(questions) == 0 {
		return []*types.Question{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *questionRepo) GetByID(ctx context.Context, tx *gorm.DB, questionID uuid.UUID) (*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if questionID == uuid.Nil {
		return nil, nil
	}
	var row types.Question
	err := transaction.WithContext(ctx).
		Where("id = ?", questionID).
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

func (r *questionRepo) ListUnseen(ctx context.Context, tx *gorm.DB, userID uuid.UUID, filter UnseenFilter, limit int) ([]*types.Question, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Question
	if userID == uuid.Nil {
		return results, nil
	}

	seen := transaction.WithContext(ctx).
		Model(&types.AttemptEvent{}).
		Select("question_id").
		Where("user_id = ?", userID)

	q := transaction.WithContext(ctx).
		Where("id NOT IN (?)", seen)
	if len(filter.Topics) > 0 {
		q = q.Where("topic IN ?", filter.Topics)
	}
	if filter.Difficulty != "" {
		q = q.Where("difficulty = ?", filter.Difficulty)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Order("created_at ASC, id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
