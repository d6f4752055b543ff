package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stepwise/stepwise-backend/internal/engine"
	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/repos"
)

// PerformanceService maintains per-learner, per-topic accuracy aggregates
// and exposes the weakness ranking derived from them. It holds no opinion
// about what counts as weak beyond the configured thresholds.
type PerformanceService interface {
	Record(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string, correct bool, at time.Time) error
	// AccuracyFor returns correct/total; ok is false iff the learner has
	// no attempts in the topic.
	AccuracyFor(ctx context.Context, userID uuid.UUID, topic string) (float64, bool, error)
	SampleSizeFor(ctx context.Context, userID uuid.UUID, topic string) (int, error)
	// RankTopics is the weakness ranking consumed by adaptive selection,
	// weakest first.
	RankTopics(ctx context.Context, userID uuid.UUID) ([]engine.TopicPriority, error)
	ListTopicAccuracy(ctx context.Context, userID uuid.UUID) ([]TopicAccuracyView, error)
}

// TopicAccuracyView is the dashboard row: raw counts plus the derived
// accuracy when defined.
type TopicAccuracyView struct {
	Topic         string    `json:"topic"`
	CorrectCount  int       `json:"correct_count"`
	TotalCount    int       `json:"total_count"`
	Accuracy      *float64  `json:"accuracy,omitempty"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
}

type performanceService struct {
	db       *gorm.DB
	log      *logger.Logger
	accuracy repos.TopicAccuracyRepo
	cfg      engine.Config
}

func NewPerformanceService(db *gorm.DB, log *logger.Logger, accuracy repos.TopicAccuracyRepo, cfg engine.Config) PerformanceService {
	return &performanceService{
		db:       db,
		log:      log.With("service", "PerformanceService"),
		accuracy: accuracy,
		cfg:      cfg,
	}
}

func (s *performanceService) Record(ctx context.Context, tx *gorm.DB, userID uuid.UUID, topic string, correct bool, at time.Time) error {
	return s.accuracy.IncrementCounts(ctx, tx, userID, topic, correct, at)
}

func (s *performanceService) AccuracyFor(ctx context.Context, userID uuid.UUID, topic string) (float64, bool, error) {
	row, err := s.accuracy.Get(ctx, nil, userID, topic)
	if err != nil {
		return 0, false, err
	}
	if row == nil {
		return 0, false, nil
	}
	acc, ok := row.Accuracy()
	return acc, ok, nil
}

func (s *performanceService) SampleSizeFor(ctx context.Context, userID uuid.UUID, topic string) (int, error) {
	row, err := s.accuracy.Get(ctx, nil, userID, topic)
	if err != nil {
		return 0, err
	}
	if row == nil {
		return 0, nil
	}
	return row.TotalCount, nil
}

func (s *performanceService) RankTopics(ctx context.Context, userID uuid.UUID) ([]engine.TopicPriority, error) {
	aggs, err := s.accuracy.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	return engine.RankTopics(aggs, s.cfg), nil
}

func (s *performanceService) ListTopicAccuracy(ctx context.Context, userID uuid.UUID) ([]TopicAccuracyView, error) {
	aggs, err := s.accuracy.ListByUser(ctx, nil, userID)
	if err != nil {
		return nil, err
	}
	views := make([]TopicAccuracyView, 0, len(aggs))
	for _, agg := range aggs {
		view := TopicAccuracyView{
			Topic:         agg.Topic,
			CorrectCount:  agg.CorrectCount,
			TotalCount:    agg.TotalCount,
			LastAttemptAt: agg.LastAttemptAt,
		}
		if acc, ok := agg.Accuracy(); ok {
			view.Accuracy = &acc
		}
		views = append(views, view)
	}
	return views, nil
}
