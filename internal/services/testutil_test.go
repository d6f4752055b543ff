package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/stepwise/stepwise-backend/internal/engine"
	"github.com/stepwise/stepwise-backend/internal/locks"
	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/repos"
	"github.com/stepwise/stepwise-backend/internal/types"
)

type testStack struct {
	db          *gorm.DB
	questions   repos.QuestionRepo
	attempts    repos.AttemptRepo
	accuracy    repos.TopicAccuracyRepo
	cards       repos.ReviewCardRepo
	performance PerformanceService
	schedule    ReviewScheduleService
	attempt     AttemptService
	cfg         engine.Config
	user        *types.User
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Question{},
		&types.AttemptEvent{},
		&types.TopicAccuracy{},
		&types.ReviewCard{},
	))
	return db
}

func newTestStack(t *testing.T, cfg engine.Config) *testStack {
	t.Helper()
	db := openTestDB(t)
	log := logger.NewNop()

	questions := repos.NewQuestionRepo(db, log)
	attempts := repos.NewAttemptRepo(db, log)
	accuracy := repos.NewTopicAccuracyRepo(db, log)
	cards := repos.NewReviewCardRepo(db, log)

	performance := NewPerformanceService(db, log, accuracy, cfg)
	schedule := NewReviewScheduleService(db, log, cards, cfg)
	attempt := NewAttemptService(db, log, locks.NewKeyedMutex(), questions, attempts, performance, schedule)

	user := &types.User{
		ID:        uuid.New(),
		Email:     "learner@example.com",
		Password:  "hashed",
		FirstName: "Test",
		LastName:  "Learner",
	}
	require.NoError(t, db.Create(user).Error)

	return &testStack{
		db:          db,
		questions:   questions,
		attempts:    attempts,
		accuracy:    accuracy,
		cards:       cards,
		performance: performance,
		schedule:    schedule,
		attempt:     attempt,
		cfg:         cfg,
		user:        user,
	}
}

func (s *testStack) seedQuestion(t *testing.T, topic, source, difficulty string) *types.Question {
	t.Helper()
	choices, err := json.Marshal([]string{"A", "B", "C", "D", "E"})
	require.NoError(t, err)
	q := &types.Question{
		ID:            uuid.New(),
		Topic:         topic,
		Source:        source,
		Difficulty:    difficulty,
		Vignette:      "A 54-year-old presents with...",
		Choices:       choices,
		CorrectChoice: 2,
	}
	require.NoError(t, s.db.Create(q).Error)
	// Keep creation order stable for deterministic candidate ordering.
	time.Sleep(time.Millisecond)
	return q
}
