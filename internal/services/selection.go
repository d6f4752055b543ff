package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/stepwise/stepwise-backend/internal/clients/contentgen"
	"github.com/stepwise/stepwise-backend/internal/engine"
	"github.com/stepwise/stepwise-backend/internal/logger"
	"github.com/stepwise/stepwise-backend/internal/repos"
	"github.com/stepwise/stepwise-backend/internal/types"
)

const duePeek = 20

// SelectionMode optionally pins the next question to a topic or difficulty
// for non-adaptive study modes. The zero value is fully adaptive.
type SelectionMode struct {
	Topic      string
	Difficulty string
}

func (m SelectionMode) adaptive() bool { return m.Topic == "" }

// NextQuestionResult carries either the picked question or, when the pool
// is exhausted and no generator is wired, the generate-new directive for
// the caller to dispatch.
type NextQuestionResult struct {
	Question  *types.Question       `json:"question,omitempty"`
	Reason    engine.PickReason     `json:"reason,omitempty"`
	Directive *contentgen.Directive `json:"directive,omitempty"`
}

// SelectionService is the orchestrator deciding the single next question
// for a learner at a point in time.
type SelectionService interface {
	NextQuestion(ctx context.Context, userID uuid.UUID, mode SelectionMode) (*NextQuestionResult, error)
}

type selectionService struct {
	db          *gorm.DB
	log         *logger.Logger
	questions   repos.QuestionRepo
	performance PerformanceService
	schedule    ReviewScheduleService
	generator   contentgen.Generator // nil when no collaborator configured
	cfg         engine.Config
	weighter    *engine.RecencyWeighter
	genTimeout  time.Duration

	// Ranking for one learner is collapsed across concurrent requests.
	rankGroup singleflight.Group

	rngMu sync.Mutex
	rng   *rand.Rand
	now   func() time.Time
}

func NewSelectionService(
	db *gorm.DB,
	log *logger.Logger,
	questions repos.QuestionRepo,
	performance PerformanceService,
	schedule ReviewScheduleService,
	generator contentgen.Generator,
	cfg engine.Config,
	genTimeout time.Duration,
	seed int64,
) SelectionService {
	return &selectionService{
		db:          db,
		log:         log.With("service", "SelectionService"),
		questions:   questions,
		performance: performance,
		schedule:    schedule,
		generator:   generator,
		cfg:         cfg,
		weighter:    engine.NewRecencyWeighter(cfg),
		genTimeout:  genTimeout,
		rng:         rand.New(rand.NewSource(seed)),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *selectionService) NextQuestion(ctx context.Context, userID uuid.UUID, mode SelectionMode) (*NextQuestionResult, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("next question: missing learner id")
	}
	now := s.now()

	due, err := s.schedule.DueCards(ctx, userID, now, duePeek)
	if err != nil {
		return nil, fmt.Errorf("list due cards: %w", err)
	}

	// Spaced-repetition obligations must not be starved by weakness
	// targeting: with probability PReview the due-queue head is served
	// directly. Pinned study modes bypass the review branch.
	if mode.adaptive() && len(due) > 0 && s.roll() {
		q, err := s.questions.GetByID(ctx, nil, due[0].QuestionID)
		if err != nil {
			return nil, fmt.Errorf("load due question: %w", err)
		}
		if q != nil {
			return &NextQuestionResult{Question: q, Reason: engine.ReasonReview}, nil
		}
		// Card points at a retired question; fall through to targeting.
		s.log.Warn("Due card references missing question", "question_id", due[0].QuestionID)
	}

	ranked, err := s.rankTopics(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !mode.adaptive() {
		return s.pinnedQuestion(ctx, userID, mode, ranked)
	}

	// New-learner fallback: nothing sampled well enough to target yet, so
	// explore uniformly over the whole unseen pool.
	if len(ranked) == 0 {
		pool, err := s.questions.ListUnseen(ctx, nil, userID, repos.UnseenFilter{}, 0)
		if err != nil {
			return nil, fmt.Errorf("list unseen pool: %w", err)
		}
		if q := s.pickRandom(pool); q != nil {
			return &NextQuestionResult{Question: q, Reason: engine.ReasonExploration}, nil
		}
		return s.exhaustedPool(ctx, userID, "", mode.Difficulty, due)
	}

	topK := ranked
	if len(topK) > s.cfg.TopWeakTopics {
		topK = topK[:s.cfg.TopWeakTopics]
	}
	topics := make([]string, 0, len(topK))
	priorities := make(map[string]float64, len(ranked))
	for _, tp := range topK {
		topics = append(topics, tp.Topic)
	}
	for _, tp := range ranked {
		priorities[tp.Topic] = tp.Score
	}

	pool, err := s.questions.ListUnseen(ctx, nil, userID, repos.UnseenFilter{Topics: topics, Difficulty: mode.Difficulty}, 0)
	if err != nil {
		return nil, fmt.Errorf("list weak-topic pool: %w", err)
	}
	if best, _ := engine.PickBest(pool, priorities, s.weighter); best != nil {
		return &NextQuestionResult{Question: best, Reason: engine.ReasonWeakness}, nil
	}

	// Empty pool for the weak topics: widen to every unseen question
	// before resorting to the content collaborator.
	widened, err := s.questions.ListUnseen(ctx, nil, userID, repos.UnseenFilter{Difficulty: mode.Difficulty}, 0)
	if err != nil {
		return nil, fmt.Errorf("widen unseen pool: %w", err)
	}
	if best, _ := engine.PickBest(widened, priorities, s.weighter); best != nil {
		return &NextQuestionResult{Question: best, Reason: engine.ReasonWeakness}, nil
	}

	// Still nothing targetable: ask for fresh content in the weakest
	// topic rather than serving something random.
	return s.generateOrFallback(ctx, userID, ranked[0].Topic, mode.Difficulty, widened, due)
}

func (s *selectionService) pinnedQuestion(ctx context.Context, userID uuid.UUID, mode SelectionMode, ranked []engine.TopicPriority) (*NextQuestionResult, error) {
	pool, err := s.questions.ListUnseen(ctx, nil, userID, repos.UnseenFilter{Topics: []string{mode.Topic}, Difficulty: mode.Difficulty}, 0)
	if err != nil {
		return nil, fmt.Errorf("list pinned pool: %w", err)
	}
	priorities := map[string]float64{mode.Topic: 1}
	for _, tp := range ranked {
		if tp.Topic == mode.Topic {
			priorities[mode.Topic] = tp.Score
		}
	}
	if best, _ := engine.PickBest(pool, priorities, s.weighter); best != nil {
		return &NextQuestionResult{Question: best, Reason: engine.ReasonWeakness}, nil
	}
	return s.generateOrFallback(ctx, userID, mode.Topic, mode.Difficulty, nil, nil)
}

// exhaustedPool handles the brand-new learner whose unseen pool is already
// empty: any due card is better than nothing, then generation.
func (s *selectionService) exhaustedPool(ctx context.Context, userID uuid.UUID, topic, difficulty string, due []*types.ReviewCard) (*NextQuestionResult, error) {
	if len(due) > 0 {
		q, err := s.questions.GetByID(ctx, nil, due[0].QuestionID)
		if err == nil && q != nil {
			return &NextQuestionResult{Question: q, Reason: engine.ReasonReview}, nil
		}
	}
	return s.generateOrFallback(ctx, userID, topic, difficulty, nil, nil)
}

// generateOrFallback dispatches the generate-new directive. If the
// collaborator is missing the directive itself is returned for the caller;
// if it fails, the best existing material is served instead — the learner
// never sees an error while any fallback exists.
func (s *selectionService) generateOrFallback(ctx context.Context, userID uuid.UUID, topic, difficulty string, widened []*types.Question, due []*types.ReviewCard) (*NextQuestionResult, error) {
	directive := &contentgen.Directive{Topic: topic, DifficultyHint: difficulty}
	if directive.DifficultyHint == "" {
		directive.DifficultyHint = types.DifficultyMedium
	}

	if s.generator != nil && topic != "" {
		genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
		q, err := s.generator.Generate(genCtx, *directive)
		cancel()
		if err == nil && q != nil {
			if _, err := s.questions.Create(ctx, nil, []*types.Question{q}); err != nil {
				return nil, fmt.Errorf("persist generated question: %w", err)
			}
			return &NextQuestionResult{Question: q, Reason: engine.ReasonGenerated}, nil
		}
		s.log.Warn("Content generation failed, falling back", "topic", topic, "error", err)
	}

	// Suboptimal is fine here; blocking the learner is not.
	if len(widened) > 0 {
		return &NextQuestionResult{Question: widened[0], Reason: engine.ReasonWeakness}, nil
	}
	if len(due) > 0 {
		q, err := s.questions.GetByID(ctx, nil, due[0].QuestionID)
		if err == nil && q != nil {
			return &NextQuestionResult{Question: q, Reason: engine.ReasonReview}, nil
		}
	}
	// A directive without a topic is undispatchable: nothing attempted,
	// nothing stored, no signal to generate against.
	if topic == "" {
		return nil, engine.ErrEmptyPool
	}
	if s.generator == nil {
		return &NextQuestionResult{Directive: directive}, nil
	}
	return nil, engine.ErrNoQuestion
}

func (s *selectionService) rankTopics(ctx context.Context, userID uuid.UUID) ([]engine.TopicPriority, error) {
	v, err, _ := s.rankGroup.Do(userID.String(), func() (interface{}, error) {
		return s.performance.RankTopics(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("rank topics: %w", err)
	}
	ranked, ok := v.([]engine.TopicPriority)
	if !ok {
		return nil, errors.New("rank topics: unexpected result type")
	}
	return ranked, nil
}

func (s *selectionService) roll() bool {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64() < s.cfg.PReview
}

func (s *selectionService) pickRandom(pool []*types.Question) *types.Question {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return engine.PickRandom(pool, s.rng)
}
