package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stepwise/stepwise-backend/internal/engine"
	"github.com/stepwise/stepwise-backend/internal/types"
)

func TestSubmitAttemptFirstMissCreatesCardAndAggregates(t *testing.T) {
	stack := newTestStack(t, engine.DefaultConfig())
	ctx := context.Background()
	q := stack.seedQuestion(t, "cardiology", "nbme_2024", types.DifficultyMedium)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	res, err := stack.attempt.SubmitAttempt(ctx, SubmitAttemptInput{
		UserID:       stack.user.ID,
		QuestionID:   q.ID,
		ChosenChoice: 0, // correct is 2
		At:           at,
	})
	require.NoError(t, err)
	require.False(t, res.Correct)
	require.True(t, res.FirstAttempt)

	// Missing card is created at New, then the failure reset applies.
	require.Equal(t, types.StageLearning, res.Card.Stage)
	require.Equal(t, 1.0, res.Card.IntervalDays)
	require.True(t, res.Card.NextDueAt.Equal(at.Add(24*time.Hour)))

	acc, ok, err := stack.performance.AccuracyFor(ctx, stack.user.ID, "cardiology")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0.0, acc)

	size, err := stack.performance.SampleSizeFor(ctx, stack.user.ID, "cardiology")
	require.NoError(t, err)
	require.Equal(t, 1, size)
}

func TestSubmitAttemptMissThenRecover(t *testing.T) {
	stack := newTestStack(t, engine.DefaultConfig())
	ctx := context.Background()
	q := stack.seedQuestion(t, "cardiology", "nbme_2024", types.DifficultyMedium)

	t0 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err := stack.attempt.SubmitAttempt(ctx, SubmitAttemptInput{
		UserID: stack.user.ID, QuestionID: q.ID, ChosenChoice: 0, At: t0,
	})
	require.NoError(t, err)

	t1 := t0.Add(24 * time.Hour)
	res, err := stack.attempt.SubmitAttempt(ctx, SubmitAttemptInput{
		UserID: stack.user.ID, QuestionID: q.ID, ChosenChoice: 2, At: t1,
	})
	require.NoError(t, err)
	require.True(t, res.Correct)
	require.False(t, res.FirstAttempt)
	require.Equal(t, types.StageReview, res.Card.Stage)
	require.Equal(t, 7.0, res.Card.IntervalDays)
	require.True(t, res.Card.NextDueAt.Equal(t1.Add(7*24*time.Hour)))

	acc, ok, err := stack.performance.AccuracyFor(ctx, stack.user.ID, "cardiology")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 0.5, acc)
}

func TestSubmitAttemptFailureResetFromAnyStage(t *testing.T) {
	stack := newTestStack(t, engine.DefaultConfig())
	ctx := context.Background()
	q := stack.seedQuestion(t, "nephrology", "uworld", types.DifficultyHard)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	// Three correct answers climb to Mastered.
	for i := 0; i < 3; i++ {
		res, err := stack.attempt.SubmitAttempt(ctx, SubmitAttemptInput{
			UserID: stack.user.ID, QuestionID: q.ID, ChosenChoice: 2, At: at,
		})
		require.NoError(t, err)
		at = res.Card.NextDueAt
	}
	card, err := stack.cards.Get(ctx, nil, stack.user.ID, q.ID)
	require.NoError(t, err)
	require.Equal(t, types.StageMastered, card.Stage)
	require.GreaterOrEqual(t, card.IntervalDays, 30.0)

	// One miss resets unconditionally.
	res, err := stack.attempt.SubmitAttempt(ctx, SubmitAttemptInput{
		UserID: stack.user.ID, QuestionID: q.ID, ChosenChoice: 4, At: at,
	})
	require.NoError(t, err)
	require.Equal(t, types.StageLearning, res.Card.Stage)
	require.Equal(t, 1.0, res.Card.IntervalDays)
}

func TestSubmitAttemptIntervalMonotonicOnSuccess(t *testing.T) {
	stack := newTestStack(t, engine.DefaultConfig())
	ctx := context.Background()
	q := stack.seedQuestion(t, "pulmonology", "amboss", types.DifficultyMedium)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	prev := 0.0
	for i := 0; i < 6; i++ {
		res, err := stack.attempt.SubmitAttempt(ctx, SubmitAttemptInput{
			UserID: stack.user.ID, QuestionID: q.ID, ChosenChoice: 2, At: at,
		})
		require.NoError(t, err)
		require.Greater(t, res.Card.IntervalDays, prev, "review %d", i)
		prev = res.Card.IntervalDays
		at = res.Card.NextDueAt
	}
}

func TestAccuracyUndefinedWithoutAttempts(t *testing.T) {
	stack := newTestStack(t, engine.DefaultConfig())
	ctx := context.Background()

	_, ok, err := stack.performance.AccuracyFor(ctx, stack.user.ID, "cardiology")
	require.NoError(t, err)
	require.False(t, ok)

	size, err := stack.performance.SampleSizeFor(ctx, stack.user.ID, "cardiology")
	require.NoError(t, err)
	require.Zero(t, size)
}

func TestDueCardsOrderingAndCutoff(t *testing.T) {
	stack := newTestStack(t, engine.DefaultConfig())
	ctx := context.Background()

	qNew := stack.seedQuestion(t, "cardiology", "nbme_2024", types.DifficultyMedium)
	qMastered := stack.seedQuestion(t, "nephrology", "uworld", types.DifficultyMedium)
	qFuture := stack.seedQuestion(t, "psychiatry", "legacy", types.DifficultyMedium)

	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)

	seed := []*types.ReviewCard{
		{UserID: stack.user.ID, QuestionID: qMastered.ID, Stage: types.StageMastered, IntervalDays: 60, NextDueAt: due},
		{UserID: stack.user.ID, QuestionID: qNew.ID, Stage: types.StageNew, IntervalDays: 0, NextDueAt: due},
		{UserID: stack.user.ID, QuestionID: qFuture.ID, Stage: types.StageLearning, IntervalDays: 1, NextDueAt: now.Add(time.Hour)},
	}
	for _, c := range seed {
		c.ID = uuid.New()
		require.NoError(t, stack.db.Create(c).Error)
	}

	cards, err := stack.schedule.DueCards(ctx, stack.user.ID, now, 0)
	require.NoError(t, err)
	require.Len(t, cards, 2, "future card must not be due")

	// Same due instant: the New-stage card surfaces before Mastered.
	require.Equal(t, qNew.ID, cards[0].QuestionID)
	require.Equal(t, qMastered.ID, cards[1].QuestionID)
}

func TestStaleVersionStampIsAConflict(t *testing.T) {
	stack := newTestStack(t, engine.DefaultConfig())
	ctx := context.Background()
	q := stack.seedQuestion(t, "cardiology", "nbme_2024", types.DifficultyMedium)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	_, err := stack.attempt.SubmitAttempt(ctx, SubmitAttemptInput{
		UserID: stack.user.ID, QuestionID: q.ID, ChosenChoice: 2, At: at,
	})
	require.NoError(t, err)

	card, err := stack.cards.Get(ctx, nil, stack.user.ID, q.ID)
	require.NoError(t, err)

	stale := *card
	out := engine.NextReview(card.Stage, card.IntervalDays, true, at.Add(time.Hour), stack.cfg)

	require.NoError(t, stack.cards.UpdateScheduling(ctx, nil, card, out, at.Add(time.Hour)))
	// The second writer raced with a stale stamp: structural bug, not
	// last-write-wins.
	err = stack.cards.UpdateScheduling(ctx, nil, &stale, out, at.Add(time.Hour))
	require.ErrorIs(t, err, engine.ErrConcurrentMutation)
}
