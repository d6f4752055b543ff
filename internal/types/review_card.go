package types

import (
	"encoding"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage is the retention maturity of a ReviewCard. The numeric order is
// load-bearing: due-queue ties are broken stage ascending so less-familiar
// material surfaces first.
type Stage int

const (
	StageNew Stage = iota + 1
	StageLearning
	StageReview
	StageMastered
)

var (
	stageNames  = [...]string{StageNew: "new", StageLearning: "learning", StageReview: "review", StageMastered: "mastered"}
	stageByName = map[string]Stage{
		"new":      StageNew,
		"learning": StageLearning,
		"review":   StageReview,
		"mastered": StageMastered,
	}
)

var (
	_ fmt.Stringer             = Stage(0)
	_ json.Marshaler           = Stage(0)
	_ json.Unmarshaler         = (*Stage)(nil)
	_ encoding.TextMarshaler   = Stage(0)
	_ encoding.TextUnmarshaler = (*Stage)(nil)
)

func (s Stage) Valid() bool {
	return s >= StageNew && s <= StageMastered
}

// Next returns the stage after a successful review. Mastered is terminal.
func (s Stage) Next() Stage {
	if s >= StageMastered {
		return StageMastered
	}
	return s + 1
}

func (s Stage) String() string {
	if s.Valid() {
		return stageNames[s]
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

func (s Stage) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid stage %d", int(s))
	}
	return []byte(stageNames[s]), nil
}

func (s *Stage) UnmarshalText(b []byte) error {
	v, ok := stageByName[string(b)]
	if !ok {
		return fmt.Errorf("unknown stage %q", string(b))
	}
	*s = v
	return nil
}

func (s Stage) MarshalJSON() ([]byte, error) {
	b, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(b))
}

func (s *Stage) UnmarshalJSON(b []byte) error {
	var str string
	if err := json.Unmarshal(b, &str); err != nil {
		return err
	}
	return s.UnmarshalText([]byte(str))
}

// ReviewCard is the spaced-repetition record for one (learner, question)
// pair. Created on the learner's first attempt of the question, mutated on
// every subsequent attempt, never deleted while the learner is active.
// Invariant: NextDueAt = LastAttemptAt + IntervalDays.
type ReviewCard struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index:idx_user_question_card,unique" json:"user_id"`
	User          *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	QuestionID    uuid.UUID `gorm:"type:uuid;not null;index:idx_user_question_card,unique" json:"question_id"`
	Question      *Question `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuestionID;references:ID" json:"question,omitempty"`
	Stage         Stage     `gorm:"column:stage;not null" json:"stage"`
	IntervalDays  float64   `gorm:"column:interval_days;not null;default:0" json:"interval_days"`
	NextDueAt     time.Time `gorm:"column:next_due_at;not null;index" json:"next_due_at"`
	LastAttemptAt time.Time `gorm:"column:last_attempt_at" json:"last_attempt_at"`
	// Version is an optimistic-concurrency stamp. A stale write means the
	// per-pair lock was bypassed, which is a bug, not a recoverable race.
	Version   int       `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (ReviewCard) TableName() string { return "review_card" }
