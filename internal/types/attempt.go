package types

import (
	"time"

	"github.com/google/uuid"
)

// AttemptEvent is append-only: created when a learner answers a question,
// never mutated or deleted. It is the sole input to accuracy aggregation
// and review scheduling.
type AttemptEvent struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           uuid.UUID `gorm:"type:uuid;not null;index:idx_attempt_user" json:"user_id"`
	User             *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	QuestionID       uuid.UUID `gorm:"type:uuid;not null;index:idx_attempt_question" json:"question_id"`
	Question         *Question `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuestionID;references:ID" json:"question,omitempty"`
	ChosenChoice     int       `gorm:"column:chosen_choice;not null" json:"chosen_choice"`
	Correct          bool      `gorm:"column:correct;not null" json:"correct"`
	TimeSpentSeconds int       `gorm:"column:time_spent_seconds;not null;default:0" json:"time_spent_seconds"`
	CreatedAt        time.Time `gorm:"not null;index" json:"created_at"`
}

func (AttemptEvent) TableName() string { return "attempt_event" }
