package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Difficulty labels match the labels the content pipeline emits.
const (
	DifficultyEasy     = "easy"
	DifficultyMedium   = "medium"
	DifficultyHard     = "hard"
	DifficultyVeryHard = "very_hard"
)

func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyVeryHard:
		return true
	}
	return false
}

// Question is immutable once created. The selection engine only reads it;
// authoring and medical validation happen upstream in the content pipeline.
type Question struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Topic         string         `gorm:"column:topic;not null;index" json:"topic"`
	Source        string         `gorm:"column:source;not null;index" json:"source"`
	Difficulty    string         `gorm:"column:difficulty;not null;default:'medium'" json:"difficulty"`
	Vignette      string         `gorm:"column:vignette;not null" json:"vignette"`
	Choices       datatypes.JSON `gorm:"type:jsonb;column:choices;not null" json:"choices"`
	CorrectChoice int            `gorm:"column:correct_choice;not null" json:"correct_choice"`
	Explanation   datatypes.JSON `gorm:"type:jsonb;column:explanation" json:"explanation,omitempty"`
	Generated     bool           `gorm:"column:generated;not null;default:false" json:"generated"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Question) TableName() string { return "question" }
