package types

import (
	"time"

	"github.com/google/uuid"
)

// TopicAccuracy is the per-(learner, topic) aggregate recomputed
// incrementally as attempts arrive. CorrectCount never exceeds TotalCount
// and TotalCount never decreases.
type TopicAccuracy struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index:idx_user_topic_acc,unique" json:"user_id"`
	User          *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Topic         string    `gorm:"column:topic;not null;index:idx_user_topic_acc,unique" json:"topic"`
	CorrectCount  int       `gorm:"column:correct_count;not null;default:0" json:"correct_count"`
	TotalCount    int       `gorm:"column:total_count;not null;default:0" json:"total_count"`
	LastAttemptAt time.Time `gorm:"column:last_attempt_at" json:"last_attempt_at"`
	CreatedAt     time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time `gorm:"not null" json:"updated_at"`
}

func (TopicAccuracy) TableName() string { return "topic_accuracy" }

// Accuracy returns correct/total and whether the topic has any attempts.
// ok is false iff TotalCount is zero.
func (t *TopicAccuracy) Accuracy() (float64, bool) {
	if t == nil || t.TotalCount == 0 {
		return 0, false
	}
	return float64(t.CorrectCount) / float64(t.TotalCount), true
}
