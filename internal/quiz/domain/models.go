package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Question is the user's single current-question slot. A new question
// always replaces the previous row regardless of its done flag, so at
// most one live question exists per user.
type Question struct {
	UserID     int64 `gorm:"primaryKey" json:"user_id"`
	QuestionID int64 `gorm:"not null" json:"question_id"`

	Prompt       string                      `gorm:"not null" json:"prompt"`
	Answer       string                      `gorm:"not null" json:"answer"`
	Options      datatypes.JSONSlice[string] `gorm:"not null" json:"options"`
	CorrectIndex int                         `gorm:"not null" json:"correct_index"`

	// Done flips exactly once, when the question is answered. Repeated
	// answer attempts must not reach the stats counters.
	Done      bool      `gorm:"not null;default:false" json:"done"`
	CreatedAt time.Time `json:"created_at"`
}

func (Question) TableName() string { return "quiz_questions" }

// Stats is the user's aggregate quiz score.
type Stats struct {
	UserID    int64     `gorm:"primaryKey" json:"user_id"`
	Answered  int       `gorm:"not null;default:0" json:"answered"`
	Correct   int       `gorm:"not null;default:0" json:"correct"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Stats) TableName() string { return "quiz_stats" }
