package domain

import "time"

// Kind names a recurring broadcast a user can subscribe to.
type Kind string

const (
	KindPhrase Kind = "phrase"
	KindFact   Kind = "fact"
	KindQuiz   Kind = "quiz"
)

// Preferences holds one user's broadcast subscriptions and the per-kind
// "already sent today" markers. Rows appear on first interaction, all
// subscriptions default to on.
type Preferences struct {
	UserID int64 `gorm:"primaryKey" json:"user_id"`

	DailyPhrase bool `gorm:"not null;default:true" json:"daily_phrase"`
	DailyFact   bool `gorm:"not null;default:true" json:"daily_fact"`
	WeeklyQuiz  bool `gorm:"not null;default:true" json:"weekly_quiz"`

	// Last delivery days ("2006-01-02", bot timezone); empty until the
	// first broadcast reaches the user.
	LastPhraseOn string `gorm:"size:10" json:"last_phrase_on,omitempty"`
	LastFactOn   string `gorm:"size:10" json:"last_fact_on,omitempty"`
	LastQuizOn   string `gorm:"size:10" json:"last_quiz_on,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Preferences) TableName() string { return "subscription_prefs" }
