package domain

import "time"

// UsageRecord accumulates one user's chargeable activity for one calendar
// day in the bot timezone. Rows are created lazily on the first
// chargeable action of the day and counts never decrease within a day.
type UsageRecord struct {
	UserID int64  `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	Day    string `gorm:"primaryKey;size:10" json:"day"`

	TextMessages  int `gorm:"not null;default:0" json:"text_messages"`
	AudioMessages int `gorm:"not null;default:0" json:"audio_messages"`
	TextChars     int `gorm:"not null;default:0" json:"text_chars"`
	AudioSeconds  int `gorm:"not null;default:0" json:"audio_seconds"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (UsageRecord) TableName() string { return "usage_records" }
