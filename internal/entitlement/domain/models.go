package domain

import "time"

// Entitlement marks a user as premium. Only an administrator command
// writes these rows; there is no user-triggered write path.
type Entitlement struct {
	UserID int64 `gorm:"primaryKey" json:"user_id"`
	Active bool  `gorm:"not null;default:false" json:"active"`
	// ExpiresOn is a calendar day ("2006-01-02") in the bot timezone.
	// Empty means the entitlement never expires.
	ExpiresOn string    `gorm:"size:10" json:"expires_on,omitempty"`
	GrantedAt time.Time `gorm:"not null" json:"granted_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Entitlement) TableName() string { return "entitlements" }
